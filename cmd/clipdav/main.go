// clipdav: peer-synchronised clipboard mirror over a shared WebDAV folder.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipdav/clipdav/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipdav",
		Short: "Clipboard sync over a shared WebDAV folder",
		Long: `clipdav mirrors the system clipboard between machines through a shared
WebDAV folder (Nextcloud, ownCloud, any plain DAV server). Each machine
overwrites one blob, clipboard-<host>.json.gz; the folder's file modification
times are the only coordination, no server-side logic is involved.

Run "clipdav run" on each machine pointing at the same folder. Local captures
are also kept in a rolling on-disk history.

Config file search order (first found wins):
  /etc/clipdav/clipdav.toml
  $HOME/.config/clipdav/clipdav.toml
  path supplied via --config

All flags can be set via CLIPDAV_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newLoginCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipdav %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
