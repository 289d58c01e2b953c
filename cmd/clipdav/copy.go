package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/snapshot"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Upload stdin as this machine's sync blob (like pbcopy, but remote)",
		Long: `Reads stdin and overwrites this machine's blob in the shared folder, making
the content the latest clipboard for every peer running 'clipdav run'.

  echo hello | clipdav copy
  clipdav copy --mime image/png < screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	cmd.Flags().String("mime", "text/plain", "MIME type of the data being copied")
	addServerFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	resolveLogging(true, "auto", "warn")

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	mime := v.GetString("mime")
	var snap snapshot.Snapshot
	switch {
	case mime == "text/plain":
		snap = snapshot.NewText(string(data))
	case strings.HasPrefix(mime, "image/"):
		snap = snapshot.NewImage(data, strings.TrimPrefix(mime, "image/"))
	default:
		snap = snapshot.NewMulti(map[string]string{mime: string(data)})
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	blob, err := connectStore(v)
	if err != nil {
		return err
	}

	raw, err := envelope.Marshal(snap)
	if err != nil {
		return err
	}
	gz, err := envelope.Compress(raw)
	if err != nil {
		return err
	}

	name := envelope.BlobName(v.GetString("source"))
	return blob.Put(path.Join(v.GetString("folder"), name), gz)
}
