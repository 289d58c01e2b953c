package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipdav/clipdav/internal/envelope"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the sync blobs in the shared folder",
		Long: `Connects to the WebDAV folder and lists every machine's sync blob with
its size and modification time. Verifies connectivity in the process.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	addServerFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	resolveLogging(true, "auto", "warn")

	blob, err := connectStore(v)
	if err != nil {
		return err
	}

	entries, err := blob.List(v.GetString("folder"))
	if err != nil {
		return err
	}

	source := v.GetString("source")
	now := time.Now()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Peer", "Blob", "Size", "Modified", "Age"})
	table.SetBorder(false)

	found := 0
	for _, e := range entries {
		host, ok := envelope.PeerHost(e.Name)
		if !ok {
			continue
		}
		found++
		peer := host
		if host == source {
			peer += " (this machine)"
		}
		modified, age := "unknown", "-"
		if !e.ModTime.IsZero() {
			modified = e.ModTime.Local().Format("2006-01-02 15:04:05")
			age = now.Sub(e.ModTime).Round(time.Second).String()
		}
		table.Append([]string{peer, e.Name, fmt.Sprintf("%d B", e.Size), modified, age})
	}

	if found == 0 {
		fmt.Printf("No sync blobs in %q yet. Copy something while 'clipdav run' is active.\n", v.GetString("folder"))
		return nil
	}
	table.Render()
	return nil
}
