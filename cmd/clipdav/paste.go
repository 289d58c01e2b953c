package main

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/snapshot"
	"github.com/clipdav/clipdav/internal/store"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the most recent peer clipboard to stdout (like pbpaste)",
		Long: `Downloads the most recently modified peer blob from the shared folder and
writes its content to stdout. This machine's own blob is never considered.

Text and multi-format content prints as text; image content is written as raw
bytes, so redirect it:

  clipdav paste > note.txt
  clipdav paste > screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	addServerFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	resolveLogging(true, "auto", "warn")

	blob, err := connectStore(v)
	if err != nil {
		return err
	}

	folder := v.GetString("folder")
	entries, err := blob.List(folder)
	if err != nil {
		return err
	}

	source := v.GetString("source")
	var best *store.FileInfo
	for i := range entries {
		e := entries[i]
		host, ok := envelope.PeerHost(e.Name)
		if !ok || host == source || e.ModTime.IsZero() {
			continue
		}
		if best == nil || e.ModTime.After(best.ModTime) ||
			(e.ModTime.Equal(best.ModTime) && e.Name < best.Name) {
			best = &e
		}
	}
	if best == nil {
		return fmt.Errorf("no peer blobs in %q", folder)
	}

	gz, err := blob.Get(path.Join(folder, best.Name))
	if err != nil {
		return err
	}
	raw, err := envelope.Decompress(gz)
	if err != nil {
		return err
	}
	snap, err := envelope.Parse(raw)
	if err != nil {
		return err
	}

	switch snap.Kind {
	case snapshot.KindText:
		fmt.Print(snap.Text)
	case snapshot.KindImage:
		if _, err := os.Stdout.Write(snap.Image); err != nil {
			return err
		}
	case snapshot.KindMulti:
		if plain, ok := snap.Formats["text/plain"]; ok {
			fmt.Print(plain)
			break
		}
		for _, content := range snap.Formats {
			fmt.Print(content)
			break
		}
	}
	return nil
}
