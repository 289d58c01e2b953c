package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipdav/clipdav/internal/clip"
	"github.com/clipdav/clipdav/internal/engine"
	"github.com/clipdav/clipdav/internal/history"
	"github.com/clipdav/clipdav/internal/notify"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard sync daemon",
		Long: `Watches the local clipboard and the shared WebDAV folder.

Local clipboard changes are saved to the capture directory and uploaded as
clipboard-<source>.json.gz. Peer blobs that move are downloaded, and the most
recently modified one is applied to the local clipboard.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.String("capture-dir", "./clipboard-captures", "directory for the rolling local history")
	f.Int("max-history", 100, "maximum number of capture files kept on disk")
	f.Duration("check-interval", 5*time.Second, "minimum time between remote polls")
	f.Bool("no-notify", false, "disable desktop notifications")
	addServerFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	source := v.GetString("source")
	folder := v.GetString("folder")

	slog.Info("clipdav starting",
		"version", Version,
		"source", source,
		"url", v.GetString("url"),
		"folder", folder,
	)

	blob, err := connectStore(v)
	if err != nil {
		return err
	}

	hist, err := history.New(v.GetString("capture-dir"), v.GetInt("max-history"))
	if err != nil {
		return err
	}
	slog.Info("capture history ready",
		"dir", hist.Dir(),
		"max_entries", v.GetInt("max-history"),
	)

	var notifier notify.Notifier = notify.Desktop{}
	if v.GetBool("no-notify") {
		notifier = notify.Silent{}
	}

	backend := clip.New()
	defer backend.Close()

	eng, err := engine.New(engine.Config{
		Host:          source,
		Folder:        folder,
		Blob:          blob,
		Clipboard:     backend,
		History:       hist,
		Notifier:      notifier,
		CheckInterval: v.GetDuration("check-interval"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("clipdav stopped")
	return nil
}
