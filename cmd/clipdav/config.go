package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/clipdav/clipdav/internal/logging"
	"github.com/clipdav/clipdav/internal/store"
)

// keyringService is the service name under which the WebDAV password is
// stored in the OS keyring.
const keyringService = "clipdav"

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPDAV_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPDAV_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipdav")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipdav/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipdav", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPDAV")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addServerFlags adds the WebDAV connection flags shared by every command
// that talks to the remote folder.
func addServerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("url", "", "WebDAV base URL (e.g. https://cloud.example.com/remote.php/dav/files/alice)")
	f.String("username", "", "WebDAV username")
	f.String("password", "", "WebDAV password (prefer the keyring via 'clipdav login')")
	f.String("folder", "clipboard-sync", "remote folder holding the sync blobs")
	f.String("source", defaultSource(), "sync identity for this machine (default: hostname)")
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

// resolvePassword returns the WebDAV password: explicit config first, then
// the OS keyring, then an interactive prompt when stderr is a terminal.
func resolvePassword(v *viper.Viper) (string, error) {
	if pw := v.GetString("password"); pw != "" {
		return pw, nil
	}
	username := v.GetString("username")
	if pw, err := keyring.Get(keyringService, username); err == nil && pw != "" {
		return pw, nil
	} else if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring: %w", err)
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("no password configured for %s (run 'clipdav login')", username)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(raw), nil
}

// connectStore builds and probes the WebDAV client from the shared flags.
func connectStore(v *viper.Viper) (*store.WebDAV, error) {
	url := v.GetString("url")
	username := v.GetString("username")
	if url == "" || username == "" {
		return nil, fmt.Errorf("url and username are required (flags, config file, or CLIPDAV_* env)")
	}
	password, err := resolvePassword(v)
	if err != nil {
		return nil, err
	}
	return store.NewWebDAV(store.WebDAVConfig{
		URL:      url,
		Username: username,
		Password: password,
	})
}
