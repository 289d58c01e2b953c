package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the WebDAV password in the OS keyring",
		Long: `Prompts for the WebDAV password and stores it in the OS keyring under the
configured username, so the password never has to live in the config file.

Use --clear to remove a stored password.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runLogin(v) },
	}

	cmd.Flags().String("username", "", "WebDAV username")
	cmd.Flags().Bool("clear", false, "remove the stored password instead")
	addConfigFlag(cmd)

	return cmd
}

func runLogin(v *viper.Viper) error {
	username := v.GetString("username")
	if username == "" {
		return fmt.Errorf("username is required (flag, config file, or CLIPDAV_USERNAME)")
	}

	if v.GetBool("clear") {
		if err := keyring.Delete(keyringService, username); err != nil {
			return fmt.Errorf("keyring: %w", err)
		}
		fmt.Printf("Password for %s removed from keyring.\n", username)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("password cannot be empty")
	}

	if err := keyring.Set(keyringService, username, string(raw)); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}
	fmt.Printf("Password for %s stored in keyring.\n", username)
	return nil
}
