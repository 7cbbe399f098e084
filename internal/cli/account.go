package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagLoginEmail string

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the record service",
		RunE:  runLogin,
	}
	cmd.Flags().StringVar(&flagLoginEmail, "email", "", "Account email (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	ctx := cmd.Context()
	reader := bufio.NewReader(cmd.InOrStdin())

	email := flagLoginEmail
	if email == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("password is required")
	}

	sess, err := openSession()
	if err != nil {
		return err
	}

	if err := sess.SignIn(ctx, authURL(cfg), email, password); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	if u := sess.CurrentUser(); u != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.Email)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	if err := sess.SignOut(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}

	u := sess.CurrentUser()
	if u == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}

	if _, err := sess.Token(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (session expired, sign in again)\n", u.Email)
		return nil
	}

	if u.Name != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", u.Name, u.Email)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), u.Email)
	}
	return nil
}
