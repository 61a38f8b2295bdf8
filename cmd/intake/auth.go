package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"salesintake/internal/domain"
	"salesintake/internal/session"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a username and password",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the cached session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (default: $SALESINTAKE_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("username")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	password := loginPassword
	if password == "" {
		password = os.Getenv("SALESINTAKE_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required")
	}

	res, err := a.client.Login(cmd.Context(), loginUsername, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return errors.New("invalid username or password")
		}
		return err
	}
	if err := a.cache.Save(&session.CachedSession{Credential: res.Credential, Principal: res.Principal}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describe(res.Principal))
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, _, err := a.authenticate(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), describe(p))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cred, err := a.cachedCredential()
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return nil
	}

	store := session.NewStore()
	stop := a.cache.Track(store, cred)
	defer stop()

	err = store.Logout(cmd.Context(), func(ctx context.Context) error {
		_, err := a.client.Logout(ctx, cred)
		return err
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: backend logout failed: %v\n", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func describe(p *domain.Principal) string {
	s := fmt.Sprintf("%s (%s", p.DisplayName, p.UserType)
	if p.Role != "" {
		s += ", " + p.Role
	}
	if p.BPCode != "" {
		s += ", BP " + p.BPCode
	}
	return s + ")"
}
