package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

const loginTimeout = 5 * time.Minute

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Discord",
		Long: `Sign in with Discord.

Prints a login URL to open in a browser and waits for the server to hand the
session token back to a local callback. The token is kept in the cache file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
			defer cancel()

			sess, err := a.sessions.Login(ctx, a.profile.APIURL, func(loginURL string) error {
				_, err := fmt.Fprintf(a.out, "Open this URL to sign in:\n\n  %s\n\n", loginURL)
				return err
			})
			if err != nil {
				return err
			}
			a.renderer.Success(fmt.Sprintf("Signed in as %s (%s)", sess.User.Username, sess.User.Role))
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if token, err := a.sessions.AccessToken(cmd.Context()); err == nil && token != "" {
				if err := a.api.SignOut(cmd.Context()); err != nil {
					slog.Warn("Server did not revoke the session token", "error", err)
				}
			}
			if err := a.sessions.SignOut(cmd.Context()); err != nil {
				return err
			}
			a.renderer.Success("Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			sess, err := a.sessions.GetSession(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				a.renderer.ShowMessage("Not signed in.")
				return nil
			}
			a.renderer.ShowMessage(fmt.Sprintf("%s (%s), Discord ID %s", sess.User.Username, sess.User.Role, sess.User.DiscordID))
			return nil
		},
	}
}
