package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/moderation"
	"github.com/osse101/opitemdb/internal/store"
)

func moderateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderate",
		Short: "Review pending items (moderators only)",
	}
	cmd.AddCommand(
		pendingCmd(),
		actionCmd("publish", "Publish a pending item", (*moderation.Panel).Publish),
		actionCmd("reject", "Reject and delete a pending item", (*moderation.Panel).Reject),
		diffCmd(),
		watchCmd(),
	)
	return cmd
}

// openPanel requires a moderator session and opens the pending-items panel
func openPanel(cmd *cobra.Command, a *app) (*moderation.Panel, error) {
	user, err := a.sessions.RequireUser(cmd.Context())
	if err != nil {
		return nil, err
	}
	if !user.IsModerator() {
		return nil, fmt.Errorf("%w: %s is not a moderator", domain.ErrForbidden, user.Username)
	}
	return moderation.NewPanel(a.api, a.renderer, a.renderer, a.queryConfig()), nil
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List items awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			panel, err := openPanel(cmd, a)
			if err != nil {
				return err
			}
			return renderPending(cmd, a, panel)
		},
	}
}

// renderPending opens the panel and prints the first settled snapshot
func renderPending(cmd *cobra.Command, a *app, panel *moderation.Panel) error {
	unbind := a.renderer.Bind(panel.Store())
	defer unbind()
	panel.Open(cmd.Context())
	defer panel.Close()
	if panel.Store().Snapshot().Status == store.StatusError {
		return errListFailed
	}
	return nil
}

func actionCmd(use, short string, action func(*moderation.Panel, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ITEM_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			a := appFrom(cmd)
			panel, err := openPanel(cmd, a)
			if err != nil {
				return err
			}
			if err := action(panel, cmd.Context(), id); err != nil {
				return errActionFailed
			}
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff ITEM_ID",
		Short: "Show what changed between the two newest versions of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			a := appFrom(cmd)
			panel, err := openPanel(cmd, a)
			if err != nil {
				return err
			}
			res, err := panel.Diff(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.renderer.RenderDiff(res)
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "List pending items and reload whenever items change",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			panel, err := openPanel(cmd, a)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			unbind := a.renderer.Bind(panel.Store())
			defer unbind()
			panel.Open(ctx)
			defer panel.Close()

			events := a.api.Events(
				domain.EventItemCreated,
				domain.EventItemPublished,
				domain.EventItemRejected,
				domain.EventItemUpdated,
			).Run(ctx)
			panel.Watch(ctx, events)
			return nil
		},
	}
}

func parseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid item ID %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}
