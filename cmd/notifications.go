package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/amverse/songbook/internal/shared"
)

// NotificationsList prints the user's notifications, unread first
// markers included.
func (r *Runner) NotificationsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	notifications, err := r.notify.ListNotifications(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(notifications, true)
	}

	if len(notifications) == 0 {
		return r.writePlainln("No notifications")
	}

	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}

	r.writePlainHeader(fmt.Sprintf("Notifications (%d unread)", unread))
	for _, n := range notifications {
		marker := " "
		if !n.Read {
			marker = "●"
		}
		r.writePlainln("%s [%s] %s (%s)", marker, n.Type, n.Message, n.ID)
		if n.Share != nil {
			r.writePlainln("    shared playlist: %s (%d songs)", n.Share.Name, len(n.Share.SongIDs))
		}
	}

	return nil
}

// NotificationsRead marks one notification as read.
func (r *Runner) NotificationsRead(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	notificationID := cmd.StringArg("id")
	if notificationID == "" {
		return fmt.Errorf("%w: notification id is required", shared.ErrMissingArgument)
	}

	if err := r.notify.MarkNotificationRead(ctx, notificationID); err != nil {
		return err
	}

	return r.writePlainln("✓ Marked %s as read", notificationID)
}

func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notifications",
		Usage: "View share notifications",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.NotificationsList,
			},
			{
				Name:      "read",
				Usage:     "Mark a notification as read",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.NotificationsRead,
			},
		},
	}
}
