package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"anonpair/backend/internal/models"

	"github.com/spf13/cobra"
)

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBDSN == "" {
		return errors.New("session archive is not configured (set DB_DSN or DB_HOST)")
	}

	store, err := openArchive(cfg.DBDSN)
	if err != nil {
		return err
	}
	rooms, err := store.ListRooms(cmd.Context(), activeOnly, sessionLimit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	return printRooms(cmd.OutOrStdout(), rooms)
}

func printRooms(out io.Writer, rooms []models.ChatRoom) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tUSERS\tSTARTED\tENDED\tMESSAGES\tREASON")
	for _, r := range rooms {
		ended := "-"
		if r.EndedAt != nil {
			ended = r.EndedAt.Format(time.DateTime)
		}
		reason := r.EndReason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, "%s\t%d,%d\t%s\t%s\t%d\t%s\n",
			r.RoomID, r.User1ID, r.User2ID, r.StartedAt.Format(time.DateTime), ended, r.Messages, reason)
	}
	return w.Flush()
}
