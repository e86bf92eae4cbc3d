package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kioskpos/internal/repos"
)

func newSessionsCmd() *cobra.Command {
	var idle time.Duration
	sessions := &cobra.Command{Use: "sessions", Short: "Maintain the local kiosk session store"}
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Drop kiosk sessions idle for longer than --idle",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := repos.NewSessionRepo(db).PurgeIdle(time.Now().Add(-idle))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d sessions\n", n)
			return nil
		},
	}
	purge.Flags().DurationVar(&idle, "idle", cfg.SessionIdle, "idle age to purge")
	sessions.AddCommand(purge)
	return sessions
}
