// Command kioskctl is the operator's shell companion to the kiosk server:
// catalog dumps, order triage and option grid previews against the same
// backend the kiosk talks to.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kioskpos/internal/client"
	"kioskpos/internal/config"
)

var (
	cfg        config.Config
	apiURL     string
	apiTimeout time.Duration
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kioskctl",
		Short:         "Operate a kiosk backend from the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api", cfg.APIBaseURL, "backend base URL")
	root.PersistentFlags().DurationVar(&apiTimeout, "timeout", cfg.APITimeout, "backend call timeout")

	root.AddCommand(newCombosCmd(), newCatalogCmd(), newOrdersCmd(), newSessionsCmd())
	return root
}

func backend() *client.Client { return client.New(apiURL, apiTimeout) }

func main() {
	cfg = config.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kioskctl:", err)
		os.Exit(1)
	}
}
