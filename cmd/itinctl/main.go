// Command itinctl is the operator CLI: it applies database migrations and
// probes the configured routing backend.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "itinctl",
	Short:        "Operator CLI for the itinerary planner",
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.AddCommand(newMigrateCmd(), newRouteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
