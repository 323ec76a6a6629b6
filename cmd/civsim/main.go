// Command civsim runs civilization simulations from the terminal and mints
// operator tokens for the HTTP API.
package main

import (
	"fmt"
	"os"

	"civsim-server/internal/shared/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "civsim",
	Short:         "Interstellar civilization simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newRunCmd(), newTokenCmd())
}

// loadConfig reads .env when present and the environment, without
// publishing the global config.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
