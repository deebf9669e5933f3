package main // Entry point package

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the sunapee command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sunapee",
		Short:         "Sunapee Sound community backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
		NewConsumeCommand(),
		NewPromoteAdminCommand(),
	)
	return root
}
