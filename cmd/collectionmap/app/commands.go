package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/collectionmap/cmd/collectionmap/cmd/imports"
	"github.com/agentstation/collectionmap/cmd/collectionmap/cmd/list"
	"github.com/agentstation/collectionmap/cmd/collectionmap/cmd/serve"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	serveCmd := serve.NewCommand(a)
	serveCmd.GroupID = "core"
	importCmd := imports.NewCommand(a)
	importCmd.GroupID = "core"
	rootCmd.AddCommand(serveCmd, importCmd)

	institutionsCmd := list.NewInstitutionsCommand(a)
	institutionsCmd.GroupID = "catalog"
	collectionsCmd := list.NewCollectionsCommand(a)
	collectionsCmd.GroupID = "catalog"
	rootCmd.AddCommand(institutionsCmd, collectionsCmd)

	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("collectionmap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
