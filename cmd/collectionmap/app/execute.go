package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs the collectionmap CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "collectionmap",
		Short:   "Institution and collection catalog built from spreadsheets",
		Version: a.version,
		Long: `Collectionmap ingests CSV spreadsheets of institutions and their
collections. An upload is parsed and held for a limited time while a
column-to-field mapping is chosen; committing the mapping creates the
institutions and collections it names, reusing records that already
exist under the same normalized name.

The catalog is served over a REST API with a GeoJSON view for maps and a
realtime feed of upload events.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "catalog", Title: "Catalog Commands:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.collectionmap.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("store", a.config.Store, "catalog backend: memory, mongo")
	flags.String("snapshot-path", "", "YAML file the memory store loads and rewrites on commit")
	flags.String("mongo-uri", a.config.MongoURI, "MongoDB connection string (replica set required)")
	flags.String("mongo-database", a.config.MongoDatabase, "MongoDB database name")
	flags.Duration("upload-retention", a.config.UploadRetention, "how long an unmapped upload is kept")
	flags.Duration("upload-reap-interval", a.config.UploadReapInterval, "how often expired uploads are removed")
	flags.Int64("max-upload-bytes", a.config.MaxUploadBytes, "largest accepted upload in bytes")
	flags.Bool("strict-rows", false, "fail a commit on the first row missing a required value instead of skipping it")

	a.bindFlags(flags)

	rootCmd.SetVersionTemplate("collectionmap {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// bindFlags makes every persistent flag a viper key, with dashes as underscores.
func (a *App) bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := underscore(f.Name)
		if err := a.viper.BindPFlag(key, f); err != nil {
			panic("programming error: binding flag " + f.Name + ": " + err.Error())
		}
	})
}

// setupCommand reloads configuration once flags are parsed so that flag
// values take precedence over the environment and config file.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	config, err := LoadConfig(a.viper)
	if err != nil {
		return err
	}
	a.config = config

	logger := NewLogger(a.config)
	a.logger = &logger

	if a.config.ConfigFile != "" {
		a.logger.Debug().Str("file", a.config.ConfigFile).Msg("Using config file")
	}
	return nil
}

// ExitOnError prints err and exits with status 1. It does nothing for nil.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func underscore(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
