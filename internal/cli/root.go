// Package cli provides the command-line interface for terminologies.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gofhir/terminologies"
	"github.com/gofhir/terminologies/internal/config"
	"github.com/gofhir/terminologies/pkg/logger"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	logic   *terminologies.Logic
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "terminologies",
		Short: "Browse and resolve coded terminology entries",
		Long: `terminologies loads segmentation category/type dictionaries and anatomic
context dictionaries, then resolves, searches, compares and serializes
coded entries against them.

The embedded default dictionaries are loaded first, followed by every
*.json file of the user contexts directory.`,
		Version: terminologies.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip loading for help and completion commands
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./terminologies.yaml)")
	flags.String("user-contexts", "", "Directory of user dictionaries loaded after the defaults")
	flags.Bool("no-defaults", false, "Do not load the embedded default dictionaries")
	flags.StringP("terminology", "t", "", "Terminology context name")
	flags.StringP("anatomic", "a", "", "Anatomic context name")
	flags.StringSlice("preferred-terminologies", nil, "Terminologies searched by 'contexts', in order")
	flags.StringSlice("preferred-anatomic-contexts", nil, "Anatomic contexts searched by 'contexts', in order")
	flags.Int("search-cache-size", 0, "Number of cached search results (0 disables the cache)")
	flags.Int("concurrency", 0, "Number of dictionary files parsed at once")
	flags.String("log-level", "", "Log level (debug|info|warn|error|none)")
	flags.String("log-format", "", "Log format (console|json)")
	flags.StringP("output", "o", "", "Output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newVersionCommand(),
		newListCommand(a),
		newCategoriesCommand(a),
		newTypesCommand(a),
		newModifiersCommand(a),
		newRegionsCommand(a),
		newRegionModifiersCommand(a),
		newLabelCommand(a),
		newContextsCommand(a),
		newSerializeCommand(a),
		newDeserializeCommand(a),
		newResolveCommand(a),
		newInfoCommand(a),
		newEqualCommand(a),
		newExportCommand(a),
		newFilterCommand(a),
		newDescriptorCommand(a),
		newWatchCommand(a),
		newStatsCommand(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.NewLogger(cmd.ErrOrStderr())
	if cfg.FileUsed != "" {
		a.log.Debug("using config file %s", cfg.FileUsed)
	}

	logic, err := terminologies.New(cmd.Context(), cfg.LogicOptions(a.log)...)
	if err != nil {
		return fmt.Errorf("failed to load dictionaries: %w", err)
	}
	a.logic = logic
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "terminologies %s\n", terminologies.Version)
			return err
		},
	}
}
