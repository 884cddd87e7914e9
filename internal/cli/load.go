package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gofhir/terminologies/loader"
)

func newDescriptorCommand(a *app) *cobra.Command {
	var anatomic bool

	cmd := &cobra.Command{
		Use:   "merge-descriptor <context-name> <file>",
		Short: "Merge the codes of a segmentation descriptor into a context",
		Long: `Merge the category, type and type modifier codes referenced by a dcmqi
segmentation descriptor into the named terminology, or with --anatomic the
region codes into the named anatomic context, then list the result.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			store := a.logic.Store()
			if anatomic {
				if err := a.logic.LoadAnatomicContextFromSegmentDescriptorFile(name, path); err != nil {
					return err
				}
				ids, err := store.Regions(name)
				if err != nil {
					return err
				}
				return renderCodes(cmd.OutOrStdout(), a.cfg.Output, ids)
			}
			if err := a.logic.LoadTerminologyFromSegmentDescriptorFile(name, path); err != nil {
				return err
			}
			ids, err := store.Categories(name)
			if err != nil {
				return err
			}
			return renderCodes(cmd.OutOrStdout(), a.cfg.Output, ids)
		},
	}
	cmd.Flags().BoolVar(&anatomic, "anatomic", false, "Merge anatomic region codes instead")
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the user contexts directory whenever a dictionary changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := a.logic.Watch(ctx, func(stats *loader.Stats) {
				for _, f := range stats.Files {
					if f.Err != nil {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "failed %s: %v\n", f.Path, f.Err)
						continue
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reloaded %s %q from %s\n", f.Kind, f.Name, f.Path)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print load and cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := a.logic.Metrics()
			if m == nil {
				return errors.New("metrics are disabled")
			}
			values := m.Export()
			cache := a.logic.Store().CacheStats()
			values["cache_size"] = cache.Size
			values["cache_capacity"] = cache.Capacity
			values["generation"] = a.logic.Store().Generation()
			values["terminologies"] = len(a.logic.Store().TerminologyNames())
			values["anatomic_contexts"] = len(a.logic.Store().AnatomicContextNames())
			if a.cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), values)
			}

			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([]table.Row, len(keys))
			for i, k := range keys {
				rows[i] = table.Row{k, values[k]}
			}
			return render(cmd.OutOrStdout(), a.cfg.Output, table.Row{"Metric", "Value"}, rows, nil)
		},
	}
}
