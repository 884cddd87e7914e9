package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gofhir/terminologies/fhir"
	"github.com/gofhir/terminologies/terminology"
)

func newExportCommand(a *app) *cobra.Command {
	var noResolve bool

	cmd := &cobra.Command{
		Use:   "export-fhir <entry>",
		Short: "Export a serialized entry as a FHIR BodyStructure document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.entry(args[0], !noResolve)
			if err != nil {
				return err
			}
			data, err := fhir.Document(e)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, data, "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "Export the entry without looking it up")
	return cmd
}

// entry deserializes s and, when resolve is set, refreshes its code meanings
// from the loaded dictionaries.
func (a *app) entry(s string, resolve bool) (terminology.Entry, error) {
	if !resolve {
		return terminology.DeserializeEntry(s)
	}
	r, err := a.logic.ResolveSerialized(s)
	if err != nil {
		return terminology.Entry{}, err
	}
	return r.Entry, nil
}

func newFilterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <expression> <entry>...",
		Short: "Print the serialized entries whose FHIR export satisfies a FHIRPath expression",
		Example: `  # Entries with an anatomic region
  terminologies filter "location.exists()" "$ENTRY1" "$ENTRY2"

  # Entries of a given type
  terminologies filter "morphology.coding.where(code = '64033007').exists()" "$ENTRY"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := args[0]
			if err := a.logic.Matcher().Compile(expr); err != nil {
				return err
			}
			entries := make([]terminology.Entry, 0, len(args)-1)
			for _, s := range args[1:] {
				e, err := terminology.DeserializeEntry(s)
				if err != nil {
					return err
				}
				entries = append(entries, e)
			}
			matched, err := a.logic.FilterEntries(expr, entries)
			if err != nil {
				return err
			}
			for _, e := range matched {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), terminology.SerializeEntry(e)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
