package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gofhir/terminologies/terminology"
)

func newSerializeCommand(a *app) *cobra.Command {
	var typeModifier, region, regionModifier string
	var noResolve bool

	cmd := &cobra.Command{
		Use:   "serialize <category> <type>",
		Short: "Build a serialized entry from codes",
		Long: `Build a serialized entry from codes of the selected terminology and
anatomic context. Codes are resolved so that the serialized entry carries the
code meanings of the dictionaries; use --no-resolve to skip the lookup.`,
		Example: `  terminologies serialize SCT:123037004 SCT:64033007 --modifier SCT:7771000 --region SCT:64033007`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.entryFromArgs(args[0], args[1], typeModifier, region, regionModifier)
			if err != nil {
				return err
			}
			if !noResolve {
				r, err := a.logic.Store().ResolveEntry(e)
				if err != nil {
					return err
				}
				e = r.Entry
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), terminology.SerializeEntry(e))
			return err
		},
	}

	cmd.Flags().StringVar(&typeModifier, "modifier", "", "Type modifier code (SCHEME:VALUE)")
	cmd.Flags().StringVar(&region, "region", "", "Anatomic region code (SCHEME:VALUE)")
	cmd.Flags().StringVar(&regionModifier, "region-modifier", "", "Anatomic region modifier code (SCHEME:VALUE)")
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "Serialize the codes without looking them up")
	return cmd
}

func (a *app) entryFromArgs(category, typ, typeModifier, region, regionModifier string) (terminology.Entry, error) {
	var e terminology.Entry
	var err error
	e.TerminologyContextName = a.cfg.Terminology
	if e.Category, err = parseCode(category); err != nil {
		return e, err
	}
	if e.Type, err = parseCode(typ); err != nil {
		return e, err
	}
	if e.TypeModifier, err = parseOptionalCode(typeModifier); err != nil {
		return e, err
	}
	if e.AnatomicRegion, err = parseOptionalCode(region); err != nil {
		return e, err
	}
	if e.AnatomicRegionModifier, err = parseOptionalCode(regionModifier); err != nil {
		return e, err
	}
	if e.AnatomicRegion != nil {
		e.AnatomicContextName = a.cfg.AnatomicContext
	}
	return e, e.Validate()
}

func newDeserializeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deserialize <entry>",
		Short: "Split a serialized entry into its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := terminology.Deserialize(args[0])
			if err != nil {
				return err
			}
			rows := []table.Row{
				{"Terminology", f.TerminologyContextName, "", ""},
				{"Category", f.CategoryScheme, f.CategoryValue, f.CategoryMeaning},
				{"Type", f.TypeScheme, f.TypeValue, f.TypeMeaning},
				{"Modifier", f.ModifierScheme, f.ModifierValue, f.ModifierMeaning},
				{"Anatomic context", f.AnatomicContextName, "", ""},
				{"Region", f.RegionScheme, f.RegionValue, f.RegionMeaning},
				{"Region modifier", f.RegionModifierScheme, f.RegionModifierValue, f.RegionModifierMeaning},
			}
			return render(cmd.OutOrStdout(), a.cfg.Output, table.Row{"Level", "Scheme / Name", "Value", "Meaning"}, rows, f)
		},
	}
}

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <entry>",
		Short: "Resolve every level of a serialized entry against the loaded dictionaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.logic.ResolveSerialized(args[0])
			if err != nil {
				return err
			}
			if a.cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), terminology.FieldsOf(r.Entry))
			}

			var rows []table.Row
			add := func(level string, n *terminology.Node) {
				if n == nil {
					return
				}
				rows = append(rows, table.Row{level, n.ID.String(), n.SlicerLabel, colorString(n.RecommendedColor)})
			}
			add("Category", r.Category)
			add("Type", r.Type)
			add("Modifier", r.TypeModifier)
			add("Region", r.Region)
			add("Region modifier", r.RegionModifier)
			if err := render(cmd.OutOrStdout(), a.cfg.Output, table.Row{"Level", "Code", "Label", "Color"}, rows, nil); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "show anatomy: %s\n", boolString(r.Category.ShowAnatomy))
			return err
		},
	}
}

func newInfoCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <entry>",
		Short: "Print a human readable description of a serialized entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := terminology.DeserializeEntry(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), terminology.InfoString(e))
			return err
		},
	}
}

func newEqualCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "equal <entry> <entry>",
		Short: "Compare two serialized entries by code identity",
		Long: `Compare two serialized entries by code identity. Context names and code
meanings are ignored. Prints "true" or "false".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			equal, err := terminology.EntriesEqualString(args[0], args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), boolString(equal))
			return err
		},
	}
}
