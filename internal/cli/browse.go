package cli

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gofhir/terminologies/dictionaries"
	"github.com/gofhir/terminologies/terminology"
)

// contextSummary is one row of the list command.
type contextSummary struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// embeddedFile is one row of list --embedded.
type embeddedFile struct {
	Namespace string `json:"namespace"`
	File      string `json:"file"`
}

func newListCommand(a *app) *cobra.Command {
	var embedded bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded terminologies and anatomic contexts",
		Example: `  # Contexts currently loaded
  terminologies list

  # Dictionary files compiled into the binary
  terminologies list --embedded`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if embedded {
				return listEmbedded(cmd, a.cfg.Output)
			}
			store := a.logic.Store()
			var summaries []contextSummary
			for _, name := range store.TerminologyNames() {
				n, _ := store.NumberOfCategories(name)
				summaries = append(summaries, contextSummary{Kind: terminology.KindTerminology.String(), Name: name, Count: n})
			}
			for _, name := range store.AnatomicContextNames() {
				n, _ := store.NumberOfRegions(name)
				summaries = append(summaries, contextSummary{Kind: terminology.KindAnatomic.String(), Name: name, Count: n})
			}

			rows := make([]table.Row, len(summaries))
			for i, s := range summaries {
				rows[i] = table.Row{s.Kind, s.Name, s.Count}
			}
			if summaries == nil {
				summaries = []contextSummary{}
			}
			return render(cmd.OutOrStdout(), a.cfg.Output, table.Row{"Kind", "Name", "Top-level codes"}, rows, summaries)
		},
	}
	cmd.Flags().BoolVar(&embedded, "embedded", false, "list the dictionary files embedded in the binary instead")
	return cmd
}

func listEmbedded(cmd *cobra.Command, format string) error {
	files := []embeddedFile{}
	for _, ns := range []dictionaries.Namespace{dictionaries.Terminology, dictionaries.Anatomic} {
		names, err := dictionaries.ListFiles(ns)
		if err != nil {
			return err
		}
		for _, name := range names {
			files = append(files, embeddedFile{Namespace: string(ns), File: name})
		}
	}
	rows := make([]table.Row, len(files))
	for i, f := range files {
		rows[i] = table.Row{f.Namespace, f.File}
	}
	return render(cmd.OutOrStdout(), format, table.Row{"Namespace", "File"}, rows, files)
}

func optionalQuery(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func newCategoriesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories [query]",
		Short: "List or search the categories of a terminology",
		Example: `  # All categories of the default terminology
  terminologies categories

  # Categories whose name contains "tiss"
  terminologies categories tiss`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.logic.Store().FindCategories(a.cfg.Terminology, optionalQuery(args, 0))
			if err != nil {
				return err
			}
			return renderCodes(cmd.OutOrStdout(), a.cfg.Output, ids)
		},
	}
}

// typeSummary is one row of the types command.
type typeSummary struct {
	terminology.CodeIdentifier
	SlicerLabel string `json:"slicerLabel,omitempty"`
	Color       string `json:"color,omitempty"`
	Modifiers   int    `json:"modifiers"`
}

func newTypesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "types <category> [query]",
		Short:   "List or search the types of a category",
		Example: `  terminologies types SCT:85756007 art`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCode(args[0])
			if err != nil {
				return err
			}
			_, nodes, err := a.logic.Store().FindTypesWithNodes(a.cfg.Terminology, category, optionalQuery(args, 1))
			if err != nil {
				return err
			}

			summaries := make([]typeSummary, len(nodes))
			rows := make([]table.Row, len(nodes))
			for i, n := range nodes {
				summaries[i] = typeSummary{
					CodeIdentifier: n.ID,
					SlicerLabel:    n.SlicerLabel,
					Color:          colorString(n.RecommendedColor),
					Modifiers:      len(n.Children),
				}
				rows[i] = table.Row{i, n.ID.CodingSchemeDesignator, n.ID.CodeValue, n.ID.CodeMeaning,
					n.SlicerLabel, summaries[i].Color, len(n.Children)}
			}
			header := table.Row{"#", "Scheme", "Value", "Meaning", "Label", "Color", "Modifiers"}
			return render(cmd.OutOrStdout(), a.cfg.Output, header, rows, summaries)
		},
	}
}

func newModifiersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "modifiers <category> <type> [query]",
		Short:   "List or search the modifiers of a type",
		Example: `  terminologies modifiers SCT:85756007 SCT:51114001`,
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCode(args[0])
			if err != nil {
				return err
			}
			typ, err := parseCode(args[1])
			if err != nil {
				return err
			}
			ids, err := a.logic.Store().FindTypeModifiers(a.cfg.Terminology, category, typ, optionalQuery(args, 2))
			if err != nil {
				return err
			}
			return renderCodes(cmd.OutOrStdout(), a.cfg.Output, ids)
		},
	}
}

func newRegionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regions [query]",
		Short: "List or search the regions of an anatomic context",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.logic.Store().FindRegions(a.cfg.AnatomicContext, optionalQuery(args, 0))
			if err != nil {
				return err
			}
			return renderCodes(cmd.OutOrStdout(), a.cfg.Output, ids)
		},
	}
}

func newRegionModifiersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "region-modifiers <region> [query]",
		Short: "List or search the modifiers of an anatomic region",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := parseCode(args[0])
			if err != nil {
				return err
			}
			ids, err := a.logic.Store().FindRegionModifiers(a.cfg.AnatomicContext, region, optionalQuery(args, 1))
			if err != nil {
				return err
			}
			return renderCodes(cmd.OutOrStdout(), a.cfg.Output, ids)
		},
	}
}

func newLabelCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "label <label>",
		Short: "Find the type carrying a 3D Slicer label and print its serialized entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.logic.Store().FindTypeBySlicerLabel(a.cfg.Terminology, args[0])
			if err != nil {
				return err
			}
			if a.cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), terminology.FieldsOf(e))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), terminology.SerializeEntry(e))
			return err
		},
	}
}

func newContextsCommand(a *app) *cobra.Command {
	var category, typ, modifier, region, regionModifier string

	cmd := &cobra.Command{
		Use:   "contexts",
		Short: "Find the contexts containing a code combination",
		Long: `Find the terminologies containing a category, type and optional modifier,
or the anatomic contexts containing a region and optional region modifier.
The preferred contexts from the configuration restrict and order the search.`,
		Example: `  terminologies contexts --category SCT:85756007 --type SCT:51114001 --modifier SCT:7771000
  terminologies contexts --region SCT:64033007`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var names []string
			switch {
			case category != "" || typ != "":
				c, err := parseCode(category)
				if err != nil {
					return err
				}
				t, err := parseCode(typ)
				if err != nil {
					return err
				}
				m, err := parseOptionalCode(modifier)
				if err != nil {
					return err
				}
				names = a.logic.FindTerminologyNames(c, t, m)
			case region != "":
				r, err := parseCode(region)
				if err != nil {
					return err
				}
				m, err := parseOptionalCode(regionModifier)
				if err != nil {
					return err
				}
				names = a.logic.FindAnatomicContextNames(r, m)
			default:
				return errors.New("either --category and --type, or --region is required")
			}

			rows := make([]table.Row, len(names))
			for i, n := range names {
				rows[i] = table.Row{i, n}
			}
			if names == nil {
				names = []string{}
			}
			return render(cmd.OutOrStdout(), a.cfg.Output, table.Row{"#", "Context"}, rows, names)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category code (SCHEME:VALUE)")
	cmd.Flags().StringVar(&typ, "type", "", "Type code (SCHEME:VALUE)")
	cmd.Flags().StringVar(&modifier, "modifier", "", "Type modifier code (SCHEME:VALUE)")
	cmd.Flags().StringVar(&region, "region", "", "Anatomic region code (SCHEME:VALUE)")
	cmd.Flags().StringVar(&regionModifier, "region-modifier", "", "Anatomic region modifier code (SCHEME:VALUE)")
	return cmd
}
