package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gofhir/terminologies/terminology"
)

// render writes v as JSON, or header and rows as a table.
func render(w io.Writer, format string, header table.Row, rows []table.Row, v any) error {
	if format == "json" {
		return renderJSON(w, v)
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var codeHeader = table.Row{"#", "Scheme", "Value", "Meaning"}

func codeRows(ids []terminology.CodeIdentifier) []table.Row {
	rows := make([]table.Row, len(ids))
	for i, id := range ids {
		rows[i] = table.Row{i, id.CodingSchemeDesignator, id.CodeValue, id.CodeMeaning}
	}
	return rows
}

func renderCodes(w io.Writer, format string, ids []terminology.CodeIdentifier) error {
	if ids == nil {
		ids = []terminology.CodeIdentifier{}
	}
	return render(w, format, codeHeader, codeRows(ids), ids)
}

// parseCode parses "scheme:value". The code meaning is left empty.
func parseCode(s string) (terminology.CodeIdentifier, error) {
	scheme, value, ok := strings.Cut(s, ":")
	if !ok || scheme == "" || value == "" {
		return terminology.CodeIdentifier{}, fmt.Errorf("invalid code %q (want SCHEME:VALUE, e.g. SCT:85756007)", s)
	}
	return terminology.NewCodeIdentifier(scheme, value, ""), nil
}

func parseOptionalCode(s string) (*terminology.CodeIdentifier, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseCode(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func colorString(c *terminology.Color) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}
