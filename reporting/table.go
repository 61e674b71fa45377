package reporting

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// ProblemTableFormatter renders the records that did not pass or skip
type ProblemTableFormatter struct {
	title string
}

// NewProblemTableFormatter creates a new formatter with the given table title
func NewProblemTableFormatter(title string) *ProblemTableFormatter {
	return &ProblemTableFormatter{title: title}
}

// Problems filters records down to FAILED, ERROR and HANG rows, keeping order
func Problems(records []types.ResultRecord) []types.ResultRecord {
	var out []types.ResultRecord
	for _, r := range records {
		if r.Result == string(types.OutcomePassed) || r.Result == string(types.OutcomeSkipped) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Format returns the table, or "" when every record passed or skipped
func (f *ProblemTableFormatter) Format(records []types.ResultRecord) string {
	problems := Problems(records)
	if len(problems) == 0 {
		return ""
	}

	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(f.title)
	t.AppendHeader(table.Row{"#", "COMMAND", "RESULT"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "COMMAND", WidthMax: 200, WidthMaxEnforcer: text.WrapSoft},
	})
	for i, r := range problems {
		t.AppendRow(table.Row{i + 1, r.Command, r.Result})
	}
	t.AppendFooter(table.Row{"", "TOTAL", len(problems)})
	t.SetStyle(table.StyleDefault)
	t.Render()
	return buf.String()
}

// Print writes the table to w when there is anything to show
func (f *ProblemTableFormatter) Print(w io.Writer, records []types.ResultRecord) error {
	content := f.Format(records)
	if content == "" {
		return nil
	}
	_, err := fmt.Fprint(w, content)
	return err
}
