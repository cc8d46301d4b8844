package journal

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

type runView struct {
	Run
	Rows []TradeRecord
}

var orgFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "(created?)"
		}
		return t.UTC().Format("2006-01-02 Mon 15:04")
	},
	"upper": strings.ToUpper,
	"short": shortID,
}

var runOrg = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders a run and its trades as an Org-mode entry: structured
// facts in a PROPERTIES drawer, the trades as a table, and empty sections for
// the review.
func FormatRunOrg(run Run, trades []TradeRecord) (string, error) {
	var buf bytes.Buffer
	if err := runOrg.Execute(&buf, runView{Run: run, Rows: trades}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

const RunOrgTemplate = `* REBALANCE: {{.Mode}} ({{short .RunID}})
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:MODE:        {{.Mode}}
:TOTAL_VALUE: {{money .TotalValue}}
:CASH:        {{money .Cash}}
:BUYS:        {{money .Buys}}
:SELLS:       {{money .Sells}}
:TRADES:      {{.Trades}}
:VIOLATIONS:  {{.Violations}}
:FLAGGED:     {{.Flagged}}
:CREATED:     [{{stamp .Created}}]
:END:
{{- if .Notes}}

{{.Notes}}
{{- end}}

** Trades
{{- if .Rows}}
| # | Account | Action | Ticker | Amount | Reason |
|---+---------+--------+--------+--------+--------|
{{- range .Rows}}
| {{.Seq}} | {{.AccountID}} | {{upper .Direction}} | {{.Ticker}} | {{money .Amount}} | {{.Reason}} |
{{- end}}
{{- else}}
- No trades.
{{- end}}

** Execution
- 

** Review
- 
`
