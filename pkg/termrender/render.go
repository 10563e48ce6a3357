// Package termrender prints page results as terminal tables.
package termrender

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/transform"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	kpiColor   = color.New(color.FgGreen, color.Bold)
	dimColor   = color.New(color.FgHiBlack)
)

// Options controls table output.
type Options struct {
	// MaxRows truncates long tables; 0 prints every row.
	MaxRows int
}

// Render writes the page header, one KPI table for all KPI cards, and one table per chart panel.
func Render(w io.Writer, res *pages.PageResult, opts Options) error {
	fmt.Fprintln(w, titleColor.Sprint(res.Title))
	fmt.Fprintln(w, dimColor.Sprintf("%s → %s, bucket %s, elapsed %s", res.Params.Start, res.Params.End, res.Params.Bucket, res.Elapsed))
	if len(res.Params.Filters) > 0 {
		fmt.Fprintln(w, dimColor.Sprintf("filters: %s", strings.Join(res.Params.Filters, ", ")))
	}
	fmt.Fprintln(w)

	var kpis []pages.Panel
	for _, p := range res.Panels {
		if p.Kind == pages.KPICard {
			kpis = append(kpis, p)
		}
	}
	if len(kpis) > 0 {
		if err := renderKPIs(w, kpis); err != nil {
			return err
		}
	}

	for _, p := range res.Panels {
		if p.Kind == pages.KPICard {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleColor.Sprint(p.Title), dimColor.Sprintf("[%s]", p.Kind))
		if p.Error != "" {
			fmt.Fprintln(w, errorColor.Sprintf("error (%s): %s", p.ErrorKind, p.Error))
			continue
		}
		if err := renderTable(w, p, opts); err != nil {
			return fmt.Errorf("render panel %s: %w", p.ID, err)
		}
	}

	if res.Failed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, errorColor.Sprintf("%d of %d panels failed", res.Failed, len(res.Panels)))
	}
	return nil
}

func renderKPIs(w io.Writer, kpis []pages.Panel) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, p := range kpis {
		value := errorColor.Sprint("error: " + p.ErrorKind)
		if p.Error == "" {
			value = kpiColor.Sprint(KPIValue(p))
		}
		data = append(data, []string{p.Title, value})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// KPIValue formats the first row of the panel's value column.
func KPIValue(p pages.Panel) string {
	if p.Table == nil || len(p.Table.Rows) == 0 {
		return "n/a"
	}
	idx := p.Table.ColumnIndex(p.Options.Value)
	if idx < 0 {
		return "n/a"
	}
	s := FormatNumber(transform.Float(p.Table.Rows[0][idx]), p.Options.Format)
	if p.Options.Unit != "" {
		s += " " + p.Options.Unit
	}
	return s
}

func renderTable(w io.Writer, p pages.Panel, opts Options) error {
	t := p.Table
	table := tablewriter.NewWriter(w)
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Name
	}
	table.Header(headers)

	rows := t.Rows
	truncated := 0
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		truncated = len(rows) - opts.MaxRows
		rows = rows[:opts.MaxRows]
	}

	var data [][]string
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(t.Columns[i], v, p.Options)
		}
		data = append(data, cells)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if truncated > 0 {
		fmt.Fprintln(w, dimColor.Sprintf("… %d more rows", truncated))
	}
	return nil
}

func formatCell(col warehouse.Column, v any, opts pages.ChartOptions) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case time.Time:
		return x.UTC().Format("2006-01-02")
	}
	f := transform.Float(v)
	switch {
	case strings.HasSuffix(col.Name, "_pct"):
		return FormatNumber(f, pages.FormatPercent)
	case strings.HasSuffix(col.Name, "_usd"):
		return FormatNumber(f, pages.FormatUSD)
	case strings.HasPrefix(col.BaseType(), "UInt"), strings.HasPrefix(col.BaseType(), "Int"):
		return FormatNumber(f, pages.FormatCount)
	}
	return FormatNumber(f, opts.Format)
}

// FormatNumber renders f for a display format: counts and USD with thousands separators,
// percent and decimal with two places.
func FormatNumber(f float64, format string) string {
	switch format {
	case pages.FormatUSD:
		return "$" + groupThousands(int64(math.Round(f)))
	case pages.FormatCount:
		return groupThousands(int64(math.Round(f)))
	case pages.FormatPercent:
		return strconv.FormatFloat(f, 'f', 2, 64) + "%"
	default:
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
