package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/WagnerMushayija/momo-summative/internal/aggregate"
	"github.com/WagnerMushayija/momo-summative/internal/source"
	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// Summary classifies a backup without writing documents and reports
// per-category statistics, optionally exported as CSV and/or PNG.
func (a *App) Summary(ctx context.Context, opts SummaryOptions) error {
	p, closer, err := a.newPipeline(ctx, opts.Workers, false, nil)
	if err != nil {
		return err
	}
	defer closer()

	messages, err := source.Load(ctx, opts.Source)
	if err != nil {
		return err
	}
	report, err := p.Process(ctx, messages)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int("parsed", report.Parsed).
		Int("processed", report.Processed).
		Int("dropped", report.Dropped).
		Msg("summary computed")

	writeSummaryTable(a, report.Summaries, aggregate.OverviewOf(report.Records))
	if opts.Monthly {
		writeMonthlyTable(a, aggregate.Monthly(report.Records))
	}

	if opts.CSVPath != "" {
		if err := writeSummaryCSV(opts.CSVPath, report.Summaries); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeSummaryPNG(opts.PNGPath, report.Summaries, a.Config.Export.ChartWidth, a.Config.Export.ChartHeight); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaryTable(a *App, summaries []transaction.Summary, overview aggregate.Overview) {
	if len(summaries) == 0 {
		fmt.Fprintln(a.Out, "no transactions found")
		return
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Category\tCount\tTotal\tMin\tMax\tAverage")
	for _, s := range summaries {
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Category,
			s.Count,
			formatDecimal(s.Total, 2),
			formatDecimal(s.Min, 2),
			formatDecimal(s.Max, 2),
			formatDecimal(s.Average, 2),
		)
	}
	writer.Flush()

	fmt.Fprintf(a.Out, "\nincome %s  expenses %s  net %s  uncategorized %s\n",
		formatDecimal(overview.Income, 2),
		formatDecimal(overview.Expenses, 2),
		formatDecimal(overview.Net, 2),
		formatDecimal(overview.Uncategorized, 2),
	)
}

func writeMonthlyTable(a *App, months []aggregate.MonthlyTotal) {
	if len(months) == 0 {
		return
	}
	fmt.Fprintln(a.Out)
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Month\tCount\tTotal")
	for _, m := range months {
		fmt.Fprintf(writer, "%04d-%02d\t%d\t%s\n", m.Year, int(m.Month), m.Count, formatDecimal(m.Total, 2))
	}
	writer.Flush()
}

func writeSummaryCSV(path string, summaries []transaction.Summary) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"category", "count", "total", "min", "max", "average"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, s := range summaries {
		record := []string{
			string(s.Category),
			strconv.Itoa(s.Count),
			s.Total.String(),
			s.Min.String(),
			s.Max.String(),
			s.Average.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeSummaryPNG(path string, summaries []transaction.Summary, width, height int) error {
	bars := make([]chart.Value, 0, len(summaries))
	peak := 0.0
	for _, s := range summaries {
		v := s.Total.InexactFloat64()
		if v > peak {
			peak = v
		}
		bars = append(bars, chart.Value{Label: s.Category.Slug(), Value: v})
	}
	if peak <= 0 {
		return errors.New("nothing to chart: every category total is zero")
	}

	if err := ensureDir(path); err != nil {
		return err
	}

	amountFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.BarChart{
		Title:    "Totals by category (RWF)",
		Width:    width,
		Height:   height,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: peak},
			ValueFormatter: amountFormatter,
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
