package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/WagnerMushayija/momo-summative/internal/pipeline"
	"github.com/WagnerMushayija/momo-summative/internal/sink"
)

// Process runs one backup through the full pipeline and prints where each
// category went.
func (a *App) Process(ctx context.Context, opts ProcessOptions) error {
	svc, closeSvc, err := a.newService(ctx, opts.Workers, !opts.NoStore, nil)
	if err != nil {
		return err
	}
	defer closeSvc()

	report, err := svc.ProcessFile(ctx, opts.Source)
	if report != nil {
		a.printProcessReport(report)
	}
	return err
}

func (a *App) printProcessReport(report *pipeline.Report) {
	fmt.Fprintf(a.Out, "run %s: %d parsed, %d processed, %d dropped\n",
		report.RunID, report.Parsed, report.Processed, report.Dropped)

	if len(report.Written) == 0 {
		return
	}
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Category\tRecords\tDocument")
	for _, g := range report.Groups.Ordered() {
		n, ok := report.Written[g.Category]
		if !ok {
			continue
		}
		fmt.Fprintf(writer, "%s\t%d\t%s\n", g.Category, n, sink.DocumentName(g.Category))
	}
	writer.Flush()
}
