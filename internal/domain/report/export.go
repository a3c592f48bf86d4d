package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/feastline/backoffice/internal/domain/order"
)

// Export configuration errors. Both are fatal: a broken template is an
// operator mistake, not a condition to retry.
var (
	ErrTemplateMissing = errors.New("report template missing")
	ErrTemplateLayout  = errors.New("report template layout mismatch")
)

// exportSheet and the cell coordinates below are fixed by the template
// workbook: an overview block on rows 2-5 and one detail row per day on rows
// 8-37. The export writes only values, never structure.
const (
	exportSheet    = "Sheet1"
	exportDays     = 30
	detailFirstRow = 8
	dateLayout     = "2006-01-02"
)

// BusinessDataProvider supplies the overview metrics for a time range.
// *Service implements it.
type BusinessDataProvider interface {
	BusinessData(ctx context.Context, tr order.TimeRange) (*BusinessData, error)
}

// Exporter projects a trailing 30-day aggregation window into the template
// workbook.
type Exporter struct {
	reports      BusinessDataProvider
	templatePath string
	now          func() time.Time
}

// NewExporter creates an Exporter reading the template from templatePath.
func NewExporter(reports BusinessDataProvider, templatePath string) *Exporter {
	return &Exporter{
		reports:      reports,
		templatePath: templatePath,
		now:          time.Now,
	}
}

// ExportLast30Days fills the template with the window [today-30, today-1],
// thirty full days ending yesterday, and writes the resulting workbook to w.
func (e *Exporter) ExportLast30Days(ctx context.Context, w io.Writer) error {
	today := e.now()
	begin := today.AddDate(0, 0, -exportDays)
	end := today.AddDate(0, 0, -1)

	overview, err := e.reports.BusinessData(ctx, WindowBucket(begin, end))
	if err != nil {
		return errors.Wrap(err, "overview metrics")
	}

	f, err := excelize.OpenFile(e.templatePath)
	if err != nil {
		return errors.Wrap(ErrTemplateMissing, err.Error())
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(exportSheet); err != nil || idx < 0 {
		return errors.Wrap(ErrTemplateLayout, "sheet "+exportSheet+" not found")
	}

	sw := &sheetWriter{f: f}
	sw.set("B2", fmt.Sprintf("Period: %s to %s", begin.Format(dateLayout), end.Format(dateLayout)))

	sw.set("C4", overview.Turnover.InexactFloat64())
	sw.set("E4", overview.CompletionRate)
	sw.set("G4", overview.NewUsers)
	sw.set("C5", overview.ValidOrderCount)
	sw.set("E5", overview.UnitPrice.InexactFloat64())

	for i, d := range DateRange(begin, end) {
		daily, err := e.reports.BusinessData(ctx, DayBucket(d))
		if err != nil {
			return errors.Wrapf(err, "metrics for %s", d.Format(dateLayout))
		}

		row := detailFirstRow + i
		sw.set(cell("B", row), d.Format(dateLayout))
		sw.set(cell("C", row), daily.Turnover.InexactFloat64())
		sw.set(cell("D", row), daily.ValidOrderCount)
		sw.set(cell("E", row), daily.CompletionRate)
		sw.set(cell("F", row), daily.UnitPrice.InexactFloat64())
		sw.set(cell("G", row), daily.NewUsers)
	}
	if sw.err != nil {
		return errors.Wrap(ErrTemplateLayout, sw.err.Error())
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sheetWriter sets cell values and keeps the first error.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (sw *sheetWriter) set(cellRef string, v any) {
	if sw.err != nil {
		return
	}
	sw.err = sw.f.SetCellValue(exportSheet, cellRef, v)
}
