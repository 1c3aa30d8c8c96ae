package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/phpdave11/gofpdf"

	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
)

// PDFRenderer writes a printable version of the run report
type PDFRenderer struct {
	logger *slog.Logger
}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer(logger *slog.Logger) *PDFRenderer {
	return &PDFRenderer{logger: infrastructure.WithComponent(logger, "pdf_report")}
}

// Render builds the PDF document in memory
func (r *PDFRenderer) Render(s Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Uber Fares Analysis", false)
	pdf.SetAuthor("uberfares", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "UBER FARES DATASET ANALYSIS")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Run ID    : "+s.RunID)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated : "+s.GeneratedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Input     : "+s.InputFile)
	pdf.Ln(10)

	if s.Cleaning != nil {
		heading(pdf, "Data Cleaning")
		rows := [][]string{}
		for _, st := range s.Cleaning.Steps {
			rows = append(rows, []string{st.Name, strconv.Itoa(st.RowsBefore), strconv.Itoa(st.RowsAfter), strconv.Itoa(st.Removed)})
		}
		grid(pdf, []string{"Step", "Before", "After", "Removed"}, []float64{70, 35, 35, 35}, rows)

		summary := [][]string{}
		for _, row := range s.CleaningSummary() {
			summary = append(summary, []string{row.Label, row.Value})
		}
		grid(pdf, []string{"Metric", "Value"}, []float64{70, 50}, summary)
	}

	if a := s.Analysis; a != nil {
		heading(pdf, "Descriptive Statistics")
		grid(pdf, []string{"Statistic", "Fare Amount", "Distance (km)"}, []float64{50, 50, 50}, [][]string{
			{"Mean", money(a.FareStats.Mean), num(a.DistanceStats.Mean, 2)},
			{"Median", money(a.FareStats.Median), num(a.DistanceStats.Median, 2)},
			{"Std Dev", money(a.FareStats.Std), num(a.DistanceStats.Std, 2)},
			{"Min", money(a.FareStats.Min), num(a.DistanceStats.Min, 2)},
			{"Max", money(a.FareStats.Max), num(a.DistanceStats.Max, 2)},
		})

		heading(pdf, "Time Periods")
		rows := [][]string{}
		for _, e := range a.TimePeriods.Entries {
			rows = append(rows, []string{e.Value, strconv.Itoa(e.Count), percent(e.Percent)})
		}
		grid(pdf, []string{"Period", "Trips", "Share"}, []float64{50, 40, 40}, rows)

		heading(pdf, s.busiestHeading("Top %d Busiest Hours"))
		rows = rows[:0]
		for _, h := range a.BusiestHours {
			rows = append(rows, []string{fmt.Sprintf("%02d:00", h.Hour), strconv.Itoa(h.Count)})
		}
		grid(pdf, []string{"Hour", "Trips"}, []float64{40, 40}, rows)

		heading(pdf, "Correlation with Fare Amount")
		rows = rows[:0]
		for _, c := range a.FareCorrelations {
			rows = append(rows, []string{c.Column, num(c.Value, 4)})
		}
		grid(pdf, []string{"Column", "Correlation"}, []float64{70, 40}, rows)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Distances are great-circle distances between pickup and dropoff. Fares outside the IQR fences were removed before analysis.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewWriteError("export", "", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report to path
func (r *PDFRenderer) WriteFile(s Summary, path string) error {
	data, err := r.Render(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewWriteError("export", path, err)
	}
	r.logger.Info("PDF report written", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func grid(pdf *gofpdf.Fpdf, header []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)
}
