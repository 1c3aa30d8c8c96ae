package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"uberfares/internal/dataprocessing"
)

// ConsoleRenderer prints the human-readable run report
type ConsoleRenderer struct {
	w io.Writer
}

// NewConsoleRenderer creates a renderer writing to w
func NewConsoleRenderer(w io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{w: w}
}

// Render prints every section of s in pipeline order
func (r *ConsoleRenderer) Render(s Summary) error {
	sections := []func(Summary) (string, error){
		r.header,
		r.profileSection,
		r.cleaningSection,
		r.statisticsSection,
		r.frequencySection,
		r.correlationSection,
		r.stagesSection,
		r.summarySection,
	}
	for _, section := range sections {
		out, err := section(s)
		if err != nil {
			return err
		}
		if out == "" {
			continue
		}
		if _, err := fmt.Fprint(r.w, out); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConsoleRenderer) header(s Summary) (string, error) {
	var b strings.Builder
	b.WriteString(pterm.DefaultHeader.WithFullWidth().Sprint("UBER FARES DATASET ANALYSIS"))
	b.WriteString("\n")
	b.WriteString(pterm.Sprintf("Run %s  input %s\n", s.RunID, s.InputFile))
	return b.String(), nil
}

func table(rows [][]string) (string, error) {
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
}

func section(title string) string {
	return pterm.DefaultSection.Sprint(title)
}

func (r *ConsoleRenderer) profileSection(s Summary) (string, error) {
	p := s.Profile
	if p == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(section("1. Data Overview"))
	b.WriteString(fmt.Sprintf("Dataset shape: (%d, %d)\n", p.Rows, p.Columns))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n\n", p.DuplicateRows))

	rows := [][]string{{"Column", "Type", "Missing", "Missing %", "Unique"}}
	for _, c := range p.ColumnInfo {
		rows = append(rows, []string{c.Name, c.DType, strconv.Itoa(c.Missing), num(c.MissingPercent, 2), strconv.Itoa(c.Unique)})
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	b.WriteString(t)
	b.WriteString("\n")

	if len(p.Sample) > 0 {
		sample := [][]string{p.SampleHeader}
		sample = append(sample, p.Sample...)
		t, err := table(sample)
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("First %d rows:\n", len(p.Sample)))
		b.WriteString(t)
		b.WriteString("\n")
	}

	if len(p.Describe) > 0 {
		rows := [][]string{{"Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}}
		for _, d := range p.Describe {
			rows = append(rows, []string{
				d.Column, strconv.Itoa(d.Count), num(d.Mean, 4), num(d.Std, 4), num(d.Min, 4),
				num(d.P25, 4), num(d.P50, 4), num(d.P75, 4), num(d.Max, 4),
			})
		}
		t, err := table(rows)
		if err != nil {
			return "", err
		}
		b.WriteString("Statistical summary:\n")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (r *ConsoleRenderer) cleaningSection(s Summary) (string, error) {
	c := s.Cleaning
	if c == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(section("2. Data Cleaning"))
	rows := [][]string{{"Step", "Description", "Before", "After", "Removed"}}
	for _, st := range c.Steps {
		rows = append(rows, []string{st.Name, st.Description, strconv.Itoa(st.RowsBefore), strconv.Itoa(st.RowsAfter), strconv.Itoa(st.Removed)})
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	b.WriteString(t)
	b.WriteString(fmt.Sprintf("\nFare bounds: %s to %s (IQR %s)\n", money(c.FareBounds.Lower), money(c.FareBounds.Upper), num(c.FareBounds.IQR, 2)))
	b.WriteString(fmt.Sprintf("Retention rate: %s\n", percent(c.RetentionRate())))
	return b.String(), nil
}

func (r *ConsoleRenderer) statisticsSection(s Summary) (string, error) {
	a := s.Analysis
	if a == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(section("3. Descriptive Statistics"))
	rows := [][]string{
		{"Statistic", "Fare Amount", "Trip Distance (km)"},
		{"Mean", money(a.FareStats.Mean), num(a.DistanceStats.Mean, 2)},
		{"Median", money(a.FareStats.Median), num(a.DistanceStats.Median, 2)},
		{"Std Dev", money(a.FareStats.Std), num(a.DistanceStats.Std, 2)},
		{"Min", money(a.FareStats.Min), num(a.DistanceStats.Min, 2)},
		{"Max", money(a.FareStats.Max), num(a.DistanceStats.Max, 2)},
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	b.WriteString(t)
	b.WriteString("\n")

	if a.Extent.HasPickup {
		p := a.Extent.Pickup
		b.WriteString(fmt.Sprintf("Pickup extent: lon %s..%s, lat %s..%s\n",
			num(p.Min.Lon(), 5), num(p.Max.Lon(), 5), num(p.Min.Lat(), 5), num(p.Max.Lat(), 5)))
	}
	return b.String(), nil
}

func frequencyRows(ft dataprocessing.FrequencyTable) [][]string {
	rows := [][]string{{ft.Column, "Count", "%"}}
	for _, e := range ft.Entries {
		rows = append(rows, []string{e.Value, strconv.Itoa(e.Count), num(e.Percent, 2)})
	}
	return rows
}

func (r *ConsoleRenderer) frequencySection(s Summary) (string, error) {
	a := s.Analysis
	if a == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(section("4. Distributions"))
	for _, ft := range []dataprocessing.FrequencyTable{a.PassengerCounts, a.TimePeriods, a.Seasons} {
		t, err := table(frequencyRows(ft))
		if err != nil {
			return "", err
		}
		b.WriteString(t)
		b.WriteString("\n")
	}

	rows := [][]string{{"Hour", "Trips"}}
	for _, h := range a.BusiestHours {
		rows = append(rows, []string{strconv.Itoa(h.Hour), strconv.Itoa(h.Count)})
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	b.WriteString(s.busiestHeading("Top %d busiest hours:\n"))
	b.WriteString(t)
	b.WriteString("\n")
	return b.String(), nil
}

func (r *ConsoleRenderer) correlationSection(s Summary) (string, error) {
	a := s.Analysis
	if a == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(section("5. Correlation with Fare Amount"))
	rows := [][]string{{"Column", "Correlation"}}
	for _, c := range a.FareCorrelations {
		rows = append(rows, []string{c.Column, num(c.Value, 4)})
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	b.WriteString(t)
	b.WriteString("\n")
	return b.String(), nil
}

func (r *ConsoleRenderer) stagesSection(s Summary) (string, error) {
	if len(s.Stages) == 0 {
		return "", nil
	}

	rows := [][]string{{"Stage", "Rows In", "Rows Out", "Duration", "Status"}}
	for _, st := range s.Stages {
		rows = append(rows, []string{st.Name, strconv.Itoa(st.RowsIn), strconv.Itoa(st.RowsOut), st.Duration.Round(time.Microsecond).String(), st.Status})
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	return section("Pipeline Stages") + t + "\n", nil
}

func (r *ConsoleRenderer) summarySection(s Summary) (string, error) {
	if s.Cleaning == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(section("Data Cleaning Summary"))
	rows := [][]string{{"Metric", "Value"}}
	for _, row := range s.CleaningSummary() {
		rows = append(rows, []string{row.Label, row.Value})
	}
	t, err := table(rows)
	if err != nil {
		return "", err
	}
	b.WriteString(t)
	b.WriteString("\n")

	if s.Analysis != nil {
		b.WriteString(fmt.Sprintf("\nFinal dataset columns (%d):\n", len(s.Analysis.FinalColumns)))
		for i, col := range s.Analysis.FinalColumns {
			b.WriteString(fmt.Sprintf("%2d. %s\n", i+1, col))
		}
	}
	if s.OutputFile != "" {
		b.WriteString(pterm.Success.Sprintfln("Cleaned dataset saved as: %s", s.OutputFile))
	}
	return b.String(), nil
}
