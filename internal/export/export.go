// Package export writes scored leads as a terminal table, CSV, JSON, or an
// XLSX workbook.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-scorer/internal/model"
)

// Format selects an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want table, csv, json, or xlsx)", s)
	}
}

// row is the flat shape written to CSV and XLSX.
type row struct {
	Rank          int      `csv:"rank"`
	ID            string   `csv:"id"`
	Name          string   `csv:"name"`
	Score         int      `csv:"score"`
	Priority      string   `csv:"priority"`
	Industry      string   `csv:"industry"`
	Country       string   `csv:"country"`
	State         string   `csv:"state"`
	EmployeeCount *int     `csv:"employee_count"`
	RevenueUSD    string   `csv:"revenue_usd"`
	Email         *string  `csv:"email"`
	Phone         *string  `csv:"phone"`
	LinkedIn      *string  `csv:"linkedin"`
	GrowjoRank    *int     `csv:"growjo_rank"`
	Hiring        *bool    `csv:"hiring"`
}

var rowHeader = []string{
	"rank", "id", "name", "score", "priority", "industry", "country", "state",
	"employee_count", "revenue_usd", "email", "phone", "linkedin", "growjo_rank", "hiring",
}

func toRows(results []model.ScoredLead) []row {
	rows := make([]row, len(results))
	for i, r := range results {
		rows[i] = row{
			Rank:          i + 1,
			ID:            r.ID,
			Name:          r.Name,
			Score:         r.Score,
			Priority:      string(r.Priority),
			Industry:      r.Industry,
			Country:       r.Country,
			State:         r.State,
			EmployeeCount: r.EmployeeCount,
			RevenueUSD:    plainFloat(r.RevenueUSD),
			Email:         r.Email,
			Phone:         r.Phone,
			LinkedIn:      r.LinkedIn,
			GrowjoRank:    r.GrowjoRank,
			Hiring:        r.Hiring,
		}
	}
	return rows
}

// Write encodes results to w in the given format, preserving their order.
func Write(w io.Writer, format Format, results []model.ScoredLead) error {
	switch format {
	case FormatTable, "":
		return writeTable(w, results)
	case FormatCSV:
		return writeCSV(w, results)
	case FormatJSON:
		return writeJSON(w, results)
	case FormatXLSX:
		return writeXLSX(w, results)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

func writeTable(out io.Writer, results []model.ScoredLead) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tSCORE\tPRIORITY\tNAME\tINDUSTRY\tLOCATION\tEMPLOYEES\tREVENUE")
	for i, r := range results {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			r.Score,
			r.Priority,
			truncate(r.Name, 40),
			dash(r.Industry),
			dash(location(r.Lead)),
			formatInt(r.EmployeeCount),
			formatMoney(r.RevenueUSD),
		)
	}
	return eris.Wrap(w.Flush(), "export: write table")
}

func writeCSV(out io.Writer, results []model.ScoredLead) error {
	cw := csv.NewWriter(out)
	enc := csvutil.NewEncoder(cw)
	if len(results) == 0 {
		if err := cw.Write(rowHeader); err != nil {
			return eris.Wrap(err, "export: write csv header")
		}
	}
	for _, r := range toRows(results) {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "export: encode csv row %s", r.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func writeJSON(out io.Writer, results []model.ScoredLead) error {
	if results == nil {
		results = []model.ScoredLead{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(results), "export: encode json")
}

func writeXLSX(out io.Writer, results []model.ScoredLead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Scored Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range rowHeader {
		header.AddCell().SetString(h)
	}

	for i, r := range results {
		x := sheet.AddRow()
		x.AddCell().SetInt(i + 1)
		x.AddCell().SetString(r.ID)
		x.AddCell().SetString(r.Name)
		x.AddCell().SetInt(r.Score)
		x.AddCell().SetString(string(r.Priority))
		x.AddCell().SetString(r.Industry)
		x.AddCell().SetString(r.Country)
		x.AddCell().SetString(r.State)
		optInt(x.AddCell(), r.EmployeeCount)
		if r.RevenueUSD != nil {
			x.AddCell().SetFloat(*r.RevenueUSD)
		} else {
			x.AddCell()
		}
		x.AddCell().SetString(deref(r.Email))
		x.AddCell().SetString(deref(r.Phone))
		x.AddCell().SetString(deref(r.LinkedIn))
		optInt(x.AddCell(), r.GrowjoRank)
		if r.Hiring != nil {
			x.AddCell().SetBool(*r.Hiring)
		} else {
			x.AddCell()
		}
	}

	return eris.Wrap(f.Write(out), "export: write xlsx")
}

// WriteSummary prints a one-line tier breakdown.
func WriteSummary(w io.Writer, results []model.ScoredLead) error {
	c := model.CountTiers(results)
	_, err := fmt.Fprintf(w, "%d leads: %d Hot, %d Warm, %d Cold\n", len(results), c.Hot, c.Warm, c.Cold)
	return err
}

// plainFloat formats without exponent notation; nil is blank.
func plainFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optInt(c *xlsx.Cell, v *int) {
	if v != nil {
		c.SetInt(*v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func location(l model.Lead) string {
	switch {
	case l.State != "" && l.Country != "":
		return l.State + ", " + l.Country
	case l.Country != "":
		return l.Country
	default:
		return l.State
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// formatMoney renders revenue compactly: $950K, $12.5M, $1.2B.
func formatMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	x := *v
	switch {
	case x >= 1e9:
		return fmt.Sprintf("$%.1fB", x/1e9)
	case x >= 1e6:
		return fmt.Sprintf("$%.1fM", x/1e6)
	case x >= 1e3:
		return fmt.Sprintf("$%.0fK", x/1e3)
	default:
		return fmt.Sprintf("$%.0f", x)
	}
}
