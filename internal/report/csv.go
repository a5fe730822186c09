package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const bom = "\uFEFF"

var (
	TimeHeader    = []string{"Vorname", "Nachname", "Erfasste Zeit", "Abrechenbar", "Nicht Abrechenbar", "Arbeitstage", "Fakuraquote", "Überstunden"}
	IllnessHeader = []string{"Mitarbeiter", "Krankheitstage", "Stunden"}
)

// comma formats d with a decimal comma. fixed < 0 keeps the shortest form.
func comma(d decimal.Decimal, fixed int32) string {
	s := d.String()
	if fixed >= 0 {
		s = d.StringFixed(fixed)
	}
	return strings.ReplaceAll(s, ".", ",")
}

func newWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := io.WriteString(w, bom); err != nil {
		return nil, fmt.Errorf("writing byte order mark: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true
	return cw, nil
}

// WriteTimeCSV writes the time report as semicolon separated values with a
// UTF-8 byte order mark and decimal commas.
func WriteTimeCSV(w io.Writer, rows []Row) error {
	cw, err := newWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(TimeHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(timeRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func timeRecord(r Row) []string {
	return []string{
		r.FirstName,
		r.LastName,
		comma(r.TotalHours, 2),
		comma(r.BillableHours, 2),
		comma(r.NonBillableHours, 2),
		comma(r.WorkingDays, 1),
		comma(r.BillableQuota, 2),
		comma(r.OvertimeHours, 2),
	}
}

func WriteIllnessCSV(w io.Writer, rows []IllnessRow) error {
	cw, err := newWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(IllnessHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Employee, strconv.Itoa(r.Days), strconv.Itoa(r.Hours)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveFile writes a report to path via a temp file and rename, so readers
// never observe a partial file.
func SaveFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming report file: %w", err)
	}
	return nil
}
