// Package export writes the values a page shows as JSON, CSV or XLSX.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/pages"
)

// Supported formats.
const (
	JSON = "json"
	CSV  = "csv"
	XLSX = "xlsx"
)

// Formats lists the supported formats.
var Formats = []string{JSON, CSV, XLSX}

// Document is the JSON export of one page.
type Document struct {
	Page       string            `json:"page"`
	Title      string            `json:"title"`
	Origin     dataset.Origin    `json:"origin,omitempty"`
	Selections map[string]string `json:"selections,omitempty"`
	Message    string            `json:"message,omitempty"`
	Records    []pages.Record    `json:"records"`
}

// Filename is the default file name for a page export.
func Filename(page, format string) string {
	return page + "_data." + format
}

// Write exports the values p shows in state s to w.
func Write(w io.Writer, format string, p pages.Page, s filter.State) error {
	records := pages.Table(p, s)
	switch strings.ToLower(format) {
	case JSON:
		d := p.Describe(s)
		return writeJSON(w, Document{
			Page:       d.Page,
			Title:      d.Title,
			Origin:     d.Origin,
			Selections: s.Selections(),
			Message:    d.Message,
			Records:    records,
		})
	case CSV:
		return writeCSV(w, records)
	case XLSX:
		return writeXLSX(w, p.ID(), records)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// Save exports p to dir under its default file name and returns the path.
func Save(dir, format string, p pages.Page, s filter.State) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "export: create %s", dir)
	}
	path := filepath.Join(dir, Filename(p.ID(), strings.ToLower(format)))
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	if err := Write(f, format, p, s); err != nil {
		return "", err
	}
	zap.L().Info("exported page", zap.String("page", p.ID()), zap.String("path", path))
	return path, nil
}

func writeJSON(w io.Writer, doc Document) error {
	if doc.Records == nil {
		doc.Records = []pages.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

func writeCSV(w io.Writer, records []pages.Record) error {
	if len(records) == 0 {
		header, err := csvutil.Header(pages.Record{}, "csv")
		if err != nil {
			return eris.Wrap(err, "export: csv header")
		}
		if _, err := io.WriteString(w, strings.Join(header, ",")+"\n"); err != nil {
			return eris.Wrap(err, "export: write csv")
		}
		return nil
	}
	data, err := csvutil.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "export: encode csv")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	return nil
}

func writeXLSX(w io.Writer, sheetName string, records []pages.Record) error {
	header, err := csvutil.Header(pages.Record{}, "csv")
	if err != nil {
		return eris.Wrap(err, "export: xlsx header")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Page)
		row.AddCell().SetString(r.Key)
		row.AddCell().SetString(r.Label)
		row.AddCell().SetString(r.Point)
		row.AddCell().SetString(r.Measure)
		cell := row.AddCell()
		if r.Value.Valid {
			cell.SetFloat(r.Value.Value)
		}
		row.AddCell().SetString(r.Text)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
