package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table yields rows of cells, header first.
type Table interface {
	Read() ([]string, error)
	Close() error
}

// Source locates one dataset.
type Source interface {
	Open(ctx context.Context) (Table, error)
	String() string
}

// Locate returns an HTTP source for http(s) locations and a file source
// otherwise. Relative paths are resolved against dir.
func Locate(dir, location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{URL: location}
	}
	if dir != "" && !filepath.IsAbs(location) {
		location = filepath.Join(dir, location)
	}
	return FileSource{Path: location}
}

// FileSource reads a local .csv or .xlsx file.
type FileSource struct {
	Path string
}

func (s FileSource) String() string { return s.Path }

func (s FileSource) Open(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isXLSX(s.Path) {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read xlsx")
		}
		return xlsxTable(data)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open file")
	}
	return newCSVTable(f), nil
}

// HTTPSource fetches a dataset over HTTP. A non-200 response is a retrieval
// failure.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) String() string { return s.URL }

func (s HTTPSource) Open(ctx context.Context) (Table, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: fetch")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, eris.Errorf("dataset: unexpected status %d", resp.StatusCode)
	}
	if isXLSX(s.URL) {
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read body")
		}
		return xlsxTable(data)
	}
	return newCSVTable(resp.Body), nil
}

func isXLSX(location string) bool {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	return strings.EqualFold(filepath.Ext(location), ".xlsx")
}

type csvTable struct {
	*csv.Reader
	io.Closer
}

func newCSVTable(rc io.ReadCloser) Table {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return csvTable{Reader: r, Closer: rc}
}

// rowsTable serves rows already held in memory.
type rowsTable struct {
	rows [][]string
	next int
}

func (t *rowsTable) Read() ([]string, error) {
	if t.next >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.next]
	t.next++
	return row, nil
}

func (t *rowsTable) Close() error { return nil }

// xlsxTable reads the first sheet of a workbook.
func xlsxTable(data []byte) (Table, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return &rowsTable{}, nil
	}
	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return &rowsTable{rows: rows}, nil
}

// Rows is a Source over in-memory rows, header first. It backs tests and
// datasets assembled by other commands.
type Rows [][]string

func (r Rows) String() string { return "memory" }

func (r Rows) Open(ctx context.Context) (Table, error) {
	return &rowsTable{rows: r}, nil
}
