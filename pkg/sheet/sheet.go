// Package sheet reads uploaded .xlsx/.csv files into a header + rows table
// and writes result tables as .xlsx workbooks.
package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
	ErrEmpty             = errors.New("file has no header row")
)

// PreviewLimit caps sample values returned by Preview.
const PreviewLimit = 100

// Table is the parsed content of the first sheet. Every row is padded to the
// header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ColumnPreview is a header with the value found in the first data row.
type ColumnPreview struct {
	Name   string `json:"name"`
	Sample string `json:"sample"`
}

type options struct {
	linkHeaders []string
}

// Option configures Parse.
type Option func(*options)

// WithHyperlinks makes Parse return the hyperlink target instead of the
// display text for cells under the named headers (case-insensitive).
func WithHyperlinks(headers ...string) Option {
	return func(o *options) { o.linkHeaders = append(o.linkHeaders, headers...) }
}

// Parse reads filename's content from r. The format is picked by extension.
func Parse(filename string, r io.Reader, opts ...Option) (*Table, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(r, o)
	case ".csv":
		return parseCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseXLSX(r io.Reader, o options) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	t, err := newTable(rows)
	if err != nil {
		return nil, err
	}

	for _, h := range o.linkHeaders {
		col := t.Column(h)
		if col < 0 {
			continue
		}
		for i := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			ok, target, err := f.GetCellHyperLink(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("read hyperlink %s: %w", cell, err)
			}
			if ok && target != "" {
				t.Rows[i][col] = target
			}
		}
	}
	return t, nil
}

func parseCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	// Excel prefixes UTF-8 exports with a BOM.
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	first, _ := br.Peek(4096)
	line, _, _ := bytes.Cut(first, []byte("\n"))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return newTable(rows)
}

func newTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) == 0 {
		return nil, ErrEmpty
	}

	t := &Table{Headers: headers, Rows: make([][]string, 0, len(rows)-1)}
	for _, raw := range rows[1:] {
		if isBlank(raw) {
			continue
		}
		row := make([]string, len(headers))
		copy(row, raw)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Column returns the index of the header equal to name, ignoring case and
// surrounding space, or -1.
func (t *Table) Column(name string) int {
	want := foldHeader(name)
	for i, h := range t.Headers {
		if foldHeader(h) == want {
			return i
		}
	}
	return -1
}

// Value returns the trimmed cell of row at col, or "" when col is -1.
func (t *Table) Value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Preview lists each header with its first-row sample, truncated to
// PreviewLimit characters.
func (t *Table) Preview() []ColumnPreview {
	out := make([]ColumnPreview, len(t.Headers))
	for i, h := range t.Headers {
		var sample string
		if len(t.Rows) > 0 {
			sample = truncate(t.Rows[0][i], PreviewLimit)
		}
		out[i] = ColumnPreview{Name: h, Sample: sample}
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// foldHeader lower-cases with Turkish dotted/dotless I folded to plain i so
// "Barkod", "BARKOD" and "barkod" all match.
func foldHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("İ", "i", "I", "i", "ı", "i").Replace(s)
	return strings.ToLower(s)
}
