package records

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptySheet is returned when the source has no header row.
var ErrEmptySheet = errors.New("participant sheet is empty")

// Options tunes how a source is read.
type Options struct {
	// Sheet selects the worksheet of a workbook; empty means the active one.
	Sheet string
	// DefaultTrainer is used when the formateur column is absent or empty.
	DefaultTrainer string
}

func (o *Options) defaults() {
	if o.DefaultTrainer == "" {
		o.DefaultTrainer = DefaultTrainer
	}
}

// Sheet is a parsed participant source.
type Sheet struct {
	Columns      []string
	participants []Participant
	rejected     []*RowError
}

// Participants returns the valid rows in source order.
func (s *Sheet) Participants() []Participant {
	return s.participants
}

// Rejected returns the rows skipped because a field was empty.
func (s *Sheet) Rejected() []*RowError {
	return s.rejected
}

// Load reads a participant source, choosing the parser by file extension
// (.xlsx, .xlsm or .csv).
func Load(path string, opts Options) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open participants: %w", err)
	}
	defer f.Close()

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(f, opts.Sheet)
	case ".csv":
		rows, err = readCSV(f)
	default:
		return nil, fmt.Errorf("unsupported participant file format: %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return Parse(rows[0], rows[1:], opts)
}

func readWorkbook(r io.Reader, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if sheet == "" {
		sheet = wb.GetSheetName(wb.GetActiveSheetIndex())
	}
	found := false
	for _, name := range wb.GetSheetList() {
		if name == sheet {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("worksheet %q not found (available: %s)", sheet, strings.Join(wb.GetSheetList(), ", "))
	}
	return wb.GetRows(sheet)
}

// readCSV accepts both "," and ";" separated exports (the latter is what
// French-locale spreadsheet tools write).
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	firstLine := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		firstLine = head[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// Parse maps raw rows onto participants. Header names match ignoring case,
// accents and surrounding spaces. A missing required column rejects the
// whole source; an empty field only rejects its row.
func Parse(header []string, rows [][]string, opts Options) (*Sheet, error) {
	opts.defaults()

	index := make(map[string]int, len(header))
	for i, h := range header {
		k := columnKey(h)
		if _, dup := index[k]; !dup && k != "" {
			index[k] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[columnKey(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	s := &Sheet{Columns: header}
	cell := func(row []string, col string) string {
		i, ok := index[columnKey(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for i, row := range rows {
		if blank(row) {
			continue
		}
		p := Participant{
			Row:       i + 2,
			LastName:  cell(row, ColumnLastName),
			FirstName: cell(row, ColumnFirstName),
			Email:     cell(row, ColumnEmail),
			SessionID: cell(row, ColumnSession),
			Course:    cell(row, ColumnCourse),
			Trainer:   cell(row, ColumnTrainer),
		}
		if p.Trainer == "" {
			p.Trainer = opts.DefaultTrainer
		}
		if err := p.Validate(); err != nil {
			s.rejected = append(s.rejected, &RowError{Participant: p, Err: err})
			continue
		}
		s.participants = append(s.participants, p)
	}
	return s, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func columnKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}
