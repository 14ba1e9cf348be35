package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// LoadError reports a missing or malformed dataset. It is fatal: callers
// surface it to the user and stop.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dataset: %v", e.Err)
	}
	return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Dataset is the parsed, read-only table
type Dataset struct {
	columns []Column
	rows    []Row
}

// New builds a dataset from already-typed rows. Columns must list every
// schema field plus the measure names used by the rows.
func New(columns []Column, rows []Row) *Dataset {
	return &Dataset{columns: columns, rows: rows}
}

// Len returns the number of rows
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns the rows in file order. The slice must not be modified.
func (d *Dataset) Rows() []Row { return d.rows }

// Columns returns the columns in header order
func (d *Dataset) Columns() []Column { return d.columns }

// Measures returns the names of numeric columns in header order
func (d *Dataset) Measures() []string {
	var out []string
	for _, c := range d.columns {
		if c.Kind == KindMeasure {
			out = append(out, c.Name)
		}
	}
	return out
}

// Load reads and parses the CSV at path, decoding it from the named charset
func Load(path, encoding string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	ds, err := Parse(f, encoding)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return ds, nil
}

// Parse reads a CSV stream. encoding is an IANA charset name such as
// "ISO-8859-1"; empty means the input is already UTF-8.
func Parse(r io.Reader, encoding string) (*Dataset, error) {
	if encoding != "" {
		enc, err := ianaindex.IANA.Encoding(encoding)
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("unknown encoding %q: %w", encoding, err)}
		}
		if enc == nil {
			return nil, &LoadError{Err: fmt.Errorf("unsupported encoding %q", encoding)}
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read header: %w", err)}
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	if err := checkHeader(header); err != nil {
		return nil, &LoadError{Err: err}
	}

	// Every record must match the header width (csv enforces it after the
	// first read when FieldsPerRecord is zero).
	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("read records: %w", err)}
		}
		records = append(records, rec)
	}

	columns := classifyColumns(header, records)

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		var row Row
		for i, col := range columns {
			val := strings.TrimSpace(rec[i])
			if col.Kind == KindMeasure {
				if val == "" {
					continue
				}
				// classifyColumns already proved every non-empty cell parses
				f, _ := strconv.ParseFloat(val, 64)
				if row.Measures == nil {
					row.Measures = make(map[string]float64)
				}
				row.Measures[col.Name] = f
				continue
			}
			row.set(col.Name, val)
		}
		rows = append(rows, row)
	}

	return &Dataset{columns: columns, rows: rows}, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return errors.New("header contains an empty column name")
		}
		if seen[h] {
			return fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
	}

	var missing []string
	for _, f := range RequiredFields {
		if !seen[string(f)] {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// classifyColumns marks a non-schema column as a measure when it has at
// least one value and every non-empty value parses as a number. Schema
// columns, Year included, always stay text.
func classifyColumns(header []string, records [][]string) []Column {
	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Kind: KindDimension}
		if IsField(Field(name)) {
			continue
		}

		numeric := false
		for _, rec := range records {
			val := strings.TrimSpace(rec[i])
			if val == "" {
				continue
			}
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			columns[i].Kind = KindMeasure
		}
	}
	return columns
}
