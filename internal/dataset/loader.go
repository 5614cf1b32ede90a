// Package dataset reads catalog files from disk and turns them into raw
// catalog rows. It knows about file formats and column names; validation
// and normalization belong to the catalog package.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/metrics"
)

// Loader handles loading of catalog files
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.datasetPath
}

// Load loads every row from a dataset file (CSV, JSONL or Parquet)
func (l *Loader) Load() ([]catalog.Row, error) {
	return l.LoadSample(-1)
}

// LoadSample loads at most limit rows; a negative limit loads everything.
func (l *Loader) LoadSample(limit int) ([]catalog.Row, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	switch ext {
	case ".csv":
		return l.loadCSV(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	case ".parquet":
		return l.loadParquet(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .jsonl, .parquet)", ext)
	}
}

// LoadCatalog loads the file and builds a catalog from it.
func (l *Loader) LoadCatalog() (*catalog.Catalog, error) {
	rows, err := l.Load()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog from %s: %w", l.datasetPath, err)
	}
	metrics.CatalogBooks.Set(float64(cat.Len()))
	slog.Info("Catalog loaded", "path", l.datasetPath, "books", cat.Len())
	return cat, nil
}

func done(rows []catalog.Row, limit int) bool {
	return limit >= 0 && len(rows) >= limit
}

// loadCSV loads rows from a CSV file with a header row
func (l *Loader) loadCSV(limit int) ([]catalog.Row, error) {
	slog.Debug("Opening CSV file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []catalog.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// catalog field -> column position; unknown columns are ignored
	fields := resolveColumns(header)
	slog.Debug("CSV header mapped", "columns", len(header), "mapped", len(fields))

	var rows []catalog.Row
	lineNum := 1
	for !done(rows, limit) {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV at line %d: %w", lineNum, err)
		}

		row := make(catalog.Row, len(fields))
		for field, i := range fields {
			if i < len(record) {
				row[field] = record[i]
			} else {
				row[field] = ""
			}
		}
		rows = append(rows, row)

		if len(rows)%1000 == 0 {
			slog.Debug("Reading CSV", "rows_read", len(rows))
		}
	}

	slog.Debug("Finished reading CSV file", "total_rows", len(rows))
	return rows, nil
}

// loadJSONL loads rows from a file holding one JSON object per line
func (l *Loader) loadJSONL(limit int) ([]catalog.Row, error) {
	slog.Debug("Opening JSONL file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	// Increase buffer size for long descriptions
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	var rows []catalog.Row
	lineNum := 0
	for !done(rows, limit) && scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var object map[string]any
		if err := json.Unmarshal(line, &object); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		columns := slices.Sorted(maps.Keys(object))
		row := make(catalog.Row, len(columnAliases))
		for field, i := range resolveColumns(columns) {
			row[field] = stringify(object[columns[i]])
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_rows", len(rows), "total_lines", lineNum)
	return rows, nil
}

// stringify renders a decoded JSON value the way a CSV cell would hold it.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ", ")
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// parquetBook is the Parquet row layout. Genres are stored as a delimited
// string, matching the CSV export.
type parquetBook struct {
	ID          int64  `parquet:"id,optional"`
	Title       string `parquet:"title"`
	Description string `parquet:"description,optional"`
	Genres      string `parquet:"genres,optional"`
}

// loadParquet loads rows from a Parquet file
func (l *Loader) loadParquet(limit int) ([]catalog.Row, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	// Only columns present in the file become row fields, so a file missing
	// a required column is rejected by the catalog.
	present := make(map[string]bool)
	for _, field := range []string{catalog.FieldID, catalog.FieldTitle, catalog.FieldDescription, catalog.FieldGenres} {
		if _, ok := pf.Schema().Lookup(field); ok {
			present[field] = true
		}
	}

	reader := parquet.NewGenericReader[parquetBook](pf)
	defer reader.Close()

	var rows []catalog.Row
	batch := make([]parquetBook, 128) // Read in batches
	batchNum := 0

	for !done(rows, limit) {
		n, err := reader.Read(batch)
		if n > 0 {
			batchNum++
			if limit >= 0 && n > limit-len(rows) {
				n = limit - len(rows)
			}
			for _, b := range batch[:n] {
				rows = append(rows, b.row(present))
			}
			slog.Debug("Read batch from Parquet", "batch", batchNum, "rows_in_batch", n, "total_rows_read", len(rows))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_rows", len(rows), "total_batches", batchNum)
	return rows, nil
}

func (b parquetBook) row(present map[string]bool) catalog.Row {
	row := make(catalog.Row, len(present))
	if present[catalog.FieldID] {
		row[catalog.FieldID] = strconv.FormatInt(b.ID, 10)
	}
	if present[catalog.FieldTitle] {
		row[catalog.FieldTitle] = b.Title
	}
	if present[catalog.FieldDescription] {
		row[catalog.FieldDescription] = b.Description
	}
	if present[catalog.FieldGenres] {
		row[catalog.FieldGenres] = b.Genres
	}
	return row
}
