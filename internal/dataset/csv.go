package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	pipeerrors "retaildq/internal/errors"
)

func missingColumn(table, column string) error {
	return pipeerrors.MissingColumn(table, column)
}

// Load reads a CSV snapshot into a Table. The first record is the
// header; rows with fewer fields than the header are padded with empty
// strings, longer rows are truncated. An unreadable or headerless file
// is a structural error for the table.
func Load(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeerrors.UnreadableFile(name, path, err)
	}
	defer f.Close()

	return Read(f, path, name)
}

// Read parses CSV content from r into a Table named name. The path is
// only used in error messages.
func Read(r io.Reader, path, name string) (*Table, error) {
	reader := csv.NewReader(r)
	// Real-world snapshots have ragged rows and sloppy quoting.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pipeerrors.UnreadableFile(name, path, fmt.Errorf("empty file: no header row"))
		}
		return nil, pipeerrors.UnreadableFile(name, path, fmt.Errorf("failed to read header: %w", err))
	}

	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	table := New(name, header...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pipeerrors.UnreadableFile(name, path, fmt.Errorf("failed to read record: %w", err))
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	slog.Debug("Loaded CSV snapshot",
		slog.String("table", name),
		slog.String("path", path),
		slog.Int("rows", table.Len()))

	return table, nil
}

// Store writes the table to a CSV file, creating parent directories as
// needed. A UTF-8 BOM is prepended so Excel opens the artifact
// correctly.
func Store(t *Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			record[j] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}
