package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// Source yields normalized catalog entries from some backing store.
type Source interface {
	Load(ctx context.Context) ([]entity.ServiceCatalogEntry, error)
}

// NewFileSource picks a source implementation from the file extension.
func NewFileSource(path string, logger *slog.Logger) (Source, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedCatalogExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ext == "json" {
		return &JSONSource{Path: path, Log: logger}, nil
	}
	return &XLSXSource{Path: path, Log: logger}, nil
}

// XLSXSource reads the published services workbook. Expected columns on the
// first sheet: id, name, link, summary, ministry, year, target, category,
// with a header row.
type XLSXSource struct {
	Path string
	Log  *slog.Logger
}

func (s *XLSXSource) Load(ctx context.Context) ([]entity.ServiceCatalogEntry, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.Log.Warn("catalog.xlsx.close_error", "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}

	var (
		entries []entity.ServiceCatalogEntry
		skipped int
	)
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := RawServiceRow{
			ID:       cell(row, 0),
			Name:     cell(row, 1),
			Link:     cell(row, 2),
			Summary:  cell(row, 3),
			Ministry: cell(row, 4),
			Year:     cell(row, 5),
			Target:   cell(row, 6),
			Category: cell(row, 7),
		}
		entry, err := NormalizeRow(raw, i+1)
		if err != nil {
			skipped++
			s.Log.Warn("catalog.xlsx.row_skipped", "row", i+2, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	s.Log.Info("catalog.xlsx.read", "path", s.Path, "rows", len(entries), "skipped", skipped)
	return entries, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// JSONSource reads a JSON array of raw rows.
type JSONSource struct {
	Path string
	Log  *slog.Logger
}

func (s *JSONSource) Load(ctx context.Context) ([]entity.ServiceCatalogEntry, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var raws []RawServiceRow
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}

	var (
		entries []entity.ServiceCatalogEntry
		skipped int
	)
	for i, raw := range raws {
		entry, err := NormalizeRow(raw, i+1)
		if err != nil {
			skipped++
			s.Log.Warn("catalog.json.row_skipped", "index", i, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	s.Log.Info("catalog.json.read", "path", s.Path, "rows", len(entries), "skipped", skipped)
	return entries, nil
}
