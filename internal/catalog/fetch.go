package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Source identifies one tabular dataset. Path takes precedence over URL so a
// local file can override the hosted sheet during development.
type Source struct {
	Name    string
	SheetID string // hosted spreadsheet document ID
	Sheet   string // tab name, empty for the default tab
	Path    string // local .csv or .xlsx file
}

// ExportURL builds the CSV export URL for a hosted sheet.
func (s Source) ExportURL() string {
	u := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv", s.SheetID)
	if s.Sheet != "" {
		u += "&sheet=" + url.QueryEscape(s.Sheet)
	}
	return u
}

// Fetcher retrieves the raw cell grid for a source.
type Fetcher interface {
	Rows(ctx context.Context, src Source) ([][]string, error)
}

// HTTPFetcher pulls the CSV export of a hosted sheet.
type HTTPFetcher struct {
	client *http.Client
	logger *logrus.Logger
}

func NewHTTPFetcher(logger *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (f *HTTPFetcher) Rows(ctx context.Context, src Source) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", src.ExportURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet %s returned status %d", src.Name, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV for %s: %w", src.Name, err)
	}

	f.logger.WithFields(logrus.Fields{
		"source": src.Name,
		"rows":   len(rows),
	}).Info("Sheet fetched")

	return rows, nil
}

// FileFetcher reads a local .csv or .xlsx file.
type FileFetcher struct {
	logger *logrus.Logger
}

func NewFileFetcher(logger *logrus.Logger) *FileFetcher {
	return &FileFetcher{logger: logger}
}

func (f *FileFetcher) Rows(ctx context.Context, src Source) ([][]string, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".xlsx":
		rows, err = readWorkbook(src.Path, src.Sheet)
	default:
		rows, err = readCSVFile(src.Path)
	}
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"source": src.Name,
		"path":   src.Path,
		"rows":   len(rows),
	}).Info("Local dataset loaded")

	return rows, nil
}

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer wb.Close()

	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q from %s: %w", sheet, path, err)
	}
	return rows, nil
}

// autoFetcher routes to the file fetcher when a local path is configured,
// otherwise to the HTTP fetcher.
type autoFetcher struct {
	http *HTTPFetcher
	file *FileFetcher
}

// NewFetcher returns the default fetcher used by the loader.
func NewFetcher(logger *logrus.Logger) Fetcher {
	return &autoFetcher{
		http: NewHTTPFetcher(logger),
		file: NewFileFetcher(logger),
	}
}

func (f *autoFetcher) Rows(ctx context.Context, src Source) ([][]string, error) {
	if src.Path != "" {
		return f.file.Rows(ctx, src)
	}
	return f.http.Rows(ctx, src)
}
