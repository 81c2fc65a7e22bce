package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cinelog/cinelog-engine/pkg/models"
)

// Column names of a Letterboxd watched-movies export.
const (
	columnSourceURI = "Letterboxd URI"
	columnName      = "Name"
	columnYear      = "Year"
	columnDate      = "Date"
)

// watchDateLayout is the date format used in export files.
const watchDateLayout = "2006-01-02"

// FailedRow is one row that could not be imported, kept verbatim so the
// operator can inspect and resubmit it.
type FailedRow struct {
	Index int               `json:"index"`
	Raw   map[string]string `json:"raw"`
}

// CSVImportSummary aggregates the outcome of one batch run.
type CSVImportSummary struct {
	Processed int
	Failed    []FailedRow
}

// CSVImportService drives the import pipeline over a CSV export file.
type CSVImportService interface {
	// Run streams the file through the import pipeline row by row. A
	// single row's failure never aborts processing of subsequent rows;
	// failing rows are collected in the summary. Run returns an error
	// only when the file itself cannot be processed at all.
	Run(ctx context.Context, path string) (*CSVImportSummary, error)
}

// csvImportService implements CSVImportService.
type csvImportService struct {
	importer ImportService
	logger   *zap.Logger
}

// NewCSVImportService creates a new CSV batch driver.
func NewCSVImportService(importer ImportService, logger *zap.Logger) CSVImportService {
	return &csvImportService{
		importer: importer,
		logger:   logger.Named("csv-importer"),
	}
}

// Run imports every row of the file at path.
func (s *csvImportService) Run(ctx context.Context, path string) (*CSVImportSummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("file is a directory: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".csv") {
		s.logger.Warn("File doesn't seem to be a CSV file", zap.String("path", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	s.logger.Info("Importing file", zap.String("path", path))

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	summary := &CSVImportSummary{}

	for index := 1; ; index++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Error("Error reading row", zap.Int("row", index), zap.Error(err))
			summary.Processed++
			summary.Failed = append(summary.Failed, FailedRow{Index: index, Raw: rawRow(header, record)})
			continue
		}

		summary.Processed++
		raw := rawRow(header, record)
		s.logger.Debug("Processing row", zap.Int("row", index))

		req, err := parseRow(columns, record)
		if err != nil {
			s.logger.Error("Error processing row", zap.Int("row", index), zap.Error(err))
			summary.Failed = append(summary.Failed, FailedRow{Index: index, Raw: raw})
			continue
		}

		result, err := s.importer.Import(ctx, req)
		if err != nil {
			s.logger.Error("Error importing row", zap.Int("row", index), zap.Error(err))
			summary.Failed = append(summary.Failed, FailedRow{Index: index, Raw: raw})
			continue
		}
		if result == models.ResultFailed {
			summary.Failed = append(summary.Failed, FailedRow{Index: index, Raw: raw})
		}

		s.logger.Debug("Row result", zap.Int("row", index), zap.String("result", string(result)))
	}

	if len(summary.Failed) > 0 {
		s.logger.Warn("Failed to import some movies", zap.Int("failed", len(summary.Failed)))
		for _, row := range summary.Failed {
			s.logger.Warn("Failed row", zap.Int("row", row.Index), zap.Any("data", row.Raw))
		}
	}

	return summary, nil
}

// headerIndex maps the required columns to their positions in the header.
func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{columnSourceURI, columnName, columnYear, columnDate} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	return columns, nil
}

// parseRow converts one CSV record into an import request.
func parseRow(columns map[string]int, record []string) (models.ImportRequest, error) {
	field := func(name string) (string, error) {
		i := columns[name]
		if i >= len(record) {
			return "", fmt.Errorf("row is missing column %q", name)
		}
		return record[i], nil
	}

	sourceURI, err := field(columnSourceURI)
	if err != nil {
		return models.ImportRequest{}, err
	}
	title, err := field(columnName)
	if err != nil {
		return models.ImportRequest{}, err
	}
	yearText, err := field(columnYear)
	if err != nil {
		return models.ImportRequest{}, err
	}
	dateText, err := field(columnDate)
	if err != nil {
		return models.ImportRequest{}, err
	}

	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return models.ImportRequest{}, fmt.Errorf("invalid year %q: %w", yearText, err)
	}

	watchDate, err := time.Parse(watchDateLayout, strings.TrimSpace(dateText))
	if err != nil {
		return models.ImportRequest{}, fmt.Errorf("invalid date %q: %w", dateText, err)
	}

	return models.ImportRequest{
		SourceURI: sourceURI,
		Title:     title,
		Year:      year,
		WatchDate: watchDate,
	}, nil
}

// rawRow pairs record values with header names for failure reporting.
func rawRow(header, record []string) map[string]string {
	raw := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			raw[name] = record[i]
		}
	}
	return raw
}

// Ensure csvImportService implements CSVImportService at compile time.
var _ CSVImportService = (*csvImportService)(nil)
