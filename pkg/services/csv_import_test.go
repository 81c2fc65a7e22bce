package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinelog/cinelog-engine/pkg/models"
)

// mockImportService records submissions and returns canned outcomes.
type mockImportService struct {
	results  map[string]models.ImportResult
	err      error
	requests []models.ImportRequest
}

func (m *mockImportService) Import(ctx context.Context, req models.ImportRequest) (models.ImportResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return models.ResultFailed, m.err
	}
	if result, ok := m.results[req.SourceURI]; ok {
		return result, nil
	}
	return models.ResultSuccess, nil
}

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watched.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validCSV = `Date,Name,Year,Letterboxd URI
2024-01-15,Heat,1995,https://boxd.it/aaa
2024-01-16,Alien,1979,https://boxd.it/bbb
2024-01-17,Stalker,1979,https://boxd.it/ccc
`

func TestCSVImport_AllRowsSucceed(t *testing.T) {
	importer := &mockImportService{}
	service := NewCSVImportService(importer, zap.NewNop())

	summary, err := service.Run(context.Background(), writeTestCSV(t, validCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Empty(t, summary.Failed)
	require.Len(t, importer.requests, 3)

	first := importer.requests[0]
	assert.Equal(t, "https://boxd.it/aaa", first.SourceURI)
	assert.Equal(t, "Heat", first.Title)
	assert.Equal(t, 1995, first.Year)
	assert.Equal(t, "2024-01-15", first.WatchDate.Format("2006-01-02"))
}

func TestCSVImport_BadYearRow_DoesNotAbortRun(t *testing.T) {
	csv := `Date,Name,Year,Letterboxd URI
2024-01-15,Heat,1995,https://boxd.it/aaa
2024-01-16,Alien,ninenteen79,https://boxd.it/bbb
2024-01-17,Stalker,1979,https://boxd.it/ccc
`
	importer := &mockImportService{}
	service := NewCSVImportService(importer, zap.NewNop())

	summary, err := service.Run(context.Background(), writeTestCSV(t, csv))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, 2, summary.Failed[0].Index)
	assert.Equal(t, "Alien", summary.Failed[0].Raw["Name"])
	assert.Equal(t, "ninenteen79", summary.Failed[0].Raw["Year"])

	// Rows 1 and 3 still reached the pipeline.
	require.Len(t, importer.requests, 2)
	assert.Equal(t, "https://boxd.it/ccc", importer.requests[1].SourceURI)
}

func TestCSVImport_FailedOutcome_Collected(t *testing.T) {
	importer := &mockImportService{
		results: map[string]models.ImportResult{
			"https://boxd.it/bbb": models.ResultFailed,
		},
	}
	service := NewCSVImportService(importer, zap.NewNop())

	summary, err := service.Run(context.Background(), writeTestCSV(t, validCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, 2, summary.Failed[0].Index)
	assert.Equal(t, "https://boxd.it/bbb", summary.Failed[0].Raw["Letterboxd URI"])
}

func TestCSVImport_AlreadyExists_NotAFailure(t *testing.T) {
	importer := &mockImportService{
		results: map[string]models.ImportResult{
			"https://boxd.it/aaa": models.ResultAlreadyExists,
		},
	}
	service := NewCSVImportService(importer, zap.NewNop())

	summary, err := service.Run(context.Background(), writeTestCSV(t, validCSV))
	require.NoError(t, err)
	assert.Empty(t, summary.Failed)
}

func TestCSVImport_PipelineError_CountedAndContinues(t *testing.T) {
	importer := &mockImportService{err: context.DeadlineExceeded}
	service := NewCSVImportService(importer, zap.NewNop())

	summary, err := service.Run(context.Background(), writeTestCSV(t, validCSV))
	require.NoError(t, err)

	// Every row failed, but every row was attempted.
	assert.Equal(t, 3, summary.Processed)
	assert.Len(t, summary.Failed, 3)
	assert.Len(t, importer.requests, 3)
}

func TestCSVImport_MissingFile(t *testing.T) {
	service := NewCSVImportService(&mockImportService{}, zap.NewNop())

	_, err := service.Run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestCSVImport_EmptyFile(t *testing.T) {
	service := NewCSVImportService(&mockImportService{}, zap.NewNop())

	_, err := service.Run(context.Background(), writeTestCSV(t, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is empty")
}

func TestCSVImport_Directory(t *testing.T) {
	service := NewCSVImportService(&mockImportService{}, zap.NewNop())

	_, err := service.Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is a directory")
}

func TestCSVImport_MissingRequiredColumn(t *testing.T) {
	csv := `Date,Name,Letterboxd URI
2024-01-15,Heat,https://boxd.it/aaa
`
	service := NewCSVImportService(&mockImportService{}, zap.NewNop())

	_, err := service.Run(context.Background(), writeTestCSV(t, csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "Year"`)
}
