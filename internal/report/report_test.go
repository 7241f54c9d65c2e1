package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		Results: []models.ClassificationResult{
			{
				Folder:         "A",
				Category:       "飲食店",
				Subcategory:    "カフェ",
				Reason:         "カウンター席, \"木目\"の内装",
				Confidence:     0.8,
				ImpressionTags: []string{"natural", "warm_colors"},
				Status:         models.StatusClassified,
				ImageCount:     3,
				ImagesSent:     3,
			},
			{
				Folder:     "B",
				Category:   models.UnclassifiedLabel,
				Status:     models.StatusFailed,
				Error:      "no readable images",
				ImageCount: 1,
			},
		},
	}
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, sampleReport()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "CSV must start with a UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one line per result")

	assert.Equal(t, "フォルダ名", records[0][0])
	assert.Equal(t, "カウンター席, \"木目\"の内装", records[1][3], "commas and quotes survive quoting")
	assert.Equal(t, []string{"画像枚数", "送信枚数"}, records[0][4:6])
	assert.Equal(t, "0.80", records[1][7])
	assert.Equal(t, "natural;warm_colors", records[1][8])
	assert.Equal(t, []string{"B", "unclassified", "", "", "1", "0", "failed", "", "", "", "", "no readable images"}, records[2],
		"image count is the folder total, not the number sent")
}

func TestEncodeJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "\"category\": \"飲食店\"", "non-ASCII is written as-is")

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, sampleReport(), got)
	assert.Equal(t, []string{"B"}, got.FailedFolders())
}

func TestEncodeXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "飲食店", rows[1][1])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"unclassified", "1"}, summary[1])
	assert.Equal(t, []string{"飲食店", "1"}, summary[2])
}

func TestWriterWritesEveryFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir, []string{"json", "csv", "xlsx"}, zap.NewNop())
	require.NoError(t, err)

	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	paths, err := w.Write(sampleReport(), at)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "classification_results_20250304_050607.json"), paths[0])

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
}

func TestWriterIsDeterministic(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var contents []string
	for i := 0; i < 2; i++ {
		w, err := NewWriter(t.TempDir(), []string{"json", "csv"}, nil)
		require.NoError(t, err)
		paths, err := w.Write(sampleReport(), at)
		require.NoError(t, err)
		for _, p := range paths {
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			contents = append(contents, string(data))
		}
	}
	assert.Equal(t, contents[:2], contents[2:])
}

func TestNewWriterRejectsUnknownFormat(t *testing.T) {
	_, err := NewWriter(t.TempDir(), []string{"pdf"}, nil)
	assert.Error(t, err)
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = ReadJSON(path)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, sampleReport(), []string{"out.json"}))

	out := buf.String()
	assert.Contains(t, out, "処理完了: 2件の物件 (分類済み 1 / 未分類・失敗 1)")
	assert.Contains(t, out, "no readable images")
	assert.Contains(t, out, "  - out.json")
	assert.Contains(t, out, "  - 飲食店: 1件")
	assert.True(t, strings.Index(out, "unclassified: 1件") < strings.Index(out, "飲食店: 1件"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "あいう…", truncate("あいうえお", 3))
}
