package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

const reasonWidth = 30

// PrintSummary prints the per-folder table followed by per-category counts
func PrintSummary(w io.Writer, report *models.Report, paths []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "フォルダ名\t大分類\t小項目\t状態\t判定理由")
	fmt.Fprintln(tw, "----------\t------\t------\t----\t--------")
	for _, res := range report.Results {
		reason := res.Reason
		if !res.Succeeded() && res.Error != "" {
			reason = res.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			res.Folder, res.Category, dash(res.Subcategory), res.Status, truncate(reason, reasonWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	failed := len(report.FailedFolders())
	fmt.Fprintf(w, "\n処理完了: %d件の物件 (分類済み %d / 未分類・失敗 %d)\n", report.Len(), report.Len()-failed, failed)

	if len(paths) > 0 {
		fmt.Fprintln(w, "結果ファイル:")
		for _, p := range paths {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}

	fmt.Fprintln(w, "\nカテゴリ別集計:")
	counts := report.CategoryCounts()
	for _, category := range report.SortedCategories() {
		fmt.Fprintf(w, "  - %s: %d件\n", category, counts[category])
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
