package tracker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport(t *testing.T) {
	in := ReportInput{
		DateLabel: "2024-10-19",
		Stocks: []StockEntry{
			{Code: "2330", Name: "台積電"},
			{Code: "2454", Name: "聯發科"},
		},
		News: []NewsItem{
			{StockCode: "2330", StockName: "台積電", Title: "台積電第三季營收創新高", URL: "https://n.example/1"},
			{StockCode: "2330", StockName: "台積電", Title: "台積電法說會", URL: "https://n.example/2"},
		},
		Revenue: map[string]RevenueRow{
			"2330": {"公司代號": "2330", "營業收入-當月營收": "236021112", "營業收入-去年同月增減(%)": "39.6"},
		},
		Fields:       DefaultRevenueFields(),
		LookbackDays: 7,
	}

	md, urls := RenderReport(in)

	want := strings.Join([]string{
		"# 台股追蹤 — 2024-10-19",
		"",
		"## 📋 Copy URLs for NotebookLM",
		"",
		"Copy the URLs below and paste them into NotebookLM as sources:",
		"",
		"```",
		"https://n.example/1",
		"https://n.example/2",
		"```",
		"",
		"---",
		"",
		"## 📊 詳細報告",
		"",
		"### 2330 台積電",
		"- 📈 月營收：單月 236,021,112 / YoY 39.6%；累計（無數值）",
		"- 📰 [台積電第三季營收創新高](https://n.example/1)",
		"- 📰 [台積電法說會](https://n.example/2)",
		"",
		"### 2454 聯發科",
		"- 📈 " + RevenueNotFound,
		"- 📰（7天內無符合條件新聞）",
	}, "\n") + "\n"

	assert.Equal(t, want, md)
	assert.Equal(t, []string{"https://n.example/1", "https://n.example/2"}, urls)
}

func TestRenderReportDeduplicatesURLs(t *testing.T) {
	in := ReportInput{
		DateLabel: "2024-10-19",
		News: []NewsItem{
			{StockCode: "2330", StockName: "台積電", Title: "a", URL: "https://n.example/1"},
			{StockCode: "2454", StockName: "聯發科", Title: "b", URL: "https://n.example/2"},
			{StockCode: "2454", StockName: "聯發科", Title: "c", URL: "https://n.example/1"},
			{StockCode: "2330", StockName: "台積電", Title: "d", URL: "https://n.example/3"},
		},
		Fields:       DefaultRevenueFields(),
		LookbackDays: 7,
	}

	md, urls := RenderReport(in)

	assert.Equal(t, []string{"https://n.example/1", "https://n.example/2", "https://n.example/3"}, urls)
	assert.Equal(t, 1, strings.Count(md, "\nhttps://n.example/1\n"))

	// ストックリストなしならニュースの初出順
	first := strings.Index(md, "### 2330 台積電")
	second := strings.Index(md, "### 2454 聯發科")
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second)
	assert.True(t, strings.HasSuffix(md, "\n"))
	assert.False(t, strings.HasSuffix(md, "\n\n"))
}

func TestRenderReportExtraGroupsAndCap(t *testing.T) {
	in := ReportInput{
		DateLabel: "2024-10-19",
		Stocks:    []StockEntry{{Code: "2330", Name: "台積電"}},
		News: []NewsItem{
			{StockCode: "9999", StockName: "其他", Title: "x", URL: "https://n.example/x"},
			{StockCode: "2330", StockName: "台積電", Title: "a", URL: "https://n.example/1"},
			{StockCode: "2330", StockName: "台積電", Title: "b", URL: "https://n.example/2"},
		},
		Fields:       DefaultRevenueFields(),
		LookbackDays: 7,
		MaxPerStock:  1,
	}

	md, urls := RenderReport(in)

	assert.Len(t, urls, 3)
	assert.Contains(t, md, "- 📰 [a](https://n.example/1)")
	assert.NotContains(t, md, "- 📰 [b]")
	assert.Less(t, strings.Index(md, "### 2330 台積電"), strings.Index(md, "### 9999 其他"))
}

func TestRenderReportEmpty(t *testing.T) {
	md, urls := RenderReport(ReportInput{DateLabel: "2024-10-19", Fields: DefaultRevenueFields()})

	assert.Empty(t, urls)
	assert.True(t, strings.HasSuffix(md, "## 📊 詳細報告\n"))
	assert.Contains(t, md, "```\n```")
}

func TestRenderIndex(t *testing.T) {
	latestOnly := RenderIndex(IndexInput{LatestRel: "reports/2024-10-19.md"})
	assert.Equal(t,
		IndexTitle+"\n\n- 最新報告：[reports/2024-10-19.md](reports/2024-10-19.md)\n",
		latestOnly)

	withHistory := RenderIndex(IndexInput{
		LatestRel:    "reports/2024-10-19.md",
		History:      []string{"reports/2024-10-19.md", "reports/2024-10-18.md", "reports/2024-10-17.md"},
		HistoryLimit: 2,
	})
	assert.Equal(t, strings.Join([]string{
		IndexTitle,
		"",
		"- 最新報告：[reports/2024-10-19.md](reports/2024-10-19.md)",
		"",
		"## 歷史報告",
		"",
		"- [2024-10-19.md](reports/2024-10-19.md)",
		"- [2024-10-18.md](reports/2024-10-18.md)",
	}, "\n")+"\n", withHistory)
}

func TestListReports(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2024-10-17.md", "2024-10-19.md", "2024-10-18.md", ".gitkeep", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

	got, err := ListReports(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-10-19.md", "2024-10-18.md", "2024-10-17.md"}, got)
}

func TestRelativeLink(t *testing.T) {
	assert.Equal(t, "reports/2024-10-19.md", RelativeLink("index.md", filepath.Join("reports", "2024-10-19.md")))
	assert.Equal(t, "../reports/2024-10-19.md", RelativeLink(filepath.Join("docs", "index.md"), filepath.Join("reports", "2024-10-19.md")))
	assert.Equal(t, "2024-10-19.md", RelativeLink(filepath.Join("reports", "index.md"), filepath.Join("reports", "2024-10-19.md")))
}
