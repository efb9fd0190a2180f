// =============================================================================
// render.go - Markdown レポート・インデックスの生成
// =============================================================================
//
// 【レポートの構成】
//
//	# 台股追蹤 — 2024-10-19
//
//	## 📋 Copy URLs for NotebookLM
//	（重複排除済みURLをプレーンテキストでコードブロックに列挙）
//
//	---
//
//	## 📊 詳細報告
//
//	### 2330 台積電
//	- 📈 月營收：...
//	- 📰 [見出し](URL)
//
// 銘柄セクションは設定順、その後に設定にない銘柄のニュースを初出順で並べます。
// 並べ替えは行わず、同じ入力からは常に同じ出力になります。
//
// =============================================================================
package tracker

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ReportInput は RenderReport の入力
type ReportInput struct {
	DateLabel    string                // YYYY-MM-DD
	Stocks       []StockEntry          // 設定順の銘柄（空ならニュースの初出順のみ）
	News         []NewsItem            // 全銘柄のニュース
	Revenue      map[string]RevenueRow // 銘柄コード → 売上行
	Fields       RevenueFields
	LookbackDays int // 「N天內無符合條件新聞」の N
	MaxPerStock  int // 1銘柄あたりの表示上限（0 以下は無制限）
}

type newsGroup struct {
	stock StockEntry
	items []NewsItem
}

// RenderReport はレポート本文と重複排除済みURLリストを返す
func RenderReport(in ReportInput) (string, []string) {
	urls := make([]string, 0, len(in.News))
	for _, n := range in.News {
		urls = append(urls, n.URL)
	}
	urls = uniqStrings(urls)

	var lines []string
	lines = append(lines,
		"# 台股追蹤 — "+in.DateLabel,
		"",
		"## 📋 Copy URLs for NotebookLM",
		"",
		"Copy the URLs below and paste them into NotebookLM as sources:",
		"",
		"```",
	)
	lines = append(lines, urls...)
	lines = append(lines,
		"```",
		"",
		"---",
		"",
		"## 📊 詳細報告",
		"",
	)

	for _, g := range groupNews(in.Stocks, in.News) {
		lines = append(lines, fmt.Sprintf("### %s %s", g.stock.Code, g.stock.Name))
		lines = append(lines, "- 📈 "+FormatRevenueSummary(in.Revenue[g.stock.Code], in.Fields))

		if len(g.items) == 0 {
			lines = append(lines, fmt.Sprintf("- 📰（%d天內無符合條件新聞）", in.LookbackDays), "")
			continue
		}

		items := g.items
		if in.MaxPerStock > 0 && len(items) > in.MaxPerStock {
			items = items[:in.MaxPerStock]
		}
		for _, it := range items {
			lines = append(lines, fmt.Sprintf("- 📰 [%s](%s)", it.Title, it.URL))
		}
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n") + "\n", urls
}

// groupNews は設定銘柄 → 設定外の銘柄（初出順）の順でグループ化する
func groupNews(stocks []StockEntry, news []NewsItem) []newsGroup {
	groups := make([]newsGroup, 0, len(stocks))
	byCode := map[string]int{}
	for _, s := range stocks {
		if _, dup := byCode[s.Code]; dup {
			continue
		}
		byCode[s.Code] = len(groups)
		groups = append(groups, newsGroup{stock: s})
	}

	extra := map[StockEntry]int{}
	for _, n := range news {
		if i, ok := byCode[n.StockCode]; ok {
			groups[i].items = append(groups[i].items, n)
			continue
		}
		key := StockEntry{Code: n.StockCode, Name: n.StockName}
		i, ok := extra[key]
		if !ok {
			i = len(groups)
			extra[key] = i
			groups = append(groups, newsGroup{stock: key})
		}
		groups[i].items = append(groups[i].items, n)
	}
	return groups
}

// -----------------------------------------------------------------------------
// インデックス
// -----------------------------------------------------------------------------

// IndexTitle はインデックスの見出し
const IndexTitle = "# 台股新聞追蹤（財報/營收/法說/EPS）"

// IndexInput は RenderIndex の入力
type IndexInput struct {
	LatestRel    string   // 最新レポートへの相対パス（スラッシュ区切り）
	History      []string // 過去レポートへの相対パス（新しい順）
	HistoryLimit int      // 0 以下なら履歴セクションを出さない
}

// RenderIndex はインデックス本文を返す
func RenderIndex(in IndexInput) string {
	lines := []string{
		IndexTitle,
		"",
		fmt.Sprintf("- 最新報告：[%s](%s)", in.LatestRel, in.LatestRel),
	}

	if in.HistoryLimit > 0 && len(in.History) > 0 {
		lines = append(lines, "", "## 歷史報告", "")
		for i, rel := range in.History {
			if i >= in.HistoryLimit {
				break
			}
			lines = append(lines, fmt.Sprintf("- [%s](%s)", path.Base(rel), rel))
		}
	}

	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n") + "\n"
}

// ListReports は dir 内の *.md ファイル名を新しい順（名前の降順）で返す
//
// レポート名は YYYY-MM-DD.md なので名前順が日付順になる。
func ListReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// RelativeLink は indexPath のディレクトリから target への相対リンクを返す
//
// 相対パスにできない場合は target をそのまま使う。区切りは常に "/"。
func RelativeLink(indexPath, target string) string {
	rel, err := filepath.Rel(filepath.Dir(indexPath), target)
	if err != nil {
		rel = target
	}
	return filepath.ToSlash(rel)
}
