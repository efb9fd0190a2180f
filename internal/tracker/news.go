// =============================================================================
// news.go - 銘柄ごとのニュース取得
// =============================================================================
//
// Google News RSS 検索で銘柄名＋キーワードを検索し、見出しフィルタ・
// 公開日チェック・リダイレクト解決を通過したものを NewsItem にします。
//
// 【処理の流れ】（フィードの並び順で1件ずつ）
//  1. KeywordFilter で見出しを判定
//  2. 公開日がパースでき、かつ lookback より古ければスキップ
//     （日付不明の記事は古さでは除外しない）
//  3. リンクを最終URLに解決（失敗時は元のリンク）
//  4. URLが空ならスキップ
//  5. maxItems 件集まったら打ち切り（全件フィルタ後の切り詰めではない）
//
// フィード自体の取得・パースエラーは呼び出し元に返します。
//
// =============================================================================
package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// DefaultFeedURL は Google News RSS 検索のエンドポイント
const DefaultFeedURL = "https://news.google.com/rss/search"

// FeedLocale はフィード検索のロケールパラメータ
type FeedLocale struct {
	HL   string `yaml:"hl"`
	GL   string `yaml:"gl"`
	CEID string `yaml:"ceid"`
}

// DefaultFeedLocale は台湾・繁体字中国語
func DefaultFeedLocale() FeedLocale {
	return FeedLocale{HL: "zh-TW", GL: "TW", CEID: "TW:zh-Hant"}
}

// BuildSearchURL は検索フィードのURLを組み立てる
//
// クエリ例（エンコード前）:
//
//	台積電 (財報 OR 營收 OR 法說會 OR EPS) when:7d
//
// "when:" は検索側へのヒントに過ぎないため、公開日チェックはコード側でも行う。
func BuildSearchURL(base, companyName string, include []string, lookbackDays int, locale FeedLocale) string {
	q := companyName
	if len(include) > 0 {
		q += " (" + strings.Join(include, " OR ") + ")"
	}
	if lookbackDays > 0 {
		q += fmt.Sprintf(" when:%dd", lookbackDays)
	}

	params := []string{"q=" + url.QueryEscape(q)}
	for _, kv := range [][2]string{{"hl", locale.HL}, {"gl", locale.GL}, {"ceid", locale.CEID}} {
		if kv[1] != "" {
			params = append(params, kv[0]+"="+url.QueryEscape(kv[1]))
		}
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + strings.Join(params, "&")
}

// NewsFetcher は銘柄ごとにニュースを取得する
type NewsFetcher struct {
	FeedURL  string
	Locale   FeedLocale
	Filter   KeywordFilter
	Fetch    FetchConfig
	Resolver URLResolver
	Now      func() time.Time
	Log      logrus.FieldLogger
}

// FetchForStock は1銘柄分のニュースを最大 maxItems 件返す
//
// maxItems <= 0 は上限なし、lookbackDays <= 0 は公開日チェックなし。
func (f *NewsFetcher) FetchForStock(ctx context.Context, stock StockEntry, lookbackDays, maxItems int) ([]NewsItem, error) {
	feedURL := BuildSearchURL(f.feedURL(), stock.Name, f.Filter.Include, lookbackDays, f.Locale)

	feed, err := f.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed for %s %s: %w", stock.Code, stock.Name, err)
	}
	if f.Log != nil {
		f.Log.WithField("stock", stock.Code).Debugf("feed returned %d entries", len(feed.Items))
	}

	var cutoff time.Time
	if lookbackDays > 0 {
		cutoff = f.now().In(TaipeiZone).AddDate(0, 0, -lookbackDays)
	}

	items := make([]NewsItem, 0, max(maxItems, 0))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}

		title := strings.TrimSpace(entry.Title)
		if !f.Filter.Passes(title, stock.Code, stock.Name) {
			continue
		}

		var published *time.Time
		if t, ok := ParsePubDate(entry.Published); ok {
			published = &t
		}
		if published != nil && !cutoff.IsZero() && published.Before(cutoff) {
			continue
		}

		finalURL := ""
		if link := strings.TrimSpace(entry.Link); link != "" {
			finalURL = f.resolve(ctx, link)
		}
		if finalURL == "" {
			continue
		}

		items = append(items, NewsItem{
			StockCode: stock.Code,
			StockName: stock.Name,
			Title:     title,
			URL:       finalURL,
			Published: published,
		})

		if maxItems > 0 && len(items) >= maxItems {
			break
		}
	}

	return items, nil
}

// fetchFeed は RSS/Atom フィードを取得して gofeed でパースする
func (f *NewsFetcher) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	resp, cancel, err := f.Fetch.get(ctx, feedURL, f.Fetch.FeedTimeout, "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer drainClose(resp.Body)

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}
	return feed, nil
}

func (f *NewsFetcher) resolve(ctx context.Context, link string) string {
	if f.Resolver == nil {
		return link
	}
	return f.Resolver.Resolve(ctx, link)
}

func (f *NewsFetcher) feedURL() string {
	if f.FeedURL == "" {
		return DefaultFeedURL
	}
	return f.FeedURL
}

func (f *NewsFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
