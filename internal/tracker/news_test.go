package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 10, 19, 9, 0, 0, 0, TaipeiZone)

type rssEntry struct {
	Title   string
	Link    string
	PubDate string
}

func rssDocument(entries ...rssEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>search</title>`)
	for _, e := range entries {
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<title>%s</title>", e.Title)
		if e.Link != "" {
			fmt.Fprintf(&b, "<link>%s</link>", e.Link)
		}
		if e.PubDate != "" {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>", e.PubDate)
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

// mapResolver は固定の対応表でリンクを解決する
type mapResolver struct {
	m     map[string]string
	calls int
}

func (r *mapResolver) Resolve(_ context.Context, link string) string {
	r.calls++
	if v, ok := r.m[link]; ok {
		return v
	}
	return link
}

func newTestFetcher(feedURL string, resolver URLResolver) *NewsFetcher {
	return &NewsFetcher{
		FeedURL:  feedURL,
		Locale:   DefaultFeedLocale(),
		Filter:   KeywordFilter{Include: DefaultIncludeKeywords, Exclude: DefaultExcludeKeywords, RequireIdentity: true},
		Fetch:    FetchConfig{UserAgent: "test", FeedTimeout: 5 * time.Second, Client: http.DefaultClient},
		Resolver: resolver,
		Now:      func() time.Time { return testNow },
	}
}

func TestBuildSearchURL(t *testing.T) {
	got := BuildSearchURL(DefaultFeedURL, "台積電", []string{"財報", "EPS"}, 7, DefaultFeedLocale())

	assert.Equal(t,
		"https://news.google.com/rss/search?q=%E5%8F%B0%E7%A9%8D%E9%9B%BB+%28%E8%B2%A1%E5%A0%B1+OR+EPS%29+when%3A7d&hl=zh-TW&gl=TW&ceid=TW%3Azh-Hant",
		got)
}

func TestBuildSearchURLWithoutHints(t *testing.T) {
	got := BuildSearchURL("http://feed.test/search?x=1", "聯發科", nil, 0, FeedLocale{HL: "zh-TW"})
	assert.Equal(t, "http://feed.test/search?x=1&q=%E8%81%AF%E7%99%BC%E7%A7%91&hl=zh-TW", got)
}

func TestFetchForStock(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssDocument(
			rssEntry{Title: "台積電第三季營收創新高", Link: "https://wrap.test/1", PubDate: "Fri, 18 Oct 2024 07:00:00 GMT"},
			rssEntry{Title: "台積電技術分析：均線翻揚", Link: "https://wrap.test/2", PubDate: "Fri, 18 Oct 2024 08:00:00 GMT"},
			rssEntry{Title: "台積電舊聞財報", Link: "https://wrap.test/3", PubDate: "Mon, 30 Sep 2024 08:00:00 GMT"},
			rssEntry{Title: "台積電法說會日期未定", Link: "https://wrap.test/4", PubDate: "xyzq-baad"},
			rssEntry{Title: "台積電 EPS 無連結"},
			rssEntry{Title: "聯發科營收", Link: "https://wrap.test/5"},
		))
	}))
	defer srv.Close()

	resolver := &mapResolver{m: map[string]string{
		"https://wrap.test/1": "https://news.example/a1",
		"https://wrap.test/4": "https://news.example/a4",
	}}
	f := newTestFetcher(srv.URL, resolver)

	items, err := f.FetchForStock(context.Background(), StockEntry{Code: "2330", Name: "台積電"}, 7, 10)
	require.NoError(t, err)

	assert.Equal(t, "台積電 (財報 OR 營收 OR 法說會 OR EPS) when:7d", gotQuery)
	require.Len(t, items, 2)

	assert.Equal(t, "台積電第三季營收創新高", items[0].Title)
	assert.Equal(t, "https://news.example/a1", items[0].URL)
	assert.Equal(t, "2330", items[0].StockCode)
	assert.Equal(t, "台積電", items[0].StockName)
	require.NotNil(t, items[0].Published)
	assert.True(t, time.Date(2024, 10, 18, 15, 0, 0, 0, TaipeiZone).Equal(*items[0].Published))

	// 日付不明の記事は古さでは除外しない
	assert.Equal(t, "https://news.example/a4", items[1].URL)
	assert.Nil(t, items[1].Published)

	// 見出しで落ちた記事のリンクは解決しない
	assert.Equal(t, 2, resolver.calls)
}

func TestFetchForStockStopsAtMaxItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDocument(
			rssEntry{Title: "台積電營收一", Link: "https://n.test/1"},
			rssEntry{Title: "台積電營收二", Link: "https://n.test/2"},
			rssEntry{Title: "台積電營收三", Link: "https://n.test/3"},
		))
	}))
	defer srv.Close()

	resolver := &mapResolver{}
	f := newTestFetcher(srv.URL, resolver)

	items, err := f.FetchForStock(context.Background(), StockEntry{Code: "2330", Name: "台積電"}, 7, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://n.test/1", items[0].URL)
	assert.Equal(t, "https://n.test/2", items[1].URL)
	assert.Equal(t, 2, resolver.calls, "later entries are never resolved")
}

func TestFetchForStockErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "<html>not a feed")
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, nil)
	stock := StockEntry{Code: "2330", Name: "台積電"}

	_, err := f.FetchForStock(context.Background(), stock, 7, 3)
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)

	_, err = f.FetchForStock(context.Background(), stock, 7, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RSS parse failed")
}

func TestFetchForStockKeepsNonRFCDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDocument(
			rssEntry{Title: "台積電營收公告", Link: "https://n.test/iso", PubDate: "2024-09-01"},
			rssEntry{Title: "台積電法說會", Link: "https://n.test/unix", PubDate: "1725148800"},
		))
	}))
	defer srv.Close()

	items, err := newTestFetcher(srv.URL, nil).FetchForStock(context.Background(), StockEntry{Code: "2330", Name: "台積電"}, 7, 10)
	require.NoError(t, err)

	// RFC 5322 以外の日付は「日付不明」として残る
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Published)
	assert.Nil(t, items[1].Published)
}
