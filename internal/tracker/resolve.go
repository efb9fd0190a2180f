// =============================================================================
// resolve.go - リダイレクト解決
// =============================================================================
//
// Google News RSS の <link> は "news.google.com/rss/articles/..." という
// 中継URLになっていることが多いため、最終的な記事URLを求めます。
//
// 【処理の流れ】
//  1. GET でリダイレクトを追跡（1リクエスト）
//  2. 最終URLがまだ中継ホスト上なら HTML を goquery でパースし、
//     記事URL（data-n-au / meta refresh / canonical）を探す
//  3. どこかで失敗したら元のリンクをそのまま返す（エラーにはしない）
//
// =============================================================================
package tracker

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// DefaultWrapperHosts は中継ページを返すホスト
var DefaultWrapperHosts = []string{"news.google.com"}

// URLResolver はリンクを最終URLに解決する
type URLResolver interface {
	Resolve(ctx context.Context, link string) string
}

// RedirectResolver は HTTP リダイレクトと中継ページを辿る URLResolver
type RedirectResolver struct {
	Fetch        FetchConfig
	WrapperHosts []string
	Log          logrus.FieldLogger
}

// Resolve は link の最終URLを返す。失敗時は link をそのまま返す。
func (r *RedirectResolver) Resolve(ctx context.Context, link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	resp, cancel, err := r.Fetch.get(ctx, link, r.Fetch.ResolveTimeout, "text/html,application/xhtml+xml")
	if err != nil {
		r.debug(link, err)
		return link
	}
	defer cancel()
	defer drainClose(resp.Body)

	final := link
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	if !r.isWrapper(final) || !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return final
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		r.debug(final, err)
		return final
	}
	if article := extractArticleURL(doc, final); article != "" {
		return article
	}
	return final
}

func (r *RedirectResolver) isWrapper(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	for _, h := range r.WrapperHosts {
		if strings.EqualFold(host, h) {
			return true
		}
	}
	return false
}

func (r *RedirectResolver) debug(u string, err error) {
	if r.Log != nil {
		r.Log.WithField("url", u).Debugf("redirect resolution fell back: %v", err)
	}
}

// extractArticleURL は中継ページから記事URLを探す
//
// 優先順:
//  1. c-wiz[data-n-au]（Google News の記事URL属性）
//  2. meta[http-equiv=refresh] の url=...
//  3. 別ホストを指す link[rel=canonical]
func extractArticleURL(doc *goquery.Document, pageURL string) string {
	if v, ok := doc.Find("c-wiz[data-n-au]").First().Attr("data-n-au"); ok {
		if u := absoluteHTTPURL(pageURL, v); u != "" {
			return u
		}
	}

	var refresh string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if equiv, _ := s.Attr("http-equiv"); strings.EqualFold(equiv, "refresh") {
			content, _ := s.Attr("content")
			refresh = refreshTarget(content)
			return refresh == ""
		}
		return true
	})
	if u := absoluteHTTPURL(pageURL, refresh); u != "" {
		return u
	}

	if v, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		u := absoluteHTTPURL(pageURL, v)
		if u != "" && !sameHost(u, pageURL) {
			return u
		}
	}
	return ""
}

// refreshTarget は "0;url=https://..." から URL 部分を取り出す
func refreshTarget(content string) string {
	for _, part := range strings.Split(content, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "url=") {
			return strings.Trim(strings.TrimSpace(part[4:]), `'"`)
		}
	}
	return ""
}

// absoluteHTTPURL は href を pageURL 基準で絶対URLにする（http/https 以外は空）
func absoluteHTTPURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func sameHost(a, b string) bool {
	ua, err1 := url.Parse(a)
	ub, err2 := url.Parse(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return strings.EqualFold(ua.Hostname(), ub.Hostname())
}
