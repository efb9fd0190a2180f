// =============================================================================
// http.go - HTTP 共通設定
// =============================================================================
//
// ニュースフィード・リダイレクト解決・売上 OpenAPI の全リクエストで
// 1つの http.Client を共有します（コネクションプーリング有効）。
//
// タイムアウトは呼び出し種別ごとに固定で、context.WithTimeout で適用します。
// タイムアウトは通常の転送エラーとして呼び出し元に返ります。
//
// =============================================================================
package tracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent はリクエストに付ける User-Agent
const DefaultUserAgent = "TW-Stock-News-Tracker/1.0 (+https://github.com/)"

// FetchConfig は HTTP リクエスト時の設定を保持
type FetchConfig struct {
	UserAgent      string        // User-Agent ヘッダー
	FeedTimeout    time.Duration // ニュースフィード取得
	ResolveTimeout time.Duration // リダイレクト解決
	RevenueTimeout time.Duration // 売上 OpenAPI 取得
	Client         *http.Client  // 共有HTTPクライアント
}

// DefaultFetchConfig はデフォルトのHTTP設定を返す
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		UserAgent:      DefaultUserAgent,
		FeedTimeout:    20 * time.Second,
		ResolveTimeout: 12 * time.Second,
		RevenueTimeout: 30 * time.Second,
		Client:         newHTTPClient(),
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// StatusError は 2xx 以外のレスポンスを表す
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// get はタイムアウト付きで GET を送信し、2xx 以外を *StatusError にする
//
// 戻り値の cancel は resp.Body を読み終えてから呼ぶこと。
func (c FetchConfig) get(ctx context.Context, u string, timeout time.Duration, accept string) (*http.Response, context.CancelFunc, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainClose(resp.Body)
		cancel()
		return nil, nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return resp, cancel, nil
}

// maxDrainBytes は接続を再利用するために読み捨てる上限
const maxDrainBytes = 64 << 10

// drainClose は残りのボディを読み捨ててから閉じる
//
// 読み切らずに閉じるとプール内の接続が再利用されない。
func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	_ = body.Close()
}
