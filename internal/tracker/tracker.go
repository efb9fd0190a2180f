// =============================================================================
// tracker.go - 1回分の追跡処理（オーケストレーター）
// =============================================================================
//
// 【処理の流れ】
//  1. 銘柄リストを読み込む（失敗したらネットワークに触れる前に終了）
//  2. レポートディレクトリを作成
//  3. 月次売上を1回だけ取得
//  4. 銘柄ごとに順番にニュースを取得し、毎回固定時間スリープ
//     （取得失敗はその銘柄のニュースを空として続行）
//  5. 銘柄をまたいで URL 重複排除（最初の出現を残す）
//  6. レポートを <reportsDir>/<YYYY-MM-DD>.md に書き出し、インデックスを上書き
//
// 同じ日に再実行した場合、その日のレポートは作り直して上書きします。
//
// =============================================================================
package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// NewsSource は銘柄ごとのニュース取得元（*NewsFetcher が実装）
type NewsSource interface {
	FetchForStock(ctx context.Context, stock StockEntry, lookbackDays, maxItems int) ([]NewsItem, error)
}

// RevenueProvider は売上データの取得元（*RevenueFetcher が実装）
type RevenueProvider interface {
	FetchAll(ctx context.Context) *RevenueResult
}

// Tracker は1回分の実行に必要な依存と設定を保持する
type Tracker struct {
	StocksFile   string
	ReportsDir   string
	IndexPath    string
	IndexHistory int // 0 なら最新レポートへのリンクのみ

	LookbackDays int
	PerStock     int
	RequestSleep time.Duration // 銘柄間の固定待ち時間
	DryRun       bool          // true ならファイルを書かない

	Fields  RevenueFields
	News    NewsSource
	Revenue RevenueProvider

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Log   logrus.FieldLogger
}

// Run は1回分の追跡を実行する
//
// 返すエラーは銘柄リストの読み込み失敗・ファイル書き込み失敗・
// コンテキストのキャンセルのみ。銘柄単位や売上ソース単位の失敗は
// RunResult に記録して処理を続ける。
func (t *Tracker) Run(ctx context.Context) (*RunResult, error) {
	log := t.logger()

	stocks, err := LoadStocks(t.StocksFile)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d stocks from %s", len(stocks), t.StocksFile)

	if !t.DryRun {
		if err := os.MkdirAll(t.ReportsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create reports dir: %w", err)
		}
	}

	var revenue *RevenueResult
	if t.Revenue != nil {
		revenue = t.Revenue.FetchAll(ctx)
	}
	if revenue == nil {
		revenue = &RevenueResult{Rows: map[string]RevenueRow{}}
	}

	result := &RunResult{
		Outcomes:      make([]StockOutcome, 0, len(stocks)),
		RevenueErrors: revenue.Errors,
	}

	var all []NewsItem
	for _, s := range stocks {
		outcome := t.fetchStock(ctx, s)
		result.Outcomes = append(result.Outcomes, outcome)
		all = append(all, outcome.Items...)

		if err := t.sleep(ctx, t.RequestSleep); err != nil {
			return nil, err
		}
	}

	result.News = uniqueNewsByURL(all)
	result.DateLabel = t.now().In(TaipeiZone).Format("2006-01-02")
	result.Markdown, result.URLs = RenderReport(ReportInput{
		DateLabel:    result.DateLabel,
		Stocks:       stocks,
		News:         result.News,
		Revenue:      revenue.Rows,
		Fields:       t.Fields,
		LookbackDays: t.LookbackDays,
		MaxPerStock:  t.PerStock,
	})

	log.WithFields(logrus.Fields{
		"news":    len(result.News),
		"failed":  result.FailedStocks(),
		"revenue": len(revenue.Rows),
	}).Info("report rendered")

	if t.DryRun {
		return result, nil
	}

	reportPath := filepath.Join(t.ReportsDir, result.DateLabel+".md")
	if err := writeTextFile(reportPath, result.Markdown); err != nil {
		return nil, err
	}
	result.ReportPath = reportPath

	index, err := t.renderIndex(reportPath)
	if err != nil {
		return nil, err
	}
	if err := writeTextFile(t.IndexPath, index); err != nil {
		return nil, err
	}
	result.IndexPath = t.IndexPath

	log.Infof("wrote %s and %s", reportPath, t.IndexPath)
	return result, nil
}

// fetchStock は1銘柄分のニュースを取得し、結果を StockOutcome にまとめる
func (t *Tracker) fetchStock(ctx context.Context, s StockEntry) StockOutcome {
	out := StockOutcome{Stock: s}
	if t.News == nil {
		out.Status = OutcomeEmpty
		return out
	}

	items, err := t.News.FetchForStock(ctx, s, t.LookbackDays, t.PerStock)
	switch {
	case err != nil:
		out.Status = OutcomeError
		out.Err = err
		t.logger().WithField("stock", s.Code).Warnf("news fetch failed: %v", err)
	case len(items) == 0:
		out.Status = OutcomeEmpty
	default:
		out.Status = OutcomeOK
		out.Items = items
	}
	return out
}

func (t *Tracker) renderIndex(reportPath string) (string, error) {
	in := IndexInput{
		LatestRel:    RelativeLink(t.IndexPath, reportPath),
		HistoryLimit: t.IndexHistory,
	}
	if t.IndexHistory > 0 {
		names, err := ListReports(t.ReportsDir)
		if err != nil {
			return "", fmt.Errorf("list reports: %w", err)
		}
		for _, name := range names {
			in.History = append(in.History, RelativeLink(t.IndexPath, filepath.Join(t.ReportsDir, name)))
		}
	}
	return RenderIndex(in), nil
}

func (t *Tracker) sleep(ctx context.Context, d time.Duration) error {
	if t.Sleep != nil {
		return t.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) logger() logrus.FieldLogger {
	if t.Log != nil {
		return t.Log
	}
	return logrus.StandardLogger()
}

// SleepContext は d だけ待つ。ctx がキャンセルされたら即座に ctx.Err() を返す。
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
