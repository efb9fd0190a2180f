// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルは台股ニュース追跡システム全体で使用するデータ構造を定義します。
//
// 【このファイルで定義している型】
//   - StockEntry:   追跡対象の銘柄（コードと名称）
//   - NewsItem:     フィルタ通過済みのニュース1件
//   - RevenueRow:   月次売上（營收）データの1行
//   - StockOutcome: 銘柄ごとのニュース取得結果
//   - RunResult:    1回の実行結果
//
// =============================================================================
package tracker

import "time"

// -----------------------------------------------------------------------------
// StockEntry - 追跡対象の銘柄
// -----------------------------------------------------------------------------
//
// 銘柄リストファイルから読み込まれ、実行中は変更されない。
type StockEntry struct {
	Code string `json:"code" yaml:"code"` // 銘柄コード（例: "2330"）
	Name string `json:"name" yaml:"name"` // 銘柄名（例: "台積電"）
}

// -----------------------------------------------------------------------------
// NewsItem - ニュース1件
// -----------------------------------------------------------------------------
//
// NewsFetcher がフィードの各エントリから生成する。生成後は変更しない。
//
// 【フィールドの説明】
//
//	URL:       リダイレクト解決後の最終URL
//	Published: 台北時間の公開日時（パースできなかった場合は nil）
type NewsItem struct {
	StockCode string     `json:"stockCode"`
	StockName string     `json:"stockName"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Published *time.Time `json:"published,omitempty"`
}

// RevenueRow は月次売上データの1行（フィールド名 → 値）
//
// データソースごとにキー名が異なる（例: "當月營收" と "營業收入-當月營收"）。
// 値の取り出しは FirstNonEmpty で同義キーを順に試す。
type RevenueRow map[string]string

// -----------------------------------------------------------------------------
// StockOutcome - 銘柄ごとの取得結果
// -----------------------------------------------------------------------------

// OutcomeStatus は銘柄ごとのニュース取得ステータス
type OutcomeStatus string

const (
	OutcomeOK    OutcomeStatus = "ok"    // 1件以上取得
	OutcomeEmpty OutcomeStatus = "empty" // 取得成功だが条件に合うニュースなし
	OutcomeError OutcomeStatus = "error" // 取得失敗（この銘柄のニュースは空として扱う）
)

// StockOutcome は1銘柄分のニュース取得結果
type StockOutcome struct {
	Stock  StockEntry
	Status OutcomeStatus
	Items  []NewsItem
	Err    error
}

// RunResult は Tracker.Run の実行結果
type RunResult struct {
	DateLabel     string         // レポート日付（YYYY-MM-DD、台北時間）
	ReportPath    string         // 書き出したレポートのパス（dry run 時は空）
	IndexPath     string         // 書き出したインデックスのパス（dry run 時は空）
	Markdown      string         // レポート本文
	Outcomes      []StockOutcome // 銘柄ごとの結果（設定順）
	News          []NewsItem     // URL重複除去後のニュース
	URLs          []string       // レポートの「Copy URLs」に載せたURL
	RevenueErrors []string       // 失敗した売上データソース
}

// FailedStocks は取得に失敗した銘柄数を返す
func (r *RunResult) FailedStocks() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeError {
			n++
		}
	}
	return n
}
