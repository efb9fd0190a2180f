// =============================================================================
// main.go - 台股ニュース追跡 CLI のエントリーポイント
// =============================================================================
//
// 設定した銘柄ごとに Google News RSS から決算・營收関連のニュースを集め、
// 取引所 OpenAPI の月次売上と合わせて日付つき Markdown レポートを作ります。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  1. 設定    │ -> │  2. 売上    │ -> │  3. ニュース│
//   │  読み込み   │    │  OpenAPI    │    │  銘柄ごと   │
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   .env / YAML /        TWSE + TPEx        RSS検索 → フィルタ
//   環境変数 / フラグ     を1回だけ取得       → リダイレクト解決
//
//   ┌─────────────┐    ┌─────────────┐
//   │  4. 重複排除│ -> │  5. 出力    │
//   │  URL単位    │    │  Markdown   │
//   └─────────────┘    └─────────────┘
//                             │
//                             v
//                   reports/YYYY-MM-DD.md
//                   index.md（最新レポートへのリンク）
//
// =============================================================================
// 【CLIフラグ一覧】
// =============================================================================
//
//   -config           YAML 設定ファイル（省略時: TRACKER_CONFIG）
//   -stocks           銘柄リスト（.json / .yaml）
//   -reports          レポートの出力ディレクトリ
//   -index            インデックスの出力パス
//   -indexHistory     インデックスに載せる過去レポート数（0 = 最新のみ）
//   -days             何日以内のニュースを対象にするか（デフォルト: 7）
//   -perStock         銘柄あたりのニュース上限（デフォルト: 3）
//   -sleep            銘柄間の待ち時間（デフォルト: 700ms）
//   -requireIdentity  見出しに銘柄名かコードを必須にする（デフォルト: true）
//   -dryRun           ファイルを書かずにレポートを stdout に出す
//   -logLevel         ログレベル
//   -logFile          ログファイル（stderr と両方に出力）
//
// 終了コード: 設定エラー・銘柄リストの読み込み失敗・書き込み失敗のときだけ 1。
// 銘柄ごとのニュース取得失敗では失敗扱いにしない。
//
// =============================================================================
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tw-news-tracker/internal/logger"
	"tw-news-tracker/internal/tracker"
)

func main() {
	// .env がなくてもエラーにしない
	_ = godotenv.Load()

	cfg, err := tracker.ParseFlags(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Log.Fatalf("config: %v", err)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := cfg.NewTracker(logger.Log).Run(ctx)
	if err != nil {
		logger.Log.Fatalf("run failed: %v", err)
	}

	if failed := res.FailedStocks(); failed > 0 {
		logger.Log.Warnf("%d of %d stock(s) failed to fetch news", failed, len(res.Outcomes))
	}
	for _, e := range res.RevenueErrors {
		logger.Log.Warn(e)
	}

	if cfg.Output.DryRun {
		fmt.Print(res.Markdown)
		return
	}
	fmt.Println(res.ReportPath)
}
