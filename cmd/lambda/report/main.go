// =============================================================================
// Lambda: tw-news-report
// =============================================================================
//
// 定期実行（EventBridge スケジュール）でレポートを1本生成する Lambda 関数
//
// 環境変数:
//   - TRACKER_CONFIG:   YAML 設定ファイル (任意)
//   - STOCKS_FILE:      銘柄リスト (デフォルト: config/tw_stocks.json)
//   - REPORTS_DIR:      レポート出力先 (Lambda では /tmp 配下を指定)
//   - INDEX_PATH:       インデックス出力先
//   - INDEX_HISTORY:    インデックスに載せる過去レポート数 (デフォルト: 0)
//   - DAYS_LOOKBACK:    何日以内のニュースを対象にするか (デフォルト: 7)
//   - NEWS_PER_STOCK:   銘柄あたりのニュース上限 (デフォルト: 3)
//   - REQUEST_SLEEP_MS: 銘柄間の待ち時間 (デフォルト: 700)
//   - LOG_LEVEL:        ログレベル (デフォルト: info)
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"

	"tw-news-tracker/internal/logger"
	"tw-news-tracker/internal/tracker"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode   int    `json:"statusCode"`
	Message      string `json:"message"`
	Report       string `json:"report,omitempty"`
	Stocks       int    `json:"stocks"`
	NewsItems    int    `json:"newsItems"`
	FailedStocks int    `json:"failedStocks"`
}

// ロガーの初期化はプロセスで1回だけ（ウォーム起動では再実行しない）
var (
	loggerOnce sync.Once
	loggerErr  error
)

func initLogger(cfg *tracker.Config) error {
	loggerOnce.Do(func() {
		loggerErr = logger.InitLogger(cfg.Log.Level, cfg.Log.File)
	})
	return loggerErr
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event any) (Response, error) {
	cfg, err := tracker.LoadFromEnv(os.Getenv)
	if err != nil {
		logger.Log.Errorf("config: %v", err)
		return Response{StatusCode: 400, Message: err.Error()}, err
	}
	if err := initLogger(cfg); err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	logger.Log.Infof("Config: stocks=%s, days=%d, perStock=%d", cfg.Input.StocksFile, cfg.News.LookbackDays, cfg.News.PerStock)

	return run(ctx, cfg.NewTracker(logger.Log))
}

func run(ctx context.Context, tr *tracker.Tracker) (Response, error) {
	res, err := tr.Run(ctx)
	if err != nil {
		logger.Log.Errorf("run failed: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	for _, e := range res.RevenueErrors {
		logger.Log.Warn(e)
	}

	return Response{
		StatusCode:   200,
		Message:      fmt.Sprintf("Generated %s report with %d news item(s)", res.DateLabel, len(res.News)),
		Report:       res.ReportPath,
		Stocks:       len(res.Outcomes),
		NewsItems:    len(res.News),
		FailedStocks: res.FailedStocks(),
	}, nil
}

func main() {
	lambda.Start(Handler)
}
