// =============================================================================
// config.go - 実行設定
// =============================================================================
//
// 設定は次の順に上書きされます（後ろほど優先）。
//
//  1. DefaultConfig() の既定値
//  2. YAML 設定ファイル（-config または TRACKER_CONFIG）
//  3. 環境変数（DAYS_LOOKBACK, NEWS_PER_STOCK など）
//  4. 明示的に指定された CLI フラグ
//
// 【設定グループ】
//   - InputConfig:   銘柄リスト
//   - NewsConfig:    ニュース検索・フィルタ
//   - RevenueConfig: 売上データソース
//   - HTTPConfig:    User-Agent とタイムアウト
//   - OutputConfig:  レポート・インデックスの出力先
//   - LogConfig:     ログレベルとログファイル
//
// =============================================================================
package tracker

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 設定構造体
// =============================================================================

// Config は追跡処理の全設定を保持する
type Config struct {
	Input   InputConfig   `yaml:"input"`
	News    NewsConfig    `yaml:"news"`
	Revenue RevenueConfig `yaml:"revenue"`
	HTTP    HTTPConfig    `yaml:"http"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// InputConfig は入力に関する設定
type InputConfig struct {
	// StocksFile は銘柄リスト（.json / .yaml / .yml）
	StocksFile string `yaml:"stocks_file"`
}

// NewsConfig はニュース検索とフィルタの設定
type NewsConfig struct {
	FeedURL         string        `yaml:"feed_url"`
	Locale          FeedLocale    `yaml:"locale"`
	LookbackDays    int           `yaml:"lookback_days"`
	PerStock        int           `yaml:"per_stock"`
	Include         []string      `yaml:"include"`
	Exclude         []string      `yaml:"exclude"`
	RequireIdentity bool          `yaml:"require_identity"`
	WrapperHosts    []string      `yaml:"wrapper_hosts"`
	RequestSleep    time.Duration `yaml:"request_sleep"` // 銘柄間の固定待ち時間
}

// RevenueConfig は売上データの設定
type RevenueConfig struct {
	Sources []RevenueSource `yaml:"sources"`
	Fields  RevenueFields   `yaml:"fields"`
}

// HTTPConfig は HTTP リクエストの設定
type HTTPConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	FeedTimeout    time.Duration `yaml:"feed_timeout"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	RevenueTimeout time.Duration `yaml:"revenue_timeout"`
}

// OutputConfig は出力の設定
type OutputConfig struct {
	ReportsDir   string `yaml:"reports_dir"`
	IndexPath    string `yaml:"index_path"`
	IndexHistory int    `yaml:"index_history"` // 0 なら最新のみ
	DryRun       bool   `yaml:"dry_run"`
}

// LogConfig はログの設定
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig は既定値を返す
func DefaultConfig() *Config {
	fetch := DefaultFetchConfig()
	return &Config{
		Input: InputConfig{StocksFile: "config/tw_stocks.json"},
		News: NewsConfig{
			FeedURL:         DefaultFeedURL,
			Locale:          DefaultFeedLocale(),
			LookbackDays:    7,
			PerStock:        3,
			Include:         append([]string{}, DefaultIncludeKeywords...),
			Exclude:         append([]string{}, DefaultExcludeKeywords...),
			RequireIdentity: true,
			WrapperHosts:    append([]string{}, DefaultWrapperHosts...),
			RequestSleep:    700 * time.Millisecond,
		},
		Revenue: RevenueConfig{
			Sources: DefaultRevenueSources(),
			Fields:  DefaultRevenueFields(),
		},
		HTTP: HTTPConfig{
			UserAgent:      fetch.UserAgent,
			FeedTimeout:    fetch.FeedTimeout,
			ResolveTimeout: fetch.ResolveTimeout,
			RevenueTimeout: fetch.RevenueTimeout,
		},
		Output: OutputConfig{
			ReportsDir: "reports",
			IndexPath:  "index.md",
		},
		Log: LogConfig{Level: "info"},
	}
}

// =============================================================================
// 読み込み
// =============================================================================

// LoadConfigFile は YAML 設定ファイルを cfg に上書きで読み込む
//
// ファイルに書かれていないキーは cfg の値がそのまま残る。
func LoadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv は環境変数で cfg を上書きする
//
// DAYS_LOOKBACK / NEWS_PER_STOCK が数値でない、または 0 以下の場合は
// 既存の値を維持する。
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v, ok := positiveInt(getenv("DAYS_LOOKBACK")); ok {
		cfg.News.LookbackDays = v
	}
	if v, ok := positiveInt(getenv("NEWS_PER_STOCK")); ok {
		cfg.News.PerStock = v
	}
	if v := strings.TrimSpace(getenv("STOCKS_FILE")); v != "" {
		cfg.Input.StocksFile = v
	}
	if v := strings.TrimSpace(getenv("REPORTS_DIR")); v != "" {
		cfg.Output.ReportsDir = v
	}
	if v := strings.TrimSpace(getenv("INDEX_PATH")); v != "" {
		cfg.Output.IndexPath = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(getenv("INDEX_HISTORY"))); err == nil && v >= 0 {
		cfg.Output.IndexHistory = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(getenv("REQUEST_SLEEP_MS"))); err == nil && v >= 0 {
		cfg.News.RequestSleep = time.Duration(v) * time.Millisecond
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(getenv("LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
}

func positiveInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// LoadFromEnv は既定値 → TRACKER_CONFIG → 環境変数の順で設定を作る
//
// フラグを使わない実行環境（Lambda）向け。
func LoadFromEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()
	if path := strings.TrimSpace(getenv("TRACKER_CONFIG")); path != "" {
		if err := LoadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}
	ApplyEnv(cfg, getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// フラグ解析
// =============================================================================

// ParseFlags は CLI 引数を解析して Config を返す
//
// args は os.Args[1:] を想定。フラグは明示的に指定されたものだけが
// 設定ファイルと環境変数の値を上書きする。
func ParseFlags(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)

	var (
		configPath   string
		stocksFile   string
		reportsDir   string
		indexPath    string
		indexHistory int
		days         int
		perStock     int
		sleep        time.Duration
		identity     bool
		dryRun       bool
		logLevel     string
		logFile      string
	)

	fs.StringVar(&configPath, "config", getenv("TRACKER_CONFIG"), "optional: path to YAML settings file")
	fs.StringVar(&stocksFile, "stocks", "", "path to stock list (.json / .yaml)")
	fs.StringVar(&reportsDir, "reports", "", "directory for dated reports")
	fs.StringVar(&indexPath, "index", "", "path to index markdown")
	fs.IntVar(&indexHistory, "indexHistory", 0, "number of past reports listed in the index (0 = latest only)")
	fs.IntVar(&days, "days", 0, "lookback window in days")
	fs.IntVar(&perStock, "perStock", 0, "max news items per stock")
	fs.DurationVar(&sleep, "sleep", 0, "fixed delay between stocks")
	fs.BoolVar(&identity, "requireIdentity", true, "require stock name or code in headlines")
	fs.BoolVar(&dryRun, "dryRun", false, "print the report to stdout instead of writing files")
	fs.StringVar(&logLevel, "logLevel", "", "log level (debug, info, warn, error)")
	fs.StringVar(&logFile, "logFile", "", "optional: append logs to this file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if configPath != "" {
		if err := LoadConfigFile(cfg, configPath); err != nil {
			return nil, err
		}
	}
	ApplyEnv(cfg, getenv)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stocks":
			cfg.Input.StocksFile = stocksFile
		case "reports":
			cfg.Output.ReportsDir = reportsDir
		case "index":
			cfg.Output.IndexPath = indexPath
		case "indexHistory":
			cfg.Output.IndexHistory = indexHistory
		case "days":
			cfg.News.LookbackDays = days
		case "perStock":
			cfg.News.PerStock = perStock
		case "sleep":
			cfg.News.RequestSleep = sleep
		case "requireIdentity":
			cfg.News.RequireIdentity = identity
		case "dryRun":
			cfg.Output.DryRun = dryRun
		case "logLevel":
			cfg.Log.Level = logLevel
		case "logFile":
			cfg.Log.File = logFile
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定の整合性をチェックする
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Input.StocksFile) == "" {
		errs = append(errs, errors.New("stocks file is required"))
	}
	if strings.TrimSpace(c.Output.ReportsDir) == "" {
		errs = append(errs, errors.New("reports dir is required"))
	}
	if strings.TrimSpace(c.Output.IndexPath) == "" {
		errs = append(errs, errors.New("index path is required"))
	}
	if len(uniqStrings(c.News.Include)) == 0 {
		errs = append(errs, errors.New("at least one include keyword is required"))
	}
	if len(c.Revenue.Sources) == 0 {
		errs = append(errs, errors.New("at least one revenue source is required"))
	}
	if c.News.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("lookback days must be positive (got %d)", c.News.LookbackDays))
	}
	if c.News.PerStock <= 0 {
		errs = append(errs, fmt.Errorf("news per stock must be positive (got %d)", c.News.PerStock))
	}
	if c.News.RequestSleep < 0 {
		errs = append(errs, errors.New("request sleep must not be negative"))
	}
	if c.Output.IndexHistory < 0 {
		errs = append(errs, errors.New("index history must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// =============================================================================
// 組み立て
// =============================================================================

// NewTracker は設定から Tracker を組み立てる
//
// HTTP クライアントは全コンポーネントで1つを共有する。
func (c *Config) NewTracker(log logrus.FieldLogger) *Tracker {
	fetch := DefaultFetchConfig()
	fetch.UserAgent = c.HTTP.UserAgent
	fetch.FeedTimeout = c.HTTP.FeedTimeout
	fetch.ResolveTimeout = c.HTTP.ResolveTimeout
	fetch.RevenueTimeout = c.HTTP.RevenueTimeout

	news := &NewsFetcher{
		FeedURL: c.News.FeedURL,
		Locale:  c.News.Locale,
		Filter: KeywordFilter{
			Include:         c.News.Include,
			Exclude:         c.News.Exclude,
			RequireIdentity: c.News.RequireIdentity,
		},
		Fetch: fetch,
		Resolver: &RedirectResolver{
			Fetch:        fetch,
			WrapperHosts: c.News.WrapperHosts,
			Log:          log,
		},
		Log: log,
	}

	revenue := &RevenueFetcher{
		Sources: c.Revenue.Sources,
		Fields:  c.Revenue.Fields,
		Fetch:   fetch,
		Log:     log,
	}

	return &Tracker{
		StocksFile:   c.Input.StocksFile,
		ReportsDir:   c.Output.ReportsDir,
		IndexPath:    c.Output.IndexPath,
		IndexHistory: c.Output.IndexHistory,
		LookbackDays: c.News.LookbackDays,
		PerStock:     c.News.PerStock,
		RequestSleep: c.News.RequestSleep,
		DryRun:       c.Output.DryRun,
		Fields:       c.Revenue.Fields,
		News:         news,
		Revenue:      revenue,
		Log:          log,
	}
}
