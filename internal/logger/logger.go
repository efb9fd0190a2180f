// Package logger はプロセス全体で共有する logrus ロガーを提供する。
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log はグローバルロガー（InitLogger 前でも使えるよう stderr で初期化済み）
var Log = newDefault()

// logFile は現在 Log が書き込んでいるログファイル（なければ nil）
var logFile *os.File

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&LineFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// LineFormatter は 1 行形式のフォーマッタ
//
// 出力例:
//
//	[2026-10-19 08:00:00] [WARN] [tracker.go:88] news fetch failed stock=2330
type LineFormatter struct{}

// Format は logrus.Formatter を実装する
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileLine string
	if entry.HasCaller() {
		fileLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] ", entry.Time.Format("2006-01-02 15:04:05"), level)
	if fileLine != "" {
		fmt.Fprintf(&b, "[%s] ", fileLine)
	}
	b.WriteString(entry.Message)

	// フィールドはキー順で出力（ログの差分を安定させる）
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// InitLogger はレベルと出力先を設定する
//
// filePath が空でなければ stderr とファイルの両方に書き出す。
// stdout はレポートのパス出力に使うためログには使わない。
// 再度呼ばれた場合、前回開いたログファイルは閉じる。
func InitLogger(levelStr string, filePath string) error {
	l := logrus.New()
	l.SetReportCaller(true)
	l.SetFormatter(&LineFormatter{})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	writers := []io.Writer{os.Stderr}
	var file *os.File
	if filePath != "" {
		logDir := filepath.Dir(filePath)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		file, err = os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	l.SetOutput(io.MultiWriter(writers...))

	prev := logFile
	Log, logFile = l, file
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}
