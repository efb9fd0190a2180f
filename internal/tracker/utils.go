// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// パッケージ内で共通に使う小さなヘルパー関数をまとめています。
//
// 【このファイルで提供する機能】
//   - 文字列スライスの重複削除
//   - URLベースの NewsItem 重複排除
//   - テキストファイルの書き出し（親ディレクトリ作成つき）
//
// =============================================================================
package tracker

import (
	"fmt"
	"os"
	"path/filepath"
)

// uniqStrings は文字列スライスから重複と空文字列を除去する
//
// 最初に出現した順序を保つ。
//
//	uniqStrings([]string{"a", "b", "a", "", "c"})  // ["a", "b", "c"]
func uniqStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// uniqueNewsByURL は URL に基づいて NewsItem の重複を除去する
//
// 同じ記事が複数銘柄の検索結果に出た場合、最初の銘柄のものだけを残す。
// URL が空の記事は除外される。
func uniqueNewsByURL(in []NewsItem) []NewsItem {
	seen := map[string]bool{}
	out := make([]NewsItem, 0, len(in))
	for _, n := range in {
		if n.URL == "" || seen[n.URL] {
			continue
		}
		seen[n.URL] = true
		out = append(out, n)
	}
	return out
}

// writeTextFile は content を path に書き出す（既存ファイルは上書き）
//
// 【ファイル権限】0o644 = 所有者は読み書き可、他は読み取りのみ
func writeTextFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
