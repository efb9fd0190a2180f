// =============================================================================
// filter.go - 見出しキーワードフィルタ
// =============================================================================
//
// ニュース見出しが追跡対象として妥当かどうかを判定します。
//
// 【判定ルール】（上から順に評価）
//  1. 空文字・空白のみの見出しは除外
//  2. include キーワードを1つも含まなければ除外
//  3. exclude キーワードを1つでも含めば除外
//  4. 銘柄名または銘柄コードを含まなければ除外（RequireIdentity 有効時）
//
// 全て大文字小文字を区別する部分一致で、正規化は行いません。
//
// =============================================================================
package tracker

import "strings"

// DefaultIncludeKeywords は決算・営収関連の見出しを拾うキーワード
var DefaultIncludeKeywords = []string{"財報", "營收", "法說會", "EPS"}

// DefaultExcludeKeywords はテクニカル分析・短期売買系のノイズ語
var DefaultExcludeKeywords = []string{
	"技術分析", "K線", "均線", "籌碼", "當沖", "飆股", "短線", "波段", "多空",
	"目標價", "操作", "選股", "盤中", "收盤", "漲停", "跌停", "買點", "賣點",
}

// KeywordFilter は見出しの採否を判定する
type KeywordFilter struct {
	Include []string
	Exclude []string

	// RequireIdentity が true の場合、見出しに銘柄名かコードが必要。
	// 検索結果に他社の記事が混ざるのを防ぐ。
	RequireIdentity bool
}

// Passes は見出しが全ての条件を満たすかを返す
func (f KeywordFilter) Passes(title, code, name string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return false
	}
	if !containsAny(t, f.Include) {
		return false
	}
	if containsAny(t, f.Exclude) {
		return false
	}
	if f.RequireIdentity && !mentionsStock(t, code, name) {
		return false
	}
	return true
}

// TitlePasses は本人確認ありで KeywordFilter.Passes を呼ぶ関数版
func TitlePasses(title string, include, exclude []string, code, name string) bool {
	return KeywordFilter{Include: include, Exclude: exclude, RequireIdentity: true}.Passes(title, code, name)
}

// containsAny は s が keywords のいずれかを含むか（空キーワードは無視）
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func mentionsStock(title, code, name string) bool {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	return (name != "" && strings.Contains(title, name)) ||
		(code != "" && strings.Contains(title, code))
}
