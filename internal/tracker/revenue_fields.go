// =============================================================================
// revenue_fields.go - 月次売上フィールドの解決と整形
// =============================================================================
//
// TWSE（上場）と TPEx（店頭）の OpenAPI は同じ概念に別のキー名を使います。
//
//	TWSE / TPEx OpenAPI: "營業收入-當月營收"
//	旧形式のCSV由来:     "當月營收"
//
// そのため値の取り出しは「同義キーを優先順に試して最初の非空値を返す」方式にしています。
//
// =============================================================================
package tracker

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RevenueNotFound は売上データに銘柄コードがない場合の表示文言
const RevenueNotFound = "月營收：找不到資料（TWSE OpenAPI 未回傳該公司代號）"

const (
	monthlyPlaceholder    = "單月（無數值）"
	cumulativePlaceholder = "累計（無數值）"
)

// RevenueFields は各項目の同義キー（優先順）
type RevenueFields struct {
	Code          []string `yaml:"code"`
	MonthRevenue  []string `yaml:"month_revenue"`
	MoM           []string `yaml:"mom"`
	YoY           []string `yaml:"yoy"`
	CumRevenue    []string `yaml:"cum_revenue"`
	CumYoY        []string `yaml:"cum_yoy"`
	ReportedMonth []string `yaml:"reported_month"` // 空なら（資料年月 …）を付けない
}

// DefaultRevenueFields は TWSE / TPEx OpenAPI のキー名
//
// ReportedMonth は既定では空。設定ファイルで ["資料年月"] を指定すると
// サマリー末尾に資料年月が付く。
func DefaultRevenueFields() RevenueFields {
	return RevenueFields{
		Code:         []string{"公司代號", "SecuritiesCompanyCode"},
		MonthRevenue: []string{"營業收入-當月營收", "當月營收"},
		MoM:          []string{"營業收入-上月比較增減(%)", "上月比較增減(%)"},
		YoY:          []string{"營業收入-去年同月增減(%)", "去年同月增減(%)"},
		CumRevenue:   []string{"累計營業收入-當月累計營收", "累計營收"},
		CumYoY:       []string{"累計營業收入-前期比較增減(%)", "前期比較增減(%)"},
	}
}

// FirstNonEmpty は keys を順に調べ、トリム後に空でない最初の値を返す
func FirstNonEmpty(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

var (
	reAllDigits      = regexp.MustCompile(`^\d+$`)
	reZeroFractional = regexp.MustCompile(`^(\d+)\.0+$`)

	numberPrinter = message.NewPrinter(language.English)
)

// FormatIntLike は整数とみなせる文字列を3桁区切りにする
//
//	FormatIntLike("1234567")    // "1,234,567"
//	FormatIntLike("1234567.00") // "1,234,567"
//	FormatIntLike("12.5")       // "12.5"（整数ではないのでそのまま）
//
// int64 に収まらない桁数や数字以外を含む値はそのまま返す。
func FormatIntLike(s string) string {
	t := strings.TrimSpace(s)

	digits := ""
	switch {
	case reAllDigits.MatchString(t):
		digits = t
	case reZeroFractional.MatchString(t):
		digits = reZeroFractional.FindStringSubmatch(t)[1]
	default:
		return s
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return s
	}
	return numberPrinter.Sprintf("%d", n)
}

// FormatRevenueSummary は1銘柄分の売上サマリー行を組み立てる
//
// 出力例:
//
//	月營收：單月 236,021,112 / MoM 12.5% / YoY 39.6%；累計 2,025,846,521 / 累計YoY 31.8%
//
// row が nil（該当コードなし）の場合は RevenueNotFound を返す。
func FormatRevenueSummary(row RevenueRow, fields RevenueFields) string {
	if row == nil {
		return RevenueNotFound
	}

	var monthly []string
	if v := FirstNonEmpty(row, fields.MonthRevenue...); v != "" {
		monthly = append(monthly, "單月 "+FormatIntLike(v))
	}
	if v := FirstNonEmpty(row, fields.MoM...); v != "" {
		monthly = append(monthly, "MoM "+percent(v))
	}
	if v := FirstNonEmpty(row, fields.YoY...); v != "" {
		monthly = append(monthly, "YoY "+percent(v))
	}

	var cumulative []string
	if v := FirstNonEmpty(row, fields.CumRevenue...); v != "" {
		cumulative = append(cumulative, "累計 "+FormatIntLike(v))
	}
	if v := FirstNonEmpty(row, fields.CumYoY...); v != "" {
		cumulative = append(cumulative, "累計YoY "+percent(v))
	}

	s1 := monthlyPlaceholder
	if len(monthly) > 0 {
		s1 = strings.Join(monthly, " / ")
	}
	s2 := cumulativePlaceholder
	if len(cumulative) > 0 {
		s2 = strings.Join(cumulative, " / ")
	}

	summary := "月營收：" + s1 + "；" + s2
	if ym := FirstNonEmpty(row, fields.ReportedMonth...); ym != "" {
		summary += "（資料年月 " + ym + "）"
	}
	return summary
}

// percent は "%" を付ける（既に付いていれば何もしない）
func percent(v string) string {
	if strings.HasSuffix(v, "%") {
		return v
	}
	return v + "%"
}
