// =============================================================================
// revenue.go - 月次売上（營收）の取得
// =============================================================================
//
// 証券取引所の OpenAPI から全上場企業の月次売上を一括取得し、
// 銘柄コード → RevenueRow のマップにまとめます。
//
// 【データソース】（この順で取得・マージ）
//   - TWSE: 上場企業（t187ap05_L）
//   - TPEx: 店頭企業（mopsfin_t187ap05_O）
//
// 【エラー処理】
// ソース単位で失敗を吸収します。失敗したソースは0行として扱い、
// エラーメッセージを RevenueResult.Errors に残して次のソースへ進みます。
//
// =============================================================================
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// RevenueSource は売上 OpenAPI のエンドポイント1つ
type RevenueSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultRevenueSources は TWSE → TPEx の順
func DefaultRevenueSources() []RevenueSource {
	return []RevenueSource{
		{Name: "twse", URL: "https://openapi.twse.com.tw/v1/opendata/t187ap05_L"},
		{Name: "tpex", URL: "https://www.tpex.org.tw/openapi/v1/mopsfin_t187ap05_O"},
	}
}

// RevenueResult は取得結果とソースごとのエラー
type RevenueResult struct {
	Rows   map[string]RevenueRow
	Errors []string
}

// Lookup は銘柄コードの行を返す（なければ nil）
func (r *RevenueResult) Lookup(code string) RevenueRow {
	if r == nil {
		return nil
	}
	return r.Rows[code]
}

// RevenueFetcher は全ソースから売上データを取得する
type RevenueFetcher struct {
	Sources []RevenueSource
	Fields  RevenueFields
	Fetch   FetchConfig
	Log     logrus.FieldLogger
}

// FetchAll は全ソースを順に取得してマージする。エラーは返さない。
func (f *RevenueFetcher) FetchAll(ctx context.Context) *RevenueResult {
	result := &RevenueResult{Rows: map[string]RevenueRow{}}

	perSource := make([][]RevenueRow, 0, len(f.Sources))
	for _, src := range f.Sources {
		rows, err := f.fetchSource(ctx, src)
		if err != nil {
			errMsg := fmt.Sprintf("revenue source %s: %v", src.Name, err)
			if f.Log != nil {
				f.Log.WithField("source", src.Name).Warnf("revenue fetch failed: %v", err)
			}
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if f.Log != nil {
			f.Log.WithField("source", src.Name).Infof("revenue rows: %d", len(rows))
		}
		perSource = append(perSource, rows)
	}

	result.Rows = MergeRevenueRows(f.Fields.Code, perSource...)
	return result
}

// MergeRevenueRows はソース順にマージする
//
// コードが空の行は捨てる。同じコードは後のソースで上書きされる。
func MergeRevenueRows(codeKeys []string, sources ...[]RevenueRow) map[string]RevenueRow {
	merged := map[string]RevenueRow{}
	for _, rows := range sources {
		for _, row := range rows {
			code := FirstNonEmpty(row, codeKeys...)
			if code == "" {
				continue
			}
			merged[code] = row
		}
	}
	return merged
}

func (f *RevenueFetcher) fetchSource(ctx context.Context, src RevenueSource) ([]RevenueRow, error) {
	resp, cancel, err := f.Fetch.get(ctx, src.URL, f.Fetch.RevenueTimeout, "application/json")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer drainClose(resp.Body)

	// 数値は json.Number のまま受け取り、元の表記を崩さずに文字列化する
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("JSON decode failed: %w", err)
	}

	rows := make([]RevenueRow, 0, len(raw))
	for _, obj := range raw {
		row := make(RevenueRow, len(obj))
		for k, v := range obj {
			row[k] = stringifyValue(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stringifyValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
