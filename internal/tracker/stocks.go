// =============================================================================
// stocks.go - 銘柄リストの読み込み
// =============================================================================
//
// 追跡対象の銘柄リストを JSON または YAML ファイルから読み込みます。
//
// 【対応フォーマット】
//   - .json: レコードの配列
//   - .yaml / .yml: レコードのシーケンス
//
// 各レコードは {code, name} のほか、取引所データそのままのキー名
// （证券代号/证券名称、證券代號/證券名稱、公司代號/公司簡稱 など）も受け付けます。
// 数値で書かれたコードは文字列として扱います（JSON は元の表記のまま、
// YAML はスカラーの記述どおり。"0050" も先頭ゼロを保持）。
//
// =============================================================================
package tracker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoStocks は銘柄リストが空の場合のエラー
var ErrNoStocks = errors.New("stock list is empty")

// 同義キー（先頭から順に試す）
var (
	stockCodeKeys = []string{"code", "证券代号", "證券代號", "公司代號"}
	stockNameKeys = []string{"name", "证券名称", "證券名稱", "公司簡稱", "公司名稱"}
)

// LoadStocks は path から銘柄リストを読み込む
func LoadStocks(path string) ([]StockEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stock list: %w", err)
	}
	stocks, err := ParseStocks(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stocks, nil
}

// ParseStocks は拡張子 ext に応じて data をパースする
//
// ".yaml" / ".yml" 以外は JSON として扱う。
func ParseStocks(data []byte, ext string) ([]StockEntry, error) {
	var records []map[string]string
	var err error

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		records, err = parseYAMLRecords(data)
	default:
		records, err = parseJSONRecords(data)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoStocks
	}

	stocks := make([]StockEntry, 0, len(records))
	for i, rec := range records {
		entry := StockEntry{
			Code: FirstNonEmpty(rec, stockCodeKeys...),
			Name: FirstNonEmpty(rec, stockNameKeys...),
		}
		if entry.Code == "" || entry.Name == "" {
			return nil, fmt.Errorf("stock #%d: code and name are required", i+1)
		}
		stocks = append(stocks, entry)
	}
	return stocks, nil
}

func parseJSONRecords(data []byte) ([]map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse JSON stock list: %w", err)
	}

	records := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		rec := make(map[string]string, len(obj))
		for k, v := range obj {
			rec[k] = stringifyValue(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseYAMLRecords(data []byte) ([]map[string]string, error) {
	// yaml.Node で受けてスカラーの元の記述を使う
	var raw []map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML stock list: %w", err)
	}

	records := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		rec := make(map[string]string, len(obj))
		for k, node := range obj {
			if node.Kind == yaml.ScalarNode && node.Tag != "!!null" {
				rec[k] = node.Value
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
