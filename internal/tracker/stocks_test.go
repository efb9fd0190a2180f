package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStocks(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
		want []StockEntry
	}{
		{
			name: "plain json",
			data: `[{"code":"2330","name":"台積電"},{"code":"2454","name":"聯發科"}]`,
			ext:  ".json",
			want: []StockEntry{{Code: "2330", Name: "台積電"}, {Code: "2454", Name: "聯發科"}},
		},
		{
			name: "provider keys and numeric code",
			data: `[{"證券代號":2330,"證券名稱":"台積電"},{"公司代號":"6488","公司簡稱":"環球晶"},{"证券代号":"2317","证券名称":" 鴻海 "}]`,
			ext:  ".json",
			want: []StockEntry{{Code: "2330", Name: "台積電"}, {Code: "6488", Name: "環球晶"}, {Code: "2317", Name: "鴻海"}},
		},
		{
			name: "company full name",
			data: `[{"公司代號":"2330","公司名稱":"台灣積體電路製造股份有限公司"}]`,
			ext:  ".JSON",
			want: []StockEntry{{Code: "2330", Name: "台灣積體電路製造股份有限公司"}},
		},
		{
			name: "yaml keeps leading zeros",
			data: "- code: 0050\n  name: 元大台灣50\n- code: 2330\n  name: 台積電\n",
			ext:  ".yaml",
			want: []StockEntry{{Code: "0050", Name: "元大台灣50"}, {Code: "2330", Name: "台積電"}},
		},
		{
			name: "yml extension",
			data: "- 公司代號: \"2454\"\n  公司簡稱: 聯發科\n",
			ext:  ".yml",
			want: []StockEntry{{Code: "2454", Name: "聯發科"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStocks([]byte(tt.data), tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStocksErrors(t *testing.T) {
	_, err := ParseStocks([]byte(`[]`), ".json")
	assert.True(t, errors.Is(err, ErrNoStocks))

	_, err = ParseStocks([]byte(""), ".yaml")
	assert.True(t, errors.Is(err, ErrNoStocks))

	_, err = ParseStocks([]byte(`[{"code":"2330"}]`), ".json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stock #1")

	_, err = ParseStocks([]byte(`[{"code":null,"name":"台積電"}]`), ".json")
	require.Error(t, err)

	_, err = ParseStocks([]byte(`{"code":"2330"}`), ".json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse JSON stock list")

	_, err = ParseStocks([]byte("code: 2330\n"), ".yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML stock list")
}

func TestLoadStocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"code":"2330","name":"台積電"}]`), 0o644))

	got, err := LoadStocks(path)
	require.NoError(t, err)
	assert.Equal(t, []StockEntry{{Code: "2330", Name: "台積電"}}, got)

	_, err = LoadStocks(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
