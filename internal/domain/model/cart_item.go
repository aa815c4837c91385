package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// 明細のオプション（サイズ・色など）。追加時点でスナップショットする。
type Options map[string]any

// JSON文字列またはmapを受け取り、解釈できなければ空のOptionsを返す。
func ParseOptions(v any) Options {
	switch t := v.(type) {
	case nil:
		return Options{}
	case Options:
		return t.Clone()
	case map[string]any:
		return Options(t).Clone()
	case map[string]string:
		out := make(Options, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case string:
		return parseOptionsJSON([]byte(t))
	case []byte:
		return parseOptionsJSON(t)
	case json.RawMessage:
		return parseOptionsJSON(t)
	default:
		return Options{}
	}
}

func parseOptionsJSON(b []byte) Options {
	var out Options
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return Options{}
	}
	return out
}

func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// キー順が固定されたJSON表現。JSONにできない値（chan, NaN など）はエラー。
func (o Options) Canonical() ([]byte, error) {
	if len(o) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(map[string]any(o))
	if err != nil {
		return nil, fmt.Errorf("options not encodable: %w", err)
	}
	return b, nil
}

// カートの1明細。
// Key は (商品ID, 単価, 重量, オプション) から導出される。
type CartItem struct {
	Key           string          `json:"key"`
	ProductID     int64           `json:"id"`
	Price         decimal.Decimal `json:"price"`
	OldPrice      decimal.Decimal `json:"old_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	DiscountCost  decimal.Decimal `json:"discount_cost"`
	Weight        decimal.Decimal `json:"weight"`
	Count         int64           `json:"count"`
	Options       Options         `json:"options"`
	Ctx           string          `json:"ctx"`
}

// 単価×数量
func (i CartItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Count))
}

// 数量を変えた明細を返す。値引き額も再計算する。
func (i CartItem) WithCount(count int64) CartItem {
	i.Count = count
	i.DiscountCost = i.DiscountPrice.Mul(decimal.NewFromInt(count))
	i.Options = i.Options.Clone()
	return i
}
