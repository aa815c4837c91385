package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// カートの集計値。Extra は呼び出し側が付け足す項目（key, cost など）。
type CartStatus struct {
	TotalCount     int64           `json:"total_count"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalWeight    decimal.Decimal `json:"total_weight"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	TotalPositions int             `json:"total_positions"`
	Extra          map[string]any  `json:"-"`
}

// Extra を同じ階層に展開する。集計値の名前が優先。
func (s CartStatus) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+5)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["total_count"] = s.TotalCount
	out["total_cost"] = s.TotalCost
	out["total_weight"] = s.TotalWeight
	out["total_discount"] = s.TotalDiscount
	out["total_positions"] = s.TotalPositions
	return json.Marshal(out)
}
