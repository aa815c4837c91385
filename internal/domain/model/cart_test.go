package model_test

import (
	"encoding/json"
	"testing"

	"github.com/ShevArtV/miniShop2/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(key string, count int64, ctx string) model.CartItem {
	return model.CartItem{
		Key:           key,
		ProductID:     1,
		Price:         decimal.NewFromInt(10),
		DiscountPrice: decimal.NewFromInt(2),
		Weight:        decimal.NewFromInt(1),
		Count:         count,
		Options:       model.Options{},
		Ctx:           ctx,
	}
}

func TestCart_WithKeepsInsertionOrder(t *testing.T) {
	c := model.NewCart(item("b", 1, "web"), item("a", 1, "web"))
	c = c.With(item("c", 1, "web"))
	c = c.With(item("b", 5, "web"))

	assert.Equal(t, []string{"b", "a", "c"}, c.Keys())
	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(5), got.Count)
}

func TestCart_ValueSemantics(t *testing.T) {
	orig := model.NewCart(item("a", 1, "web"))

	next := orig.With(item("b", 1, "web"))
	_ = orig.Without("a")

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, 2, next.Len())
	assert.True(t, orig.Has("a"))
}

func TestCart_WithCount(t *testing.T) {
	c := model.NewCart(item("a", 1, "web"))

	next, ok := c.WithCount("a", 4)
	require.True(t, ok)
	got, _ := next.Get("a")
	assert.Equal(t, int64(4), got.Count)
	assert.True(t, decimal.NewFromInt(8).Equal(got.DiscountCost))

	_, ok = c.WithCount("missing", 4)
	assert.False(t, ok)
}

func TestCart_WithoutContext(t *testing.T) {
	c := model.NewCart(
		item("web1", 1, "web"),
		item("mgr1", 1, "mgr"),
		item("none", 1, ""),
	)

	assert.Equal(t, []string{"mgr1"}, c.WithoutContext("web").Keys())
	assert.Equal(t, 0, c.WithoutContext("").Len())
}

func TestCart_JSONRoundTrip(t *testing.T) {
	c := model.NewCart(item("z", 2, "web"), item("a", 3, "web"))

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var back model.Cart
	require.NoError(t, json.Unmarshal(b, &back))

	assert.Equal(t, []string{"z", "a"}, back.Keys())
	got, _ := back.Get("a")
	assert.Equal(t, int64(3), got.Count)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Price))
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want model.Options
	}{
		{"nil", nil, model.Options{}},
		{"map", map[string]any{"size": "L"}, model.Options{"size": "L"}},
		{"string map", map[string]string{"color": "red"}, model.Options{"color": "red"}},
		{"json string", `{"size":"M"}`, model.Options{"size": "M"}},
		{"broken json", `{"size":`, model.Options{}},
		{"json array", `["a"]`, model.Options{}},
		{"json null", `null`, model.Options{}},
		{"number", 42, model.Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.ParseOptions(tt.in))
		})
	}
}

func TestOptions_CanonicalIgnoresInsertionOrder(t *testing.T) {
	a := model.ParseOptions(`{"size":"L","color":"red"}`)
	b := model.ParseOptions(`{"color":"red","size":"L"}`)

	ca, err := a.Canonical()
	require.NoError(t, err)
	cb, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))

	empty, err := model.Options{}.Canonical()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestOptions_CanonicalRejectsUnencodable(t *testing.T) {
	_, err := model.Options{"f": func() {}}.Canonical()

	assert.Error(t, err)
}

func TestCartStatus_MarshalFlattensExtra(t *testing.T) {
	st := model.CartStatus{
		TotalCount:     2,
		TotalCost:      decimal.NewFromInt(20),
		TotalWeight:    decimal.NewFromInt(2),
		TotalDiscount:  decimal.Zero,
		TotalPositions: 1,
		Extra:          map[string]any{"key": "abc", "total_count": 99},
	}

	b, err := json.Marshal(st)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "abc", m["key"])
	assert.Equal(t, float64(2), m["total_count"])
	assert.Equal(t, float64(1), m["total_positions"])
	assert.Equal(t, "20", m["total_cost"])
}

func TestProduct_DiscountPrice(t *testing.T) {
	p := model.Product{Price: decimal.NewFromInt(80), OldPrice: decimal.NewFromInt(100)}
	assert.True(t, decimal.NewFromInt(20).Equal(p.DiscountPrice()))

	p.OldPrice = decimal.NewFromInt(50)
	assert.True(t, decimal.Zero.Equal(p.DiscountPrice()))
}
