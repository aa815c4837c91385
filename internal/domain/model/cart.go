package model

import "encoding/json"

// Key → CartItem の対応。追加順を保持する。
// 変更系メソッドは元を書き換えず、新しいCartを返す。
type Cart struct {
	order []string
	items map[string]CartItem
}

func NewCart(items ...CartItem) Cart {
	c := Cart{}
	for _, it := range items {
		c = c.with(it)
	}
	return c
}

func (c Cart) Len() int {
	return len(c.order)
}

func (c Cart) Has(key string) bool {
	_, ok := c.items[key]
	return ok
}

func (c Cart) Get(key string) (CartItem, bool) {
	it, ok := c.items[key]
	return it, ok
}

func (c Cart) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// 追加順の明細一覧（コピー）
func (c Cart) Items() []CartItem {
	out := make([]CartItem, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out
}

// 同じKeyがあれば置き換え、無ければ末尾に追加
func (c Cart) With(item CartItem) Cart {
	return c.Clone().with(item)
}

func (c Cart) Without(key string) Cart {
	return c.Filter(func(it CartItem) bool { return it.Key != key })
}

// 数量を変更したCartを返す。Keyが無ければfalse。
func (c Cart) WithCount(key string, count int64) (Cart, bool) {
	it, ok := c.items[key]
	if !ok {
		return c, false
	}
	return c.With(it.WithCount(count)), true
}

// ctxに属する明細（ctx未設定を含む）を除いたCartを返す。
// ctxが空なら全明細を除く。
func (c Cart) WithoutContext(ctx string) Cart {
	if ctx == "" {
		return Cart{}
	}
	return c.Filter(func(it CartItem) bool {
		return it.Ctx != "" && it.Ctx != ctx
	})
}

func (c Cart) Filter(keep func(CartItem) bool) Cart {
	out := Cart{}
	for _, k := range c.order {
		if it := c.items[k]; keep(it) {
			out = out.with(it)
		}
	}
	return out
}

func (c Cart) Clone() Cart {
	return c.Filter(func(CartItem) bool { return true })
}

func (c Cart) with(item CartItem) Cart {
	if c.items == nil {
		c.items = make(map[string]CartItem)
	}
	if _, ok := c.items[item.Key]; !ok {
		c.order = append(c.order, item.Key)
	}
	item.Options = item.Options.Clone()
	c.items[item.Key] = item
	return c
}

// 追加順の配列として保存する
func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var items []CartItem
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*c = NewCart(items...)
	return nil
}
