package session

import (
	"context"
	"sync"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
)

// MemoryStore はプロセス内のmapにカートを持つ。開発・テスト用。
// 1つのロックで全セッションを直列化する。
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]model.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]model.Cart)}
}

// 無ければ空のカート
func (m *MemoryStore) Load(ctx context.Context, sessionID string) (model.Cart, error) {
	if err := ctx.Err(); err != nil {
		return model.Cart{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.carts[sessionID].Clone(), nil
}

// fnがエラーを返したら保存しない
func (m *MemoryStore) Update(ctx context.Context, sessionID string, fn func(model.Cart) (model.Cart, error)) (model.Cart, error) {
	if err := ctx.Err(); err != nil {
		return model.Cart{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.carts[sessionID].Clone()
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	if next.Len() == 0 {
		delete(m.carts, sessionID)
		return model.Cart{}, nil
	}
	m.carts[sessionID] = next.Clone()
	return next.Clone(), nil
}
