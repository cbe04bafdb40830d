package cache

import (
	"context"

	ristretto "github.com/dgraph-io/ristretto/v2"
)

// DefaultFrontCost is the byte budget of the in-memory front tier.
const DefaultFrontCost = 64 << 20

// Tiered fronts a backing Store with a ristretto cache. Reads that hit the
// front never touch the backing store; writes go through to both.
type Tiered struct {
	front *ristretto.Cache[string, []byte]
	back  Store
}

// NewTiered wraps back with a front tier holding up to maxCost bytes of
// values. maxCost <= 0 selects DefaultFrontCost.
func NewTiered(back Store, maxCost int64) (*Tiered, error) {
	if maxCost <= 0 {
		maxCost = DefaultFrontCost
	}
	front, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e6,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Tiered{front: front, back: back}, nil
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.front.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	t.front.Set(key, v, int64(len(v)))
	return v, true, nil
}

func (t *Tiered) Put(ctx context.Context, key string, val []byte) error {
	if err := t.back.Put(ctx, key, val); err != nil {
		t.front.Del(key)
		return err
	}
	t.front.Set(key, val, int64(len(val)))
	return nil
}

// DeletePrefix deletes from the backing store and drops the whole front
// tier, which has no prefix index.
func (t *Tiered) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n, err := t.back.DeletePrefix(ctx, prefix)
	t.front.Clear()
	return n, err
}

func (t *Tiered) Count(ctx context.Context, prefix string) (int, error) {
	return t.back.Count(ctx, prefix)
}

// Wait blocks until buffered front-tier writes are applied.
func (t *Tiered) Wait() { t.front.Wait() }

func (t *Tiered) Close() error {
	t.front.Close()
	return t.back.Close()
}
