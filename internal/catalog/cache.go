package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "catalog:product:"
	barcodeKeyPrefix = "catalog:barcode:"
	listKey          = "catalog:products"
)

// Cache is a read-through product cache over Redis. Hits skip the wrapped
// service entirely; misses fall through and store what they find. Redis
// being down degrades to pass-through, never to an error.
type Cache struct {
	inner Service
	rdb   *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

func NewCache(inner Service, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	return &Cache{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *Cache) GetProduct(ctx context.Context, id string) (Product, error) {
	if p, ok := c.lookup(ctx, productKeyPrefix+id); ok {
		return p, nil
	}
	p, err := c.inner.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	c.store(ctx, p)
	return p, nil
}

func (c *Cache) LookupByBarcode(ctx context.Context, code string) (Product, error) {
	if p, ok := c.lookup(ctx, barcodeKeyPrefix+code); ok {
		return p, nil
	}
	p, err := c.inner.LookupByBarcode(ctx, code)
	if err != nil {
		return Product{}, err
	}
	c.store(ctx, p)
	return p, nil
}

func (c *Cache) ListProducts(ctx context.Context) ([]Product, error) {
	if b, err := c.rdb.Get(ctx, listKey).Bytes(); err == nil {
		var ps []Product
		if json.Unmarshal(b, &ps) == nil {
			return ps, nil
		}
	} else if err != redis.Nil {
		c.log.Debug("catalog cache read failed", "key", listKey, "err", err)
	}
	ps, err := c.inner.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(ps); err == nil {
		if err := c.rdb.Set(ctx, listKey, b, c.ttl).Err(); err != nil {
			c.log.Debug("catalog cache write failed", "key", listKey, "err", err)
		}
	}
	return ps, nil
}

func (c *Cache) lookup(ctx context.Context, key string) (Product, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("catalog cache read failed", "key", key, "err", err)
		}
		return Product{}, false
	}
	var p Product
	if err := json.Unmarshal(b, &p); err != nil {
		return Product{}, false
	}
	return p, true
}

func (c *Cache) store(ctx context.Context, p Product) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, productKeyPrefix+p.ID, b, c.ttl)
	if p.Barcode != "" {
		pipe.Set(ctx, barcodeKeyPrefix+p.Barcode, b, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Debug("catalog cache write failed", "product_id", p.ID, "err", err)
	}
}
