package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arnoldhere/RetailIQ-sub000/internal/catalog"
	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
)

const notFoundMarker = "notfound"

// CachedProductRepository is a read-through decorator over the catalog
// repository. It serves display lookups only; stock arithmetic always goes
// to Postgres, so a stale cached stock_available is harmless here.
type CachedProductRepository struct {
	repo  catalog.Repository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProductRepository(repo catalog.Repository, rdb *redis.Client) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		redis: rdb,
		ttl:   5 * time.Minute,
	}
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	key := fmt.Sprintf("product:%s", id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, fault.NotFound("product %s not found", id)
		}
		var p catalog.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		log.Printf("[Cache] Corrupt cached product %s, falling through to DB", id)
	case errors.Is(err, redis.Nil):
		// cache miss
	default:
		log.Printf("[Cache] Redis error (continuing with DB): %v", err)
	}

	p, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if fault.KindOf(err) == fault.KindNotFound {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				log.Printf("[Cache] Failed to cache notfound for %s: %v", id, setErr)
			}
		}
		return nil, err
	}

	if jsonData, err := json.Marshal(p); err == nil {
		if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
			log.Printf("[Cache] Failed to cache product %s: %v", id, err)
		}
	}
	return p, nil
}

func (c *CachedProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	key := "products:all"

	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var products []catalog.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[Cache] Redis error (continuing with DB): %v", err)
	}

	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if jsonData, err := json.Marshal(products); err == nil {
		if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
			log.Printf("[Cache] Failed to cache product list: %v", err)
		}
	}
	return products, nil
}
