// internal/catalog/cache.go

package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"flavor-solver/internal/common/logger"
	"flavor-solver/internal/common/metrics"
	"flavor-solver/internal/models"
)

// Cache key layout. List keys hold the whole slice as one JSON blob; the
// catalog is small reference data, so there is no point in per-row hashes.
const (
	ingredientKeyPrefix  = "catalog:ingredient:"
	ingredientsListKey   = "catalog:ingredients"
	requirementKeyPrefix = "catalog:requirement:"
	requirementsListKey  = "catalog:requirements"
)

// Cache is a read-through layer over the Store. A Redis failure on read is
// treated as a miss and a failure on write is logged and dropped, so the
// catalog stays available whenever Postgres is. Search results are never
// cached: they depend on the query string and the store serves them cheaply.
type Cache struct {
	store *Store
	redis *redis.Client
	ttl   time.Duration
	log   logger.Logger
}

// NewCache wraps a store with a Redis read-through cache. Entries expire
// after ttl and are invalidated eagerly on upsert.
func NewCache(store *Store, redisClient *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		store: store,
		redis: redisClient,
		ttl:   ttl,
		log:   log,
	}
}

// GetIngredient returns one ingredient, from Redis when present.
func (c *Cache) GetIngredient(ctx context.Context, id string) (models.Ingredient, error) {
	key := ingredientKeyPrefix + id
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var ing models.Ingredient
		if err := json.Unmarshal([]byte(cached), &ing); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("ingredient").Inc()
			return ing, nil
		}
	}
	metrics.CatalogCacheMisses.WithLabelValues("ingredient").Inc()

	ing, err := c.store.GetIngredient(ctx, id)
	if err != nil {
		return models.Ingredient{}, err
	}
	c.put(ctx, key, ing)
	return ing, nil
}

// ListIngredients returns the full catalog, from Redis when present.
func (c *Cache) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	if cached, err := c.redis.Get(ctx, ingredientsListKey).Result(); err == nil {
		var ingredients []models.Ingredient
		if err := json.Unmarshal([]byte(cached), &ingredients); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("ingredient_list").Inc()
			return ingredients, nil
		}
	}
	metrics.CatalogCacheMisses.WithLabelValues("ingredient_list").Inc()

	ingredients, err := c.store.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, ingredientsListKey, ingredients)
	return ingredients, nil
}

// UpsertIngredient writes through to the store and drops the stale entries.
func (c *Cache) UpsertIngredient(ctx context.Context, ing models.Ingredient) error {
	if err := c.store.UpsertIngredient(ctx, ing); err != nil {
		return err
	}
	c.invalidate(ctx, ingredientKeyPrefix+ing.ID, ingredientsListKey)
	return nil
}

// GetRequirement returns one requirement, from Redis when present.
func (c *Cache) GetRequirement(ctx context.Context, id string) (models.Requirement, error) {
	key := requirementKeyPrefix + id
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var req models.Requirement
		if err := json.Unmarshal([]byte(cached), &req); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("requirement").Inc()
			return req, nil
		}
	}
	metrics.CatalogCacheMisses.WithLabelValues("requirement").Inc()

	req, err := c.store.GetRequirement(ctx, id)
	if err != nil {
		return models.Requirement{}, err
	}
	c.put(ctx, key, req)
	return req, nil
}

// ListRequirements returns all named requirements, from Redis when present.
func (c *Cache) ListRequirements(ctx context.Context) ([]models.Requirement, error) {
	if cached, err := c.redis.Get(ctx, requirementsListKey).Result(); err == nil {
		var requirements []models.Requirement
		if err := json.Unmarshal([]byte(cached), &requirements); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("requirement_list").Inc()
			return requirements, nil
		}
	}
	metrics.CatalogCacheMisses.WithLabelValues("requirement_list").Inc()

	requirements, err := c.store.ListRequirements(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, requirementsListKey, requirements)
	return requirements, nil
}

// UpsertRequirement writes through to the store and drops the stale entries.
func (c *Cache) UpsertRequirement(ctx context.Context, req models.Requirement) error {
	if err := c.store.UpsertRequirement(ctx, req); err != nil {
		return err
	}
	c.invalidate(ctx, requirementKeyPrefix+req.ID, requirementsListKey)
	return nil
}

func (c *Cache) put(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (c *Cache) invalidate(ctx context.Context, keys ...string) {
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidation failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}
