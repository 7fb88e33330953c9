package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"techstore/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func viewKey(productID int64) string {
	return fmt.Sprintf("views:product:%d", productID)
}

// IncrementView buffers one product view. The flush worker drains the buffer
// into the database; losing an increment on failure is acceptable.
func (c *Client) IncrementView(ctx context.Context, productID int64) error {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, viewKey(productID))
	pipe.SAdd(ctx, "views:dirty", productID)
	_, err := pipe.Exec(ctx)
	return err
}

// DrainViews atomically collects and resets all buffered view counters,
// returning productID -> pending view count.
func (c *Client) DrainViews(ctx context.Context) (map[int64]int64, error) {
	ids, err := c.rdb.SMembers(ctx, "views:dirty").Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[int64]int64{}, nil
	}

	out := make(map[int64]int64, len(ids))
	for _, raw := range ids {
		productID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.rdb.SRem(ctx, "views:dirty", raw)
			continue
		}

		val, err := c.rdb.GetDel(ctx, viewKey(productID)).Result()
		if err == redis.Nil {
			c.rdb.SRem(ctx, "views:dirty", raw)
			continue
		}
		if err != nil {
			return out, err
		}

		count, _ := strconv.ParseInt(val, 10, 64)
		if count > 0 {
			out[productID] = count
		}
		c.rdb.SRem(ctx, "views:dirty", raw)
	}
	return out, nil
}

func productKey(productID int64) string {
	return fmt.Sprintf("cache:product:%d", productID)
}

// CacheProduct stores a product snapshot with TTL
func (c *Client) CacheProduct(ctx context.Context, p *models.Product, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(p.ID), data, ttl).Err()
}

// GetCachedProduct retrieves a cached product, or nil on miss
func (c *Client) GetCachedProduct(ctx context.Context, productID int64) (*models.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(productID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateProduct drops a product from the cache after a mutation
func (c *Client) InvalidateProduct(ctx context.Context, productID int64) error {
	return c.rdb.Del(ctx, productKey(productID)).Err()
}
