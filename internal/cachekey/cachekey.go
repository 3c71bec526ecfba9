// Package cachekey builds the Redis keys shared by the product list and
// report caches, and clears them when an association's data changes.
package cachekey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/fekuna/omnipos-donation-service/pkg/cache"
)

func ProductList(associationID string, filters any) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("donation:%s:products:%016x", associationID, xxhash.Sum64(data)), nil
}

func Report(associationID, name string, params ...any) string {
	key := fmt.Sprintf("donation:%s:reports:%s", associationID, name)
	for _, p := range params {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Invalidate drops every cached list and report of the association.
func Invalidate(ctx context.Context, c *cache.RedisClient, associationID string) error {
	return c.DeleteByPattern(ctx, fmt.Sprintf("donation:%s:*", associationID))
}
