package roster

import (
	"fmt"

	"clocktower/internal/catalog"
	"clocktower/internal/script"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheKey identifies a rendering: a stored config version under a catalog
// version.
type CacheKey struct {
	ConfigVersion  string
	CatalogVersion int64
}

// Cache memoizes rendered panels.
type Cache struct {
	lru *lru.Cache[CacheKey, Panel]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[CacheKey, Panel](size)
	if err != nil {
		return nil, fmt.Errorf("roster cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

// Render returns the cached panel for (version, cat) or renders and stores it.
func (c *Cache) Render(version string, cfg script.Config, cat *catalog.Catalog, icons Icons) Panel {
	key := CacheKey{ConfigVersion: version, CatalogVersion: cat.Version()}
	if p, ok := c.lru.Get(key); ok {
		return p
	}
	p := Render(cfg, cat, icons)
	c.lru.Add(key, p)
	return p
}

func (c *Cache) Len() int { return c.lru.Len() }

func (c *Cache) Purge() { c.lru.Purge() }
