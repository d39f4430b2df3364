package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Delete(keys ...string) {
	for _, k := range keys {
		c.Cache.Delete(k)
	}
}

// DeletePrefix drops every entry whose key starts with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for k := range c.Cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.Cache.Delete(k)
		}
	}
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

const (
	CachePrefixBlog     = "blog:"
	CachePrefixBlogList = "blogs:"
	CachePrefixTags     = "tags:"
)

func CacheKeyBlog(slug string) string {
	return CachePrefixBlog + slug
}

func CacheKeyBlogs(page, limit int, author, tag, category string) string {
	return CachePrefixBlogList + strconv.Itoa(page) + ":" + strconv.Itoa(limit) + ":" + author + ":" + tag + ":" + category
}

func CacheKeyTags(page, limit int) string {
	return CachePrefixTags + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}
