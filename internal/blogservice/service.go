package blogservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogsphere/internal/common"
)

const (
	maxTxAttempts = 3
	listCacheTTL  = 30 * time.Second
)

func NewBlogService(store Store, cache *common.Cache, logger *slog.Logger) *BlogService {
	return &BlogService{store: store, cache: cache, logger: logger}
}

// inTx runs fn in a transaction, starting over when a concurrent writer grabbed the slug
// fn picked.
func (s *BlogService) inTx(ctx context.Context, fn func(Store) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.store.WithTx(ctx, fn)
		if !errors.Is(err, common.ErrDuplicateSlug) {
			return err
		}
		s.logger.Debug("slug taken concurrently, retrying", "attempt", attempt+1)
	}

	return err
}

// InvalidateProfiles drops every cached blog and page. Cached blogs embed the author and
// commenter profiles, which change without the blog changing.
func (s *BlogService) InvalidateProfiles() {
	s.cache.DeletePrefix(common.CachePrefixBlog)
	s.invalidate()
}

// invalidate drops cached reads that may contain the given blogs.
func (s *BlogService) invalidate(slugs ...string) {
	for _, slug := range slugs {
		if slug != "" {
			s.cache.Delete(common.CacheKeyBlog(slug))
		}
	}
	s.cache.DeletePrefix(common.CachePrefixBlogList)
	s.cache.DeletePrefix(common.CachePrefixTags)
}

func maxPage(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// pagination applies defaults to page and limit and rejects negative values.
func pagination(page, limit, defaultLimit int) (int, int, error) {
	v := common.NewValidator()
	v.Check(page >= 0, "page", "must not be negative")
	v.Check(limit >= 0, "limit", "must not be negative")
	if !v.Valid() {
		return 0, 0, v.ValidationError()
	}

	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return page, limit, nil
}
