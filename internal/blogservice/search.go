package blogservice

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sushihentaime/blogsphere/internal/common"
	"golang.org/x/sync/errgroup"
)

// Search matches q as a case-insensitive substring against blog titles and slugs, category
// names, tag names and author names. Queries shorter than MinSearchQuery match nothing.
func (s *BlogService) Search(ctx context.Context, q string, limit int) (*SearchResult, error) {
	res := &SearchResult{
		Categories: []CategoryGroup{},
		Blogs:      []BlogSuggestion{},
		Tags:       []*Tag{},
		Authors:    []*Author{},
	}

	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < MinSearchQuery {
		return res, nil
	}

	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	var (
		blogs      []BlogSuggestion
		categories []CategoryGroup
		tags       []*Tag
		authors    []*Author
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blogs, err = s.store.SearchBlogs(ctx, q, limit)
		return err
	})
	g.Go(func() error {
		var err error
		categories, _, err = s.store.ListCategoryGroups(ctx, q, limit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = s.store.SearchTags(ctx, q, limit)
		return err
	})
	g.Go(func() error {
		var err error
		authors, err = s.store.SearchAuthors(ctx, q, limit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, common.WrapStorage("search", err)
	}

	// nil store results keep the empty defaults; the JSON carries [] not null
	if blogs != nil {
		res.Blogs = blogs
	}
	if categories != nil {
		res.Categories = categories
	}
	if tags != nil {
		res.Tags = tags
	}
	if authors != nil {
		res.Authors = authors
	}

	return res, nil
}

func (s *BlogService) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.store.GetAuthor(ctx, id)
}
