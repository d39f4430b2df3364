package blogservice

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

// resolveCategory returns the category a blog of authorID goes into: categoryID if it is one
// of the author's categories, the author's general category if categoryID is nil.
func resolveCategory(ctx context.Context, store CategoryStore, authorID int64, categoryID *int64) (*Category, error) {
	if categoryID == nil {
		return store.EnsureGeneralCategory(ctx, authorID)
	}

	cat, err := store.GetCategoryByID(ctx, *categoryID)
	switch {
	case errors.Is(err, common.ErrRecordNotFound):
		return nil, common.NewValidationError("category", "does not exist")
	case err != nil:
		return nil, err
	case cat.UserID != authorID:
		return nil, common.NewValidationError("category", "does not exist")
	}

	return cat, nil
}

// CreateBlog publishes a new blog for authorID.
//
// The banner is stored (or reused) first. Slug, category counter, author counter and the
// blog row are then written in one transaction; if that fails a banner stored by this call
// is released again. Tags are attached last and a failure there only adds a warning.
func (s *BlogService) CreateBlog(ctx context.Context, authorID int64, in CreateBlogInput) (*Blog, error) {
	if authorID <= 0 {
		return nil, common.ErrUnauthorized
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)

	v := common.NewValidator()
	validateTitle(v, in.Title)
	validateContent(v, in.Content)
	names := parseTags(v, in.TagText)
	if in.CategoryID != nil {
		validateID(v, *in.CategoryID, "category")
	}
	if in.Banner != nil {
		validateUpload(v, "banner", in.Banner)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:    in.Title,
		Content:  sanitizeMarkdown(in.Content),
		Status:   StatusPublished,
		AuthorID: authorID,
	}

	var banner *Image
	var created bool
	if in.Banner != nil {
		var err error
		banner, created, err = saveImage(ctx, s.store, in.Banner)
		if err != nil {
			return nil, err
		}
		blog.BannerImageID = &banner.ID
	}

	err := s.inTx(ctx, func(store Store) error {
		cat, err := resolveCategory(ctx, store, authorID, in.CategoryID)
		if err != nil {
			return err
		}
		blog.CategoryID = cat.ID

		blog.Slug, err = uniqueBlogSlug(ctx, store, blog.Title, 0)
		if err != nil {
			return err
		}

		if err := store.AdjustCategoryCount(ctx, cat.ID, 1); err != nil {
			return err
		}

		if err := store.AdjustUserBlogCount(ctx, authorID, 1); err != nil {
			if errors.Is(err, common.ErrRecordNotFound) {
				return common.ErrUnauthorized
			}
			return err
		}

		return store.InsertBlog(ctx, blog)
	})
	if err != nil {
		if created {
			s.ReleaseImage(ctx, banner.ID)
		}
		return nil, common.WrapStorage("create blog", err)
	}

	tags, warnings := s.attachTags(ctx, blog.ID, names)
	// num_blogs moved, so every cached blog by this author is stale
	s.InvalidateProfiles()

	full, err := s.loadBlog(ctx, blog.Slug)
	if err != nil {
		s.logger.Warn("could not reload created blog", "slug", blog.Slug, "error", err)
		blog.Tags = tags
		full = blog
	}
	full.Warnings = warnings

	return full, nil
}

// UpdateBlog applies in to blog. Only the author may update it.
//
// A new title regenerates the slug. A new category moves one unit of blog count from the
// old category to the new one in the same transaction as the row update. A replaced
// banner is released once nothing references it.
func (s *BlogService) UpdateBlog(ctx context.Context, blog *Blog, authorID int64, in UpdateBlogInput) (*Blog, error) {
	if blog.AuthorID != authorID {
		return nil, common.ErrForbidden
	}

	v := common.NewValidator()
	if in.Title != nil {
		*in.Title = strings.TrimSpace(*in.Title)
		validateTitle(v, *in.Title)
	}
	if in.Content != nil {
		*in.Content = strings.TrimSpace(*in.Content)
		validateContent(v, *in.Content)
	}
	if in.CategoryID != nil {
		validateID(v, *in.CategoryID, "category")
	}
	var names []string
	if in.TagText != nil {
		names = parseTags(v, *in.TagText)
	}
	if in.Banner != nil {
		validateUpload(v, "banner", in.Banner)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var banner *Image
	var created bool
	if in.Banner != nil {
		var err error
		banner, created, err = saveImage(ctx, s.store, in.Banner)
		if err != nil {
			return nil, err
		}
	}

	var updated *Blog
	var oldBanner *int64
	err := s.inTx(ctx, func(store Store) error {
		current, err := store.LockBlog(ctx, blog.ID)
		if err != nil {
			return err
		}
		if current.AuthorID != authorID {
			return common.ErrForbidden
		}
		oldBanner = current.BannerImageID

		if in.Title != nil && *in.Title != current.Title {
			current.Title = *in.Title
			current.Slug, err = uniqueBlogSlug(ctx, store, current.Title, current.ID)
			if err != nil {
				return err
			}
		}

		if in.Content != nil {
			current.Content = sanitizeMarkdown(*in.Content)
		}

		if in.CategoryID != nil && *in.CategoryID != current.CategoryID {
			cat, err := resolveCategory(ctx, store, authorID, in.CategoryID)
			if err != nil {
				return err
			}
			if err := store.AdjustCategoryCount(ctx, current.CategoryID, -1); err != nil {
				return err
			}
			if err := store.AdjustCategoryCount(ctx, cat.ID, 1); err != nil {
				return err
			}
			current.CategoryID = cat.ID
		}

		if banner != nil {
			current.BannerImageID = &banner.ID
		}

		if err := store.UpdateBlog(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		if created {
			s.ReleaseImage(ctx, banner.ID)
		}
		return nil, common.WrapStorage("update blog", err)
	}

	if banner != nil && oldBanner != nil && *oldBanner != banner.ID {
		s.ReleaseImage(ctx, *oldBanner)
	}

	var warnings []string
	if in.TagText != nil {
		warnings = s.syncTags(ctx, updated.ID, names)
	}
	s.invalidate(blog.Slug, updated.Slug)

	full, err := s.loadBlog(ctx, updated.Slug)
	if err != nil {
		s.logger.Warn("could not reload updated blog", "slug", updated.Slug, "error", err)
		full = updated
	}
	full.Warnings = warnings

	return full, nil
}

// DeleteBlog removes blog and everything only it was holding on to. Only the author may
// delete it.
//
// Counters, junctions, comments and the row go in one transaction. Tags and the banner
// are reclaimed afterwards, each only if nothing else references it, so calling DeleteBlog
// again for the same blog is harmless: the cleanup steps are no-ops and the call reports
// common.ErrRecordNotFound.
func (s *BlogService) DeleteBlog(ctx context.Context, blog *Blog, authorID int64) error {
	if blog.AuthorID != authorID {
		return common.ErrForbidden
	}

	tagIDs := make(map[int64]bool)
	for _, tag := range blog.Tags {
		tagIDs[tag.ID] = true
	}

	banner := blog.BannerImageID
	found := true
	err := s.store.WithTx(ctx, func(store Store) error {
		current, err := store.LockBlog(ctx, blog.ID)
		if errors.Is(err, common.ErrRecordNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		banner = current.BannerImageID

		if err := store.AdjustCategoryCount(ctx, current.CategoryID, -1); err != nil {
			return err
		}

		unlinked, err := store.UnlinkAllTags(ctx, current.ID)
		if err != nil {
			return err
		}
		for _, id := range unlinked {
			tagIDs[id] = true
		}

		if err := store.DeleteBlogComments(ctx, current.ID); err != nil {
			return err
		}

		if err := store.AdjustUserBlogCount(ctx, current.AuthorID, -1); err != nil && !errors.Is(err, common.ErrRecordNotFound) {
			return err
		}

		return store.DeleteBlog(ctx, current.ID)
	})
	if err != nil {
		return common.WrapStorage("delete blog", err)
	}

	for id := range tagIDs {
		s.reclaimTag(ctx, id)
	}
	if banner != nil {
		s.ReleaseImage(ctx, *banner)
	}
	s.InvalidateProfiles()

	if !found {
		return common.ErrRecordNotFound
	}

	return nil
}

// SetBlogStatus moves a blog between published and archived. Only the author may do so.
func (s *BlogService) SetBlogStatus(ctx context.Context, blog *Blog, authorID int64, status Status) (*Blog, error) {
	if !status.Valid() {
		return nil, common.NewValidationError("status", "must be published or archived")
	}
	if blog.AuthorID != authorID {
		return nil, common.ErrForbidden
	}

	var updated *Blog
	err := s.store.WithTx(ctx, func(store Store) error {
		current, err := store.LockBlog(ctx, blog.ID)
		if err != nil {
			return err
		}

		updated = current
		if current.Status == status {
			return nil
		}

		current.Status = status
		return store.UpdateBlog(ctx, current)
	})
	if err != nil {
		return nil, common.WrapStorage("set blog status", err)
	}

	s.invalidate(updated.Slug)
	return updated, nil
}

// loadBlog reads a blog with its author, category, tags and comments.
func (s *BlogService) loadBlog(ctx context.Context, slug string) (*Blog, error) {
	blog, err := s.store.GetBlogBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if blog.Tags, err = s.store.TagsForBlog(ctx, blog.ID); err != nil {
		return nil, err
	}

	if blog.Comments, err = s.store.CommentsForBlog(ctx, blog.ID); err != nil {
		return nil, err
	}

	return blog, nil
}

// GetBlog returns the blog with the given slug, whatever its status.
func (s *BlogService) GetBlog(ctx context.Context, slug string) (*Blog, error) {
	if slug == "" {
		return nil, common.NewValidationError("slug", "must be provided")
	}

	key := common.CacheKeyBlog(slug)
	if cached, ok := s.cache.Get(key); ok {
		if b, ok := cached.(Blog); ok {
			return &b, nil
		}
	}

	blog, err := s.loadBlog(ctx, slug)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, *blog)
	return blog, nil
}

// ListBlogs returns a page of published blogs, newest first.
func (s *BlogService) ListBlogs(ctx context.Context, f ListBlogsFilter) (*BlogPage, error) {
	page, limit, err := pagination(f.Page, f.Limit, DefaultBlogLimit)
	if err != nil {
		return nil, err
	}
	f.Page, f.Limit, f.Status = page, limit, StatusPublished

	key := common.CacheKeyBlogs(page, limit, idString(f.AuthorID), idString(f.TagID), f.CategorySlug)
	if cached, ok := s.cache.Get(key); ok {
		if p, ok := cached.(*BlogPage); ok {
			return p, nil
		}
	}

	p, err := s.listBlogs(ctx, f)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, p, listCacheTTL)
	return p, nil
}

// ListArchivedBlogs returns a page of the author's archived blogs.
func (s *BlogService) ListArchivedBlogs(ctx context.Context, authorID int64, page, limit int) (*BlogPage, error) {
	page, limit, err := pagination(page, limit, DefaultBlogLimit)
	if err != nil {
		return nil, err
	}

	return s.listBlogs(ctx, ListBlogsFilter{Page: page, Limit: limit, AuthorID: authorID, Status: StatusArchived})
}

func (s *BlogService) listBlogs(ctx context.Context, f ListBlogsFilter) (*BlogPage, error) {
	blogs, total, err := s.store.ListBlogs(ctx, f)
	if err != nil {
		return nil, err
	}

	for _, b := range blogs {
		if b.Tags, err = s.store.TagsForBlog(ctx, b.ID); err != nil {
			return nil, err
		}
	}

	return &BlogPage{Blogs: blogs, Total: total, MaxPage: maxPage(total, f.Limit)}, nil
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
