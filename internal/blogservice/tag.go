package blogservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

// linkTag upserts name and links it to the blog. If the tag is reclaimed between the two
// steps the pair is tried once more.
func (s *BlogService) linkTag(ctx context.Context, blogID int64, name string) (*Tag, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var tag *Tag
		tag, err = s.store.UpsertTag(ctx, name)
		if err != nil {
			return nil, err
		}

		err = s.store.LinkTag(ctx, tag.ID, blogID)
		if err == nil {
			return tag, nil
		}
		if !errors.Is(err, common.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, err
}

// attachTags links every name to the blog. Failures do not undo anything: each one is
// logged and returned as a warning.
func (s *BlogService) attachTags(ctx context.Context, blogID int64, names []string) ([]*Tag, []string) {
	tags := []*Tag{}
	var warnings []string

	for _, name := range names {
		tag, err := s.linkTag(ctx, blogID, name)
		if err != nil {
			s.logger.Warn("could not attach tag", "blog_id", blogID, "tag", name, "error", err)
			warnings = append(warnings, fmt.Sprintf("tag %q could not be attached", name))
			continue
		}
		tags = append(tags, tag)
	}

	return tags, warnings
}

// syncTags makes the blog's tags equal names, comparing case-insensitively. Tags left
// without any blog are deleted. Submitting the current set changes nothing.
func (s *BlogService) syncTags(ctx context.Context, blogID int64, names []string) []string {
	existing, err := s.store.TagsForBlog(ctx, blogID)
	if err != nil {
		s.logger.Warn("could not load tags", "blog_id", blogID, "error", err)
		return []string{"tags could not be updated"}
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[strings.ToLower(name)] = true
	}

	have := make(map[string]bool, len(existing))
	var warnings []string
	for _, tag := range existing {
		key := strings.ToLower(tag.Name)
		have[key] = true
		if want[key] {
			continue
		}

		if err := s.store.UnlinkTag(ctx, tag.ID, blogID); err != nil {
			s.logger.Warn("could not detach tag", "blog_id", blogID, "tag", tag.Name, "error", err)
			warnings = append(warnings, fmt.Sprintf("tag %q could not be removed", tag.Name))
			continue
		}
		s.reclaimTag(ctx, tag.ID)
	}

	var added []string
	for _, name := range names {
		if !have[strings.ToLower(name)] {
			added = append(added, name)
		}
	}

	_, addWarnings := s.attachTags(ctx, blogID, added)
	return append(warnings, addWarnings...)
}

// reclaimTag deletes the tag if no blog uses it any more.
func (s *BlogService) reclaimTag(ctx context.Context, tagID int64) {
	deleted, err := s.store.DeleteTagIfOrphan(context.WithoutCancel(ctx), tagID)
	if err != nil {
		s.logger.Warn("could not reclaim tag", "tag_id", tagID, "error", err)
		return
	}

	if deleted {
		s.logger.Debug("reclaimed orphaned tag", "tag_id", tagID)
	}
}

func (s *BlogService) ListTags(ctx context.Context, page, limit int) (*TagPage, error) {
	page, limit, err := pagination(page, limit, DefaultTagLimit)
	if err != nil {
		return nil, err
	}

	key := common.CacheKeyTags(page, limit)
	if cached, ok := s.cache.Get(key); ok {
		if p, ok := cached.(*TagPage); ok {
			return p, nil
		}
	}

	tags, total, err := s.store.ListTags(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	p := &TagPage{Tags: tags, Total: total, TotalPages: maxPage(total, limit)}
	s.cache.Set(key, p, listCacheTTL)

	return p, nil
}

func (s *BlogService) GetTag(ctx context.Context, id int64) (*Tag, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.store.GetTag(ctx, id)
}
