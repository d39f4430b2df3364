package blogservice

import (
	"context"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

// CreateComment appends a comment by authorID to the blog's comment list.
func (s *BlogService) CreateComment(ctx context.Context, blog *Blog, authorID int64, text string) (*Comment, error) {
	text = strings.TrimSpace(text)

	v := common.NewValidator()
	validateCommentText(v, text)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	comment := &Comment{Text: text, AuthorID: authorID}
	err := s.store.WithTx(ctx, func(store Store) error {
		if _, err := store.LockBlog(ctx, blog.ID); err != nil {
			return err
		}

		if err := store.InsertComment(ctx, comment); err != nil {
			return err
		}

		return store.AppendComment(ctx, blog.ID, comment.ID)
	})
	if err != nil {
		return nil, common.WrapStorage("create comment", err)
	}

	s.cache.Delete(common.CacheKeyBlog(blog.Slug))
	return comment, nil
}

func (s *BlogService) GetComment(ctx context.Context, id int64) (*Comment, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.store.GetComment(ctx, id)
}

// DeleteComment removes the comment from the blog's list and then deletes it. Either the
// comment's author or the blog's author may do so. Once the reference is gone the
// comment is unreachable, so failing to delete the row is only logged.
func (s *BlogService) DeleteComment(ctx context.Context, comment *Comment, requesterID int64, blog *Blog) error {
	if requesterID != comment.AuthorID && requesterID != blog.AuthorID {
		return common.ErrForbidden
	}

	if err := s.store.RemoveCommentRef(ctx, blog.ID, comment.ID); err != nil {
		return common.WrapStorage("remove comment reference", err)
	}
	s.cache.Delete(common.CacheKeyBlog(blog.Slug))

	if err := s.store.DeleteComment(context.WithoutCancel(ctx), comment.ID); err != nil {
		s.logger.Warn("comment left orphaned", "comment_id", comment.ID, "blog_id", blog.ID, "error", err)
	}

	return nil
}
