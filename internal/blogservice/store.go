package blogservice

import "context"

// BlogStore persists blog rows. Lookups return common.ErrRecordNotFound when nothing matches.
type BlogStore interface {
	BlogSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	InsertBlog(ctx context.Context, b *Blog) error
	GetBlogBySlug(ctx context.Context, slug string) (*Blog, error)
	// LockBlog reads the row for update. Inside WithTx the row stays locked until commit.
	LockBlog(ctx context.Context, id int64) (*Blog, error)
	// UpdateBlog writes b if b.Version still matches and bumps the version, else common.ErrEditConflict.
	UpdateBlog(ctx context.Context, b *Blog) error
	DeleteBlog(ctx context.Context, id int64) error
	ListBlogs(ctx context.Context, f ListBlogsFilter) ([]*Blog, int, error)
}

type CategoryStore interface {
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	GetCategoryBySlug(ctx context.Context, userID int64, slug string) (*Category, error)
	// EnsureGeneralCategory returns the user's general category, creating it if absent.
	EnsureGeneralCategory(ctx context.Context, userID int64) (*Category, error)
	CategorySlugTaken(ctx context.Context, userID int64, slug string, excludeID int64) (bool, error)
	CategoryNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error)
	InsertCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
	// AdjustCategoryCount adds delta to blog_count in one statement, never going below zero.
	AdjustCategoryCount(ctx context.Context, id int64, delta int) error
	// ReassignCategory moves every blog in from to to and reports how many moved.
	ReassignCategory(ctx context.Context, from, to int64) (int, error)
	ListUserCategories(ctx context.Context, userID int64, limit, offset int) ([]*Category, int, error)
	ListCategoryGroups(ctx context.Context, name string, limit, offset int) ([]CategoryGroup, int, error)
}

type TagStore interface {
	// UpsertTag returns the tag whose name matches case-insensitively, inserting name if there is none.
	UpsertTag(ctx context.Context, name string) (*Tag, error)
	// LinkTag is a no-op if the junction exists. It returns common.ErrRecordNotFound if the tag is gone.
	LinkTag(ctx context.Context, tagID, blogID int64) error
	UnlinkTag(ctx context.Context, tagID, blogID int64) error
	// UnlinkAllTags removes the blog's junctions and returns the ids of the tags they pointed to.
	UnlinkAllTags(ctx context.Context, blogID int64) ([]int64, error)
	// DeleteTagIfOrphan deletes the tag only if no junction references it.
	DeleteTagIfOrphan(ctx context.Context, tagID int64) (bool, error)
	TagsForBlog(ctx context.Context, blogID int64) ([]*Tag, error)
	GetTag(ctx context.Context, id int64) (*Tag, error)
	ListTags(ctx context.Context, limit, offset int) ([]*Tag, int, error)
}

type ImageStore interface {
	// FindImage looks for an image with exactly these bytes, size and content type.
	FindImage(ctx context.Context, data []byte, size int64, contentType string) (*Image, error)
	InsertImage(ctx context.Context, img *Image) error
	GetImage(ctx context.Context, id int64) (*Image, error)
	// DeleteImageIfOrphan deletes the image only if no blog banner and no profile photo references it.
	DeleteImageIfOrphan(ctx context.Context, id int64) (bool, error)
}

type CommentStore interface {
	InsertComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id int64) (*Comment, error)
	// AppendComment adds the comment to the end of the blog's ordered comment list.
	AppendComment(ctx context.Context, blogID, commentID int64) error
	// RemoveCommentRef returns common.ErrRecordNotFound if the blog does not list the comment.
	RemoveCommentRef(ctx context.Context, blogID, commentID int64) error
	DeleteComment(ctx context.Context, id int64) error
	CommentsForBlog(ctx context.Context, blogID int64) ([]*Comment, error)
	// DeleteBlogComments drops the blog's comment list together with the comments in it.
	DeleteBlogComments(ctx context.Context, blogID int64) error
}

type AuthorStore interface {
	GetAuthor(ctx context.Context, id int64) (*Author, error)
	AdjustUserBlogCount(ctx context.Context, userID int64, delta int) error
	SearchAuthors(ctx context.Context, q string, limit int) ([]*Author, error)
}

type SearchStore interface {
	SearchBlogs(ctx context.Context, q string, limit int) ([]BlogSuggestion, error)
	SearchTags(ctx context.Context, q string, limit int) ([]*Tag, error)
}

// Store is everything the engine needs from persistence. WithTx runs fn against a Store
// bound to one transaction, committing if fn returns nil.
type Store interface {
	BlogStore
	CategoryStore
	TagStore
	ImageStore
	CommentStore
	AuthorStore
	SearchStore

	WithTx(ctx context.Context, fn func(Store) error) error
}
