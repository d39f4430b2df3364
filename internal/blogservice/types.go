package blogservice

import (
	"log/slog"
	"time"

	"github.com/sushihentaime/blogsphere/internal/common"
)

type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	return s == StatusPublished || s == StatusArchived
}

const (
	GeneralCategoryName = "general"

	DefaultBlogLimit     = 6
	DefaultCategoryLimit = 45
	DefaultTagLimit      = 20
	MaxPageLimit         = 100
	MaxSearchLimit       = 50
	MinSearchQuery       = 3
)

// Author is the public view of a user attached to blogs and comments.
type Author struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Bio            string `json:"bio,omitempty"`
	ProfilePhotoID *int64 `json:"profile_photo_id,omitempty"`
	NumBlogs       int    `json:"num_blogs"`
}

type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	BlogCount int       `json:"blog_count"`
	IsGeneral bool      `json:"is_general"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryGroup aggregates every user's categories that share a name.
type CategoryGroup struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	UserID       int64  `json:"user_id"`
	BlogCount    int    `json:"blog_count"`
	GroupedCount int    `json:"grouped_count"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	AuthorID  int64     `json:"author_id"`
	Author    *Author   `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Image struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Upload is an image received from a client, already read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Blog struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	// Content is stored in Markdown format.
	Content       string     `json:"content"`
	Status        Status     `json:"status"`
	AuthorID      int64      `json:"author_id"`
	CategoryID    int64      `json:"category_id"`
	BannerImageID *int64     `json:"banner_image_id,omitempty"`
	PublishedAt   time.Time  `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version"`
	Author        *Author    `json:"author,omitempty"`
	Category      *Category  `json:"category,omitempty"`
	Tags          []*Tag     `json:"tags"`
	Comments      []*Comment `json:"comments,omitempty"`
	// Warnings lists non-fatal failures, such as tags that could not be attached.
	Warnings []string `json:"warnings,omitempty"`
}

type CreateBlogInput struct {
	Title      string
	Content    string
	CategoryID *int64
	TagText    string
	Banner     *Upload
}

// UpdateBlogInput carries only the fields being changed. A nil TagText leaves tags
// untouched, an empty one removes them all.
type UpdateBlogInput struct {
	Title      *string
	Content    *string
	CategoryID *int64
	TagText    *string
	Banner     *Upload
}

type ListBlogsFilter struct {
	Page     int
	Limit    int
	AuthorID int64
	TagID    int64
	// CategorySlug matches that slug in every user's categories.
	CategorySlug string
	Status       Status
}

type BlogPage struct {
	Blogs   []*Blog `json:"blogs"`
	Total   int     `json:"total"`
	MaxPage int     `json:"max_page"`
}

type CategoryPage struct {
	Categories []*Category `json:"categories"`
	Total      int         `json:"total"`
	MaxPage    int         `json:"max_page"`
}

type TagPage struct {
	Tags       []*Tag `json:"tags"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

type BlogSuggestion struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type SearchResult struct {
	Categories []CategoryGroup  `json:"categories"`
	Blogs      []BlogSuggestion `json:"blogs"`
	Tags       []*Tag           `json:"tags"`
	Authors    []*Author        `json:"authors"`
}

type BlogService struct {
	store  Store
	cache  *common.Cache
	logger *slog.Logger
}
