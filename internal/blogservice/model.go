package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BlogModel is the Postgres implementation of Store.
type BlogModel struct {
	db *sql.DB
	q  dbtx
}

func NewBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db, q: db}
}

func (m *BlogModel) WithTx(ctx context.Context, fn func(Store) error) error {
	// already inside a transaction
	if m.db == nil {
		return fn(m)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&BlogModel{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// likePattern builds a case-insensitive substring pattern with q's wildcards escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// noRows maps sql.ErrNoRows to common.ErrRecordNotFound.
func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrRecordNotFound
	}
	return err
}

func expectOne(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	switch {
	case rows == 0:
		return common.ErrRecordNotFound
	case rows > 1:
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	return nil
}

const blogColumns = `b.id, b.title, b.slug, b.content, b.status, b.author_id, b.category_id, b.banner_image_id,
		b.published_at, b.created_at, b.updated_at, b.version`

func scanBlog(row interface{ Scan(...any) error }, b *Blog, extra ...any) error {
	dest := []any{&b.ID, &b.Title, &b.Slug, &b.Content, &b.Status, &b.AuthorID, &b.CategoryID, &b.BannerImageID,
		&b.PublishedAt, &b.CreatedAt, &b.UpdatedAt, &b.Version}
	return row.Scan(append(dest, extra...)...)
}

// relationColumns joins the author and the category, scanned by scanBlogWithRelations.
const relationColumns = `u.id, u.first_name, u.last_name, u.bio, u.profile_photo_id, u.num_blogs,
		c.id, c.user_id, c.name, c.slug, c.blog_count, c.is_general, c.created_at, c.updated_at`

const relationJoins = `JOIN users u ON u.id = b.author_id
		JOIN categories c ON c.id = b.category_id`

func scanBlogWithRelations(row interface{ Scan(...any) error }) (*Blog, error) {
	b := &Blog{Author: &Author{}, Category: &Category{}}
	a, c := b.Author, b.Category

	err := scanBlog(row, b,
		&a.ID, &a.FirstName, &a.LastName, &a.Bio, &a.ProfilePhotoID, &a.NumBlogs,
		&c.ID, &c.UserID, &c.Name, &c.Slug, &c.BlogCount, &c.IsGeneral, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (m *BlogModel) BlogSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM blogs WHERE slug = $1 AND id <> $2)`

	var taken bool
	err := m.q.QueryRowContext(ctx, query, slug, excludeID).Scan(&taken)
	return taken, err
}

func (m *BlogModel) InsertBlog(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (title, slug, content, status, author_id, category_id, banner_image_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, published_at, created_at, updated_at, version`

	args := []any{b.Title, b.Slug, b.Content, b.Status, b.AuthorID, b.CategoryID, b.BannerImageID}

	err := m.q.QueryRowContext(ctx, query, args...).Scan(&b.ID, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "blogs_slug_key"):
			return common.ErrDuplicateSlug
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) GetBlogBySlug(ctx context.Context, slug string) (*Blog, error) {
	query := `
		SELECT ` + blogColumns + `, ` + relationColumns + `
		FROM blogs b
		` + relationJoins + `
		WHERE b.slug = $1`

	b, err := scanBlogWithRelations(m.q.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, noRows(err)
	}

	return b, nil
}

func (m *BlogModel) LockBlog(ctx context.Context, id int64) (*Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		WHERE b.id = $1
		FOR UPDATE`

	var b Blog
	if err := scanBlog(m.q.QueryRowContext(ctx, query, id), &b); err != nil {
		return nil, noRows(err)
	}

	return &b, nil
}

func (m *BlogModel) UpdateBlog(ctx context.Context, b *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, slug = $2, content = $3, status = $4, category_id = $5, banner_image_id = $6,
			updated_at = NOW(), version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING updated_at, version`

	args := []any{b.Title, b.Slug, b.Content, b.Status, b.CategoryID, b.BannerImageID, b.ID, b.Version}

	err := m.q.QueryRowContext(ctx, query, args...).Scan(&b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrEditConflict
		case common.UniqueViolation(err, "blogs_slug_key"):
			return common.ErrDuplicateSlug
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) DeleteBlog(ctx context.Context, id int64) error {
	res, err := m.q.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOne(res)
}

// ListBlogs returns one page of blogs, newest first, and the number of blogs matching f.
func (m *BlogModel) ListBlogs(ctx context.Context, f ListBlogsFilter) ([]*Blog, int, error) {
	where := `
		WHERE b.status = $1
		AND ($2::bigint = 0 OR b.author_id = $2)
		AND ($3::bigint = 0 OR EXISTS (SELECT 1 FROM tag_blog_junctions j WHERE j.blog_id = b.id AND j.tag_id = $3))
		AND ($4::text = '' OR b.category_id IN (SELECT id FROM categories WHERE slug = $4))`

	args := []any{f.Status, f.AuthorID, f.TagID, f.CategorySlug}

	var total int
	if err := m.q.QueryRowContext(ctx, `SELECT count(*) FROM blogs b`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + blogColumns + `, ` + relationColumns + `
		FROM blogs b
		` + relationJoins + where + `
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $5 OFFSET $6`

	rows, err := m.q.QueryContext(ctx, query, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	blogs := []*Blog{}
	for rows.Next() {
		b, err := scanBlogWithRelations(rows)
		if err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return blogs, total, nil
}

func (m *BlogModel) SearchBlogs(ctx context.Context, q string, limit int) ([]BlogSuggestion, error) {
	query := `
		SELECT id, title, slug
		FROM blogs
		WHERE status = 'published' AND (title ILIKE $1 OR slug ILIKE $1)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := m.q.QueryContext(ctx, query, likePattern(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := []BlogSuggestion{}
	for rows.Next() {
		var s BlogSuggestion
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}

	return suggestions, rows.Err()
}
