package blogservice

import (
	"context"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

const categoryColumns = `id, user_id, name, slug, blog_count, is_general, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Slug, &c.BlogCount, &c.IsGeneral, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}

	return &c, nil
}

func (m *BlogModel) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return scanCategory(m.q.QueryRowContext(ctx, query, id))
}

func (m *BlogModel) GetCategoryBySlug(ctx context.Context, userID int64, slug string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND slug = $2`
	return scanCategory(m.q.QueryRowContext(ctx, query, userID, slug))
}

func (m *BlogModel) EnsureGeneralCategory(ctx context.Context, userID int64) (*Category, error) {
	insert := `
		INSERT INTO categories (user_id, name, slug, is_general)
		VALUES ($1, $2, $2, true)
		ON CONFLICT DO NOTHING`

	if _, err := m.q.ExecContext(ctx, insert, userID, GeneralCategoryName); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND is_general`
	return scanCategory(m.q.QueryRowContext(ctx, query, userID))
}

func (m *BlogModel) CategorySlugTaken(ctx context.Context, userID int64, slug string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE user_id = $1 AND slug = $2 AND id <> $3)`

	var taken bool
	err := m.q.QueryRowContext(ctx, query, userID, slug, excludeID).Scan(&taken)
	return taken, err
}

func (m *BlogModel) CategoryNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE user_id = $1 AND lower(name) = lower($2) AND id <> $3)`

	var taken bool
	err := m.q.QueryRowContext(ctx, query, userID, name, excludeID).Scan(&taken)
	return taken, err
}

func (m *BlogModel) InsertCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (user_id, name, slug, is_general)
		VALUES ($1, $2, $3, $4)
		RETURNING id, blog_count, created_at, updated_at`

	err := m.q.QueryRowContext(ctx, query, c.UserID, c.Name, c.Slug, c.IsGeneral).
		Scan(&c.ID, &c.BlogCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "categories_user_id_slug_key"):
			return common.ErrDuplicateSlug
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3 AND NOT is_general
		RETURNING blog_count, updated_at`

	err := m.q.QueryRowContext(ctx, query, c.Name, c.Slug, c.ID).Scan(&c.BlogCount, &c.UpdatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "categories_user_id_slug_key"):
			return common.ErrDuplicateSlug
		default:
			return noRows(err)
		}
	}

	return nil
}

func (m *BlogModel) DeleteCategory(ctx context.Context, id int64) error {
	res, err := m.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND NOT is_general`, id)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *BlogModel) AdjustCategoryCount(ctx context.Context, id int64, delta int) error {
	query := `
		UPDATE categories
		SET blog_count = GREATEST(blog_count + $1, 0)
		WHERE id = $2`

	res, err := m.q.ExecContext(ctx, query, delta, id)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *BlogModel) ReassignCategory(ctx context.Context, from, to int64) (int, error) {
	query := `
		UPDATE blogs
		SET category_id = $1, updated_at = NOW(), version = version + 1
		WHERE category_id = $2`

	res, err := m.q.ExecContext(ctx, query, to, from)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

func (m *BlogModel) ListUserCategories(ctx context.Context, userID int64, limit, offset int) ([]*Category, int, error) {
	var total int
	err := m.q.QueryRowContext(ctx, `SELECT count(*) FROM categories WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = $1
		ORDER BY is_general DESC, name ASC
		LIMIT $2 OFFSET $3`

	rows, err := m.q.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// ListCategoryGroups groups categories of all users by name. A non-empty name filters by substring.
func (m *BlogModel) ListCategoryGroups(ctx context.Context, name string, limit, offset int) ([]CategoryGroup, int, error) {
	pattern := "%"
	if name = strings.TrimSpace(name); name != "" {
		pattern = likePattern(name)
	}

	var total int
	err := m.q.QueryRowContext(ctx, `SELECT count(DISTINCT name) FROM categories WHERE name ILIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT name, min(slug), min(user_id), sum(blog_count), count(*)
		FROM categories
		WHERE name ILIKE $1
		GROUP BY name
		ORDER BY name ASC
		LIMIT $2 OFFSET $3`

	rows, err := m.q.QueryContext(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := []CategoryGroup{}
	for rows.Next() {
		var g CategoryGroup
		if err := rows.Scan(&g.Name, &g.Slug, &g.UserID, &g.BlogCount, &g.GroupedCount); err != nil {
			return nil, 0, err
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}
