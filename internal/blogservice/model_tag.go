package blogservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/sushihentaime/blogsphere/internal/common"
)

func (m *BlogModel) UpsertTag(ctx context.Context, name string) (*Tag, error) {
	query := `
		WITH inserted AS (
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT ((lower(name))) DO NOTHING
			RETURNING id, name
		)
		SELECT id, name FROM inserted
		UNION ALL
		SELECT id, name FROM tags WHERE lower(name) = lower($1)
		LIMIT 1`

	// a concurrent insert of the same name is invisible to this statement's snapshot, so retry
	for attempt := 0; attempt < 3; attempt++ {
		var t Tag
		err := m.q.QueryRowContext(ctx, query, name).Scan(&t.ID, &t.Name)
		if err == nil {
			return &t, nil
		}
		if !errors.Is(noRows(err), common.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("upsert tag %q: no row after retries", name)
}

func (m *BlogModel) LinkTag(ctx context.Context, tagID, blogID int64) error {
	query := `
		INSERT INTO tag_blog_junctions (tag_id, blog_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	_, err := m.q.ExecContext(ctx, query, tagID, blogID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "tag_blog_junctions_tag_id_fkey"),
			common.ForeignKeyViolation(err, "tag_blog_junctions_blog_id_fkey"):
			return common.ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) UnlinkTag(ctx context.Context, tagID, blogID int64) error {
	_, err := m.q.ExecContext(ctx, `DELETE FROM tag_blog_junctions WHERE tag_id = $1 AND blog_id = $2`, tagID, blogID)
	return err
}

func (m *BlogModel) UnlinkAllTags(ctx context.Context, blogID int64) ([]int64, error) {
	rows, err := m.q.QueryContext(ctx, `DELETE FROM tag_blog_junctions WHERE blog_id = $1 RETURNING tag_id`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (m *BlogModel) DeleteTagIfOrphan(ctx context.Context, tagID int64) (bool, error) {
	query := `
		DELETE FROM tags t
		WHERE t.id = $1
		AND NOT EXISTS (SELECT 1 FROM tag_blog_junctions j WHERE j.tag_id = t.id)`

	res, err := m.q.ExecContext(ctx, query, tagID)
	if err != nil {
		// a junction was added after the check
		if common.ForeignKeyViolation(err, "") {
			return false, nil
		}
		return false, err
	}

	n, err := res.RowsAffected()
	return n == 1, err
}

func (m *BlogModel) TagsForBlog(ctx context.Context, blogID int64) ([]*Tag, error) {
	query := `
		SELECT t.id, t.name
		FROM tags t
		JOIN tag_blog_junctions j ON j.tag_id = t.id
		WHERE j.blog_id = $1
		ORDER BY j.created_at, t.id`

	return m.queryTags(ctx, query, blogID)
}

func (m *BlogModel) GetTag(ctx context.Context, id int64) (*Tag, error) {
	var t Tag
	if err := m.q.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE id = $1`, id).Scan(&t.ID, &t.Name); err != nil {
		return nil, noRows(err)
	}

	return &t, nil
}

func (m *BlogModel) ListTags(ctx context.Context, limit, offset int) ([]*Tag, int, error) {
	var total int
	if err := m.q.QueryRowContext(ctx, `SELECT count(*) FROM tags`).Scan(&total); err != nil {
		return nil, 0, err
	}

	tags, err := m.queryTags(ctx, `SELECT id, name FROM tags ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return tags, total, nil
}

func (m *BlogModel) SearchTags(ctx context.Context, q string, limit int) ([]*Tag, error) {
	query := `SELECT id, name FROM tags WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	return m.queryTags(ctx, query, likePattern(q), limit)
}

func (m *BlogModel) queryTags(ctx context.Context, query string, args ...any) ([]*Tag, error) {
	rows, err := m.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}

	return tags, rows.Err()
}
