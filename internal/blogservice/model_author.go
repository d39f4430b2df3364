package blogservice

import (
	"context"
)

const authorColumns = `id, first_name, last_name, bio, profile_photo_id, num_blogs`

func (m *BlogModel) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	var a Author
	err := m.q.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM users WHERE id = $1`, id).
		Scan(&a.ID, &a.FirstName, &a.LastName, &a.Bio, &a.ProfilePhotoID, &a.NumBlogs)
	if err != nil {
		return nil, noRows(err)
	}

	return &a, nil
}

func (m *BlogModel) AdjustUserBlogCount(ctx context.Context, userID int64, delta int) error {
	query := `
		UPDATE users
		SET num_blogs = GREATEST(num_blogs + $1, 0)
		WHERE id = $2`

	res, err := m.q.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *BlogModel) SearchAuthors(ctx context.Context, q string, limit int) ([]*Author, error) {
	query := `
		SELECT ` + authorColumns + `
		FROM users
		WHERE first_name ILIKE $1 OR last_name ILIKE $1
		ORDER BY first_name, last_name
		LIMIT $2`

	rows, err := m.q.QueryContext(ctx, query, likePattern(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := []*Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Bio, &a.ProfilePhotoID, &a.NumBlogs); err != nil {
			return nil, err
		}
		authors = append(authors, &a)
	}

	return authors, rows.Err()
}
