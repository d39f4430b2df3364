package blogservice

import (
	"context"
)

func (m *BlogModel) FindImage(ctx context.Context, data []byte, size int64, contentType string) (*Image, error) {
	query := `
		SELECT id, filename, content_type, size, created_at
		FROM images
		WHERE size = $1 AND content_type = $2 AND data = $3
		ORDER BY id
		LIMIT 1`

	var img Image
	err := m.q.QueryRowContext(ctx, query, size, contentType, data).
		Scan(&img.ID, &img.Filename, &img.ContentType, &img.Size, &img.CreatedAt)
	if err != nil {
		return nil, noRows(err)
	}

	return &img, nil
}

func (m *BlogModel) InsertImage(ctx context.Context, img *Image) error {
	query := `
		INSERT INTO images (filename, content_type, data, size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return m.q.QueryRowContext(ctx, query, img.Filename, img.ContentType, img.Data, img.Size).Scan(&img.ID, &img.CreatedAt)
}

func (m *BlogModel) GetImage(ctx context.Context, id int64) (*Image, error) {
	query := `
		SELECT id, filename, content_type, data, size, created_at
		FROM images
		WHERE id = $1`

	var img Image
	err := m.q.QueryRowContext(ctx, query, id).Scan(&img.ID, &img.Filename, &img.ContentType, &img.Data, &img.Size, &img.CreatedAt)
	if err != nil {
		return nil, noRows(err)
	}

	return &img, nil
}

func (m *BlogModel) DeleteImageIfOrphan(ctx context.Context, id int64) (bool, error) {
	query := `
		DELETE FROM images i
		WHERE i.id = $1
		AND NOT EXISTS (SELECT 1 FROM blogs b WHERE b.banner_image_id = i.id)
		AND NOT EXISTS (SELECT 1 FROM users u WHERE u.profile_photo_id = i.id)`

	res, err := m.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n == 1, err
}
