package blogservice

import (
	"context"
)

func (m *BlogModel) InsertComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (text, author_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return m.q.QueryRowContext(ctx, query, c.Text, c.AuthorID).Scan(&c.ID, &c.CreatedAt)
}

func (m *BlogModel) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := m.q.QueryRowContext(ctx, `SELECT id, text, author_id, created_at FROM comments WHERE id = $1`, id).
		Scan(&c.ID, &c.Text, &c.AuthorID, &c.CreatedAt)
	if err != nil {
		return nil, noRows(err)
	}

	return &c, nil
}

func (m *BlogModel) AppendComment(ctx context.Context, blogID, commentID int64) error {
	_, err := m.q.ExecContext(ctx, `INSERT INTO blog_comments (blog_id, comment_id) VALUES ($1, $2)`, blogID, commentID)
	return err
}

func (m *BlogModel) RemoveCommentRef(ctx context.Context, blogID, commentID int64) error {
	res, err := m.q.ExecContext(ctx, `DELETE FROM blog_comments WHERE blog_id = $1 AND comment_id = $2`, blogID, commentID)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *BlogModel) DeleteComment(ctx context.Context, id int64) error {
	res, err := m.q.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *BlogModel) CommentsForBlog(ctx context.Context, blogID int64) ([]*Comment, error) {
	query := `
		SELECT c.id, c.text, c.author_id, c.created_at,
			u.id, u.first_name, u.last_name, u.bio, u.profile_photo_id, u.num_blogs
		FROM blog_comments bc
		JOIN comments c ON c.id = bc.comment_id
		JOIN users u ON u.id = c.author_id
		WHERE bc.blog_id = $1
		ORDER BY bc.position`

	rows, err := m.q.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		c := &Comment{Author: &Author{}}
		a := c.Author
		err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.CreatedAt,
			&a.ID, &a.FirstName, &a.LastName, &a.Bio, &a.ProfilePhotoID, &a.NumBlogs)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (m *BlogModel) DeleteBlogComments(ctx context.Context, blogID int64) error {
	query := `
		WITH refs AS (
			DELETE FROM blog_comments WHERE blog_id = $1 RETURNING comment_id
		)
		DELETE FROM comments WHERE id IN (SELECT comment_id FROM refs)`

	_, err := m.q.ExecContext(ctx, query, blogID)
	return err
}
