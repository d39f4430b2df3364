package blogservice

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogsphere/internal/common"
)

func TestCreateComment(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")
	bob := store.addUser("bob", "builder")

	b, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Hello World", Content: testContent})
	require.NoError(t, err)

	// warm the cache so the comment has to invalidate it
	_, err = s.GetBlog(ctx, b.Slug)
	require.NoError(t, err)

	texts := []string{"first!", "second", "third"}
	for _, text := range texts {
		c, err := s.CreateComment(ctx, b, bob, text)
		require.NoError(t, err)
		assert.Equal(t, bob, c.AuthorID)
	}

	got, err := s.GetBlog(ctx, b.Slug)
	require.NoError(t, err)
	require.Len(t, got.Comments, 3)
	for i, c := range got.Comments {
		assert.Equal(t, texts[i], c.Text)
	}

	testCases := []struct {
		name string
		text string
	}{
		{name: "empty", text: "   "},
		{name: "too long", text: strings.Repeat("a", 2001)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateComment(ctx, b, bob, tc.text)
			var ve common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Errors, "text")
		})
	}
}

func TestCreateComment_MissingBlog(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")

	_, err := s.CreateComment(ctx, &Blog{ID: 99, Slug: "gone"}, alice, "hello")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	store.mu.Lock()
	assert.Empty(t, store.state.comments)
	store.mu.Unlock()
}

func TestDeleteComment(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")
	bob := store.addUser("bob", "builder")
	carol := store.addUser("carol", "king")

	b, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Hello World", Content: testContent})
	require.NoError(t, err)

	byBob, err := s.CreateComment(ctx, b, bob, "from bob")
	require.NoError(t, err)
	another, err := s.CreateComment(ctx, b, bob, "bob again")
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteComment(ctx, byBob, carol, b), common.ErrForbidden)

	// the comment's author may delete it
	require.NoError(t, s.DeleteComment(ctx, byBob, bob, b))
	// so may the blog's author
	require.NoError(t, s.DeleteComment(ctx, another, alice, b))

	got, err := s.GetBlog(ctx, b.Slug)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)

	_, err = s.GetComment(ctx, byBob.ID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	assert.ErrorIs(t, s.DeleteComment(ctx, byBob, bob, b), common.ErrRecordNotFound)
}

func TestDeleteComment_RowFailureIsNotFatal(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")

	b, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Hello World", Content: testContent})
	require.NoError(t, err)
	c, err := s.CreateComment(ctx, b, alice, "soon orphaned")
	require.NoError(t, err)

	store.failOn["DeleteComment"] = true
	require.NoError(t, s.DeleteComment(ctx, c, alice, b))

	got, err := s.GetBlog(ctx, b.Slug)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)
}

func TestGetComment(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.GetComment(context.Background(), 0)
	var ve common.ValidationError
	assert.ErrorAs(t, err, &ve)
}
