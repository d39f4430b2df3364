package blogservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogsphere/internal/common"
)

func TestListTags(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")

	_, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Tagged", Content: testContent, TagText: "#one #two #three"})
	require.NoError(t, err)

	page, err := s.ListTags(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Tags, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	// new tags show up because writes drop the cached pages
	_, err = s.CreateBlog(ctx, alice, CreateBlogInput{Title: "More", Content: testContent, TagText: "#four"})
	require.NoError(t, err)

	page, err = s.ListTags(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
}

func TestGetTag(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")

	b, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Tagged", Content: testContent, TagText: "#one"})
	require.NoError(t, err)
	require.Len(t, b.Tags, 1)

	tag, err := s.GetTag(ctx, b.Tags[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "one", tag.Name)

	_, err = s.GetTag(ctx, 12345)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	_, err = s.GetTag(ctx, -1)
	var ve common.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLinkTag_RetriesAfterReclaim(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")

	b, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Tagged", Content: testContent})
	require.NoError(t, err)

	store.failOn["LinkTag"] = true
	tag, err := s.linkTag(ctx, b.ID, "go")
	assert.Nil(t, tag)
	assert.ErrorIs(t, err, errFail)

	tag, err = s.linkTag(ctx, b.ID, "go")
	require.NoError(t, err)
	assert.Equal(t, "go", tag.Name)
}

func TestSyncTags_NoChange(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	alice := store.addUser("alice", "liddell")

	b, err := s.CreateBlog(ctx, alice, CreateBlogInput{Title: "Tagged", Content: testContent, TagText: "#go #web"})
	require.NoError(t, err)

	warnings := s.syncTags(ctx, b.ID, []string{"GO", "Web"})
	assert.Empty(t, warnings)

	tags, err := store.TagsForBlog(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Name)
	assert.Equal(t, "web", tags[1].Name)
}
