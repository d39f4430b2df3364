package blogservice

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sushihentaime/blogsphere/internal/common"
)

type memState struct {
	nextID     int64
	users      map[int64]*Author
	photos     map[int64]int64 // user id -> profile photo id
	blogs      map[int64]*Blog
	categories map[int64]*Category
	tags       map[int64]*Tag
	junctions  map[[2]int64]time.Time // {tag id, blog id}
	images     map[int64]*Image
	comments   map[int64]*Comment
	blogRefs   map[int64][]int64 // blog id -> ordered comment ids
}

// memStore is an in-memory Store. WithTx serializes transactions and restores the
// previous state when fn fails.
type memStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *memState

	// failOn makes the named method fail once with errFail.
	failOn map[string]bool
}

var errFail = errors.New("injected storage failure")

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			nextID:     1,
			users:      map[int64]*Author{},
			photos:     map[int64]int64{},
			blogs:      map[int64]*Blog{},
			categories: map[int64]*Category{},
			tags:       map[int64]*Tag{},
			junctions:  map[[2]int64]time.Time{},
			images:     map[int64]*Image{},
			comments:   map[int64]*Comment{},
			blogRefs:   map[int64][]int64{},
		},
		failOn: map[string]bool{},
	}
}

func (m *memStore) fail(method string) error {
	if m.failOn[method] {
		delete(m.failOn, method)
		return errFail
	}
	return nil
}

func (m *memStore) id() int64 {
	id := m.state.nextID
	m.state.nextID++
	return id
}

func (m *memStore) addUser(first, last string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.state.users[id] = &Author{ID: id, FirstName: first, LastName: last}
	return id
}

func (m *memStore) setProfilePhoto(userID, imageID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.photos[userID] = imageID
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:     s.nextID,
		users:      map[int64]*Author{},
		photos:     map[int64]int64{},
		blogs:      map[int64]*Blog{},
		categories: map[int64]*Category{},
		tags:       map[int64]*Tag{},
		junctions:  map[[2]int64]time.Time{},
		images:     map[int64]*Image{},
		comments:   map[int64]*Comment{},
		blogRefs:   map[int64][]int64{},
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.photos {
		c.photos[k] = v
	}
	for k, v := range s.blogs {
		b := *v
		c.blogs[k] = &b
	}
	for k, v := range s.categories {
		cat := *v
		c.categories[k] = &cat
	}
	for k, v := range s.tags {
		t := *v
		c.tags[k] = &t
	}
	for k, v := range s.junctions {
		c.junctions[k] = v
	}
	for k, v := range s.images {
		img := *v
		c.images[k] = &img
	}
	for k, v := range s.comments {
		cm := *v
		c.comments[k] = &cm
	}
	for k, v := range s.blogRefs {
		c.blogRefs[k] = append([]int64(nil), v...)
	}
	return c
}

func (m *memStore) WithTx(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}

	return nil
}

// blogs

func (m *memStore) BlogSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.state.blogs {
		if b.Slug == slug && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertBlog(ctx context.Context, b *Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertBlog"); err != nil {
		return err
	}
	for _, other := range m.state.blogs {
		if other.Slug == b.Slug {
			return common.ErrDuplicateSlug
		}
	}
	b.ID = m.id()
	now := time.Now()
	b.PublishedAt, b.CreatedAt, b.UpdatedAt, b.Version = now, now, now, 1
	stored := *b
	stored.Tags, stored.Comments, stored.Author, stored.Category = nil, nil, nil, nil
	m.state.blogs[b.ID] = &stored
	return nil
}

func (m *memStore) withRelations(b *Blog) *Blog {
	out := *b
	if a, ok := m.state.users[b.AuthorID]; ok {
		author := *a
		out.Author = &author
	}
	if c, ok := m.state.categories[b.CategoryID]; ok {
		cat := *c
		out.Category = &cat
	}
	return &out
}

func (m *memStore) GetBlogBySlug(ctx context.Context, slug string) (*Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.state.blogs {
		if b.Slug == slug {
			return m.withRelations(b), nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (m *memStore) LockBlog(ctx context.Context, id int64) (*Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.state.blogs[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := *b
	return &out, nil
}

func (m *memStore) UpdateBlog(ctx context.Context, b *Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateBlog"); err != nil {
		return err
	}
	current, ok := m.state.blogs[b.ID]
	if !ok || current.Version != b.Version {
		return common.ErrEditConflict
	}
	for _, other := range m.state.blogs {
		if other.Slug == b.Slug && other.ID != b.ID {
			return common.ErrDuplicateSlug
		}
	}
	b.Version++
	b.UpdatedAt = time.Now()
	stored := *b
	stored.Tags, stored.Comments, stored.Author, stored.Category = nil, nil, nil, nil
	m.state.blogs[b.ID] = &stored
	return nil
}

func (m *memStore) DeleteBlog(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.blogs[id]; !ok {
		return common.ErrRecordNotFound
	}
	delete(m.state.blogs, id)
	for k := range m.state.junctions {
		if k[1] == id {
			delete(m.state.junctions, k)
		}
	}
	delete(m.state.blogRefs, id)
	return nil
}

func (m *memStore) ListBlogs(ctx context.Context, f ListBlogsFilter) ([]*Blog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*Blog
	for _, b := range m.state.blogs {
		if b.Status != f.Status {
			continue
		}
		if f.AuthorID != 0 && b.AuthorID != f.AuthorID {
			continue
		}
		if f.TagID != 0 {
			if _, ok := m.state.junctions[[2]int64{f.TagID, b.ID}]; !ok {
				continue
			}
		}
		if f.CategorySlug != "" {
			if c, ok := m.state.categories[b.CategoryID]; !ok || c.Slug != f.CategorySlug {
				continue
			}
		}
		matched = append(matched, m.withRelations(b))
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (m *memStore) SearchBlogs(ctx context.Context, q string, limit int) ([]BlogSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []BlogSuggestion{}
	for _, b := range m.state.blogs {
		if b.Status == StatusPublished && (containsFold(b.Title, q) || containsFold(b.Slug, q)) && len(out) < limit {
			out = append(out, BlogSuggestion{ID: b.ID, Title: b.Title, Slug: b.Slug})
		}
	}
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// categories

func (m *memStore) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.categories[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := *c
	return &out, nil
}

func (m *memStore) GetCategoryBySlug(ctx context.Context, userID int64, slug string) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.state.categories {
		if c.UserID == userID && c.Slug == slug {
			out := *c
			return &out, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (m *memStore) EnsureGeneralCategory(ctx context.Context, userID int64) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.state.categories {
		if c.UserID == userID && c.IsGeneral {
			out := *c
			return &out, nil
		}
	}
	c := &Category{ID: m.id(), UserID: userID, Name: GeneralCategoryName, Slug: GeneralCategoryName, IsGeneral: true}
	m.state.categories[c.ID] = c
	out := *c
	return &out, nil
}

func (m *memStore) CategorySlugTaken(ctx context.Context, userID int64, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.state.categories {
		if c.UserID == userID && c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CategoryNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.state.categories {
		if c.UserID == userID && strings.EqualFold(c.Name, name) && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertCategory(ctx context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.state.categories {
		if other.UserID == c.UserID && other.Slug == c.Slug {
			return common.ErrDuplicateSlug
		}
	}
	c.ID = m.id()
	stored := *c
	m.state.categories[c.ID] = &stored
	return nil
}

func (m *memStore) UpdateCategory(ctx context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.state.categories[c.ID]
	if !ok || stored.IsGeneral {
		return common.ErrRecordNotFound
	}
	stored.Name, stored.Slug = c.Name, c.Slug
	c.BlogCount = stored.BlogCount
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.categories[id]
	if !ok || c.IsGeneral {
		return common.ErrRecordNotFound
	}
	delete(m.state.categories, id)
	return nil
}

func (m *memStore) AdjustCategoryCount(ctx context.Context, id int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AdjustCategoryCount"); err != nil {
		return err
	}
	c, ok := m.state.categories[id]
	if !ok {
		return common.ErrRecordNotFound
	}
	c.BlogCount = max(c.BlogCount+delta, 0)
	return nil
}

func (m *memStore) ReassignCategory(ctx context.Context, from, to int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.state.blogs {
		if b.CategoryID == from {
			b.CategoryID = to
			b.Version++
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListUserCategories(ctx context.Context, userID int64, limit, offset int) ([]*Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Category
	for _, c := range m.state.categories {
		if c.UserID == userID {
			cat := *c
			out = append(out, &cat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsGeneral != out[j].IsGeneral {
			return out[i].IsGeneral
		}
		return out[i].Name < out[j].Name
	})
	return paginate(out, limit, offset), len(out), nil
}

func (m *memStore) ListCategoryGroups(ctx context.Context, name string, limit, offset int) ([]CategoryGroup, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := map[string]*CategoryGroup{}
	for _, c := range m.state.categories {
		if name != "" && !containsFold(c.Name, name) {
			continue
		}
		g, ok := groups[c.Name]
		if !ok {
			g = &CategoryGroup{Name: c.Name, Slug: c.Slug, UserID: c.UserID}
			groups[c.Name] = g
		}
		g.BlogCount += c.BlogCount
		g.GroupedCount++
	}
	out := []CategoryGroup{}
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), len(out), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// tags

func (m *memStore) UpsertTag(ctx context.Context, name string) (*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpsertTag"); err != nil {
		return nil, err
	}
	for _, t := range m.state.tags {
		if strings.EqualFold(t.Name, name) {
			out := *t
			return &out, nil
		}
	}
	t := &Tag{ID: m.id(), Name: name}
	m.state.tags[t.ID] = t
	out := *t
	return &out, nil
}

func (m *memStore) LinkTag(ctx context.Context, tagID, blogID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LinkTag"); err != nil {
		return err
	}
	if _, ok := m.state.tags[tagID]; !ok {
		return common.ErrRecordNotFound
	}
	if _, ok := m.state.blogs[blogID]; !ok {
		return common.ErrRecordNotFound
	}
	key := [2]int64{tagID, blogID}
	if _, ok := m.state.junctions[key]; !ok {
		m.state.junctions[key] = time.Now()
	}
	return nil
}

func (m *memStore) UnlinkTag(ctx context.Context, tagID, blogID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.junctions, [2]int64{tagID, blogID})
	return nil
}

func (m *memStore) UnlinkAllTags(ctx context.Context, blogID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for k := range m.state.junctions {
		if k[1] == blogID {
			ids = append(ids, k[0])
			delete(m.state.junctions, k)
		}
	}
	return ids, nil
}

func (m *memStore) DeleteTagIfOrphan(ctx context.Context, tagID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.tags[tagID]; !ok {
		return false, nil
	}
	for k := range m.state.junctions {
		if k[0] == tagID {
			return false, nil
		}
	}
	delete(m.state.tags, tagID)
	return true, nil
}

func (m *memStore) TagsForBlog(ctx context.Context, blogID int64) ([]*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Tag{}
	for k := range m.state.junctions {
		if k[1] == blogID {
			t := *m.state.tags[k[0]]
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetTag(ctx context.Context, id int64) (*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.tags[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := *t
	return &out, nil
}

func (m *memStore) ListTags(ctx context.Context, limit, offset int) ([]*Tag, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Tag
	for _, t := range m.state.tags {
		tag := *t
		out = append(out, &tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, offset), len(out), nil
}

func (m *memStore) SearchTags(ctx context.Context, q string, limit int) ([]*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Tag{}
	for _, t := range m.state.tags {
		if containsFold(t.Name, q) && len(out) < limit {
			tag := *t
			out = append(out, &tag)
		}
	}
	return out, nil
}

// images

func (m *memStore) FindImage(ctx context.Context, data []byte, size int64, contentType string) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.state.images {
		if img.Size == size && img.ContentType == contentType && bytes.Equal(img.Data, data) {
			out := *img
			return &out, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (m *memStore) InsertImage(ctx context.Context, img *Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.ID = m.id()
	stored := *img
	m.state.images[img.ID] = &stored
	return nil
}

func (m *memStore) GetImage(ctx context.Context, id int64) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.state.images[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := *img
	return &out, nil
}

func (m *memStore) DeleteImageIfOrphan(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.images[id]; !ok {
		return false, nil
	}
	for _, b := range m.state.blogs {
		if b.BannerImageID != nil && *b.BannerImageID == id {
			return false, nil
		}
	}
	for _, photo := range m.state.photos {
		if photo == id {
			return false, nil
		}
	}
	delete(m.state.images, id)
	return true, nil
}

// comments

func (m *memStore) InsertComment(ctx context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CreatedAt = time.Now()
	stored := *c
	m.state.comments[c.ID] = &stored
	return nil
}

func (m *memStore) GetComment(ctx context.Context, id int64) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.comments[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := *c
	return &out, nil
}

func (m *memStore) AppendComment(ctx context.Context, blogID, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.blogRefs[blogID] = append(m.state.blogRefs[blogID], commentID)
	return nil
}

func (m *memStore) RemoveCommentRef(ctx context.Context, blogID, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := m.state.blogRefs[blogID]
	for i, id := range refs {
		if id == commentID {
			m.state.blogRefs[blogID] = append(refs[:i:i], refs[i+1:]...)
			return nil
		}
	}
	return common.ErrRecordNotFound
}

func (m *memStore) DeleteComment(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteComment"); err != nil {
		return err
	}
	if _, ok := m.state.comments[id]; !ok {
		return common.ErrRecordNotFound
	}
	delete(m.state.comments, id)
	return nil
}

func (m *memStore) CommentsForBlog(ctx context.Context, blogID int64) ([]*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Comment{}
	for _, id := range m.state.blogRefs[blogID] {
		c := *m.state.comments[id]
		out = append(out, &c)
	}
	return out, nil
}

func (m *memStore) DeleteBlogComments(ctx context.Context, blogID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.state.blogRefs[blogID] {
		delete(m.state.comments, id)
	}
	delete(m.state.blogRefs, blogID)
	return nil
}

// authors

func (m *memStore) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.users[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := *a
	return &out, nil
}

func (m *memStore) AdjustUserBlogCount(ctx context.Context, userID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.users[userID]
	if !ok {
		return common.ErrRecordNotFound
	}
	a.NumBlogs = max(a.NumBlogs+delta, 0)
	return nil
}

func (m *memStore) SearchAuthors(ctx context.Context, q string, limit int) ([]*Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Author{}
	for _, a := range m.state.users {
		if (containsFold(a.FirstName, q) || containsFold(a.LastName, q)) && len(out) < limit {
			author := *a
			out = append(out, &author)
		}
	}
	return out, nil
}

// helpers for assertions

func (m *memStore) tagNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, t := range m.state.tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func (m *memStore) imageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.images)
}

func (m *memStore) category(id int64) *Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.categories[id]
	if !ok {
		return nil
	}
	out := *c
	return &out
}

func (m *memStore) author(id int64) *Author {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *m.state.users[id]
	return &out
}
