package main

import (
	"net/http"
	"strconv"

	"github.com/sushihentaime/blogsphere/internal/blogservice"
	"github.com/sushihentaime/blogsphere/internal/common"
)

// canView reports whether the caller may see blog. Archived blogs exist only for their author.
func (app *application) canView(r *http.Request, blog *blogservice.Blog) bool {
	if blog.Status != blogservice.StatusArchived {
		return true
	}
	user := app.getUserContext(r)
	return user != nil && user.ID == blog.AuthorID
}

// readCategoryField parses the optional "category" form field.
func readCategoryField(r *http.Request) (*int64, error) {
	s := optionalFormValue(r, "category")
	if s == nil || *s == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(*s, 10, 64)
	if err != nil || id < 1 {
		return nil, common.NewValidationError("category", "must be a positive integer")
	}

	return &id, nil
}

// blogFromPath loads the blog named by the :slug parameter.
func (app *application) blogFromPath(w http.ResponseWriter, r *http.Request) (*blogservice.Blog, bool) {
	blog, err := app.blogService.GetBlog(r.Context(), app.readParam(r, "slug"))
	if err != nil {
		app.errorResponse(w, r, err)
		return nil, false
	}

	return blog, true
}

func (app *application) listBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	filter := blogservice.ListBlogsFilter{
		Page:         page,
		Limit:        limit,
		CategorySlug: r.URL.Query().Get("cat"),
	}

	author, err := app.readIntQuery(r, "author", 0)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	tag, err := app.readIntQuery(r, "tag", 0)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	filter.AuthorID, filter.TagID = int64(author), int64(tag)

	app.writeBlogPage(w, r, filter)
}

// listCategoryBlogsHandler lists published blogs in every user's category with the slug.
func (app *application) listCategoryBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	app.writeBlogPage(w, r, blogservice.ListBlogsFilter{Page: page, Limit: limit, CategorySlug: app.readParam(r, "catSlug")})
}

func (app *application) writeBlogPage(w http.ResponseWriter, r *http.Request, filter blogservice.ListBlogsFilter) {
	p, err := app.blogService.ListBlogs(r.Context(), filter)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("blogs", envelope{"blogs": p.Blogs, "total": p.Total, "maxPage": p.MaxPage}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listArchivedBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	p, err := app.blogService.ListArchivedBlogs(r.Context(), app.getUserContext(r).ID, page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("archived blogs", envelope{"blogs": p.Blogs, "total": p.Total, "maxPage": p.MaxPage}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBlogHandler serves any published blog. Archived blogs are visible to their author only.
func (app *application) showBlogHandler(w http.ResponseWriter, r *http.Request) {
	blog, ok := app.blogFromPath(w, r)
	if !ok {
		return
	}

	if !app.canView(r, blog) {
		app.notFoundErrorResponse(w, r)
		return
	}

	err := app.writeJSON(w, http.StatusOK, success("blog", envelope{"blog": blog}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	categoryID, err := readCategoryField(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	banner, err := readUpload(r, "banner")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	input := blogservice.CreateBlogInput{
		Title:      r.PostForm.Get("title"),
		Content:    r.PostForm.Get("content"),
		CategoryID: categoryID,
		TagText:    r.PostForm.Get("tags"),
		Banner:     banner,
	}

	blog, err := app.blogService.CreateBlog(r.Context(), app.getUserContext(r).ID, input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/blogs/"+blog.Slug)

	err = app.writeJSON(w, http.StatusCreated, success("blog created", envelope{"blog": blog}), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	blog, ok := app.blogFromPath(w, r)
	if !ok {
		return
	}

	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	categoryID, err := readCategoryField(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	banner, err := readUpload(r, "banner")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	input := blogservice.UpdateBlogInput{
		Title:      optionalFormValue(r, "title"),
		Content:    optionalFormValue(r, "content"),
		CategoryID: categoryID,
		TagText:    optionalFormValue(r, "tags"),
		Banner:     banner,
	}

	updated, err := app.blogService.UpdateBlog(r.Context(), blog, app.getUserContext(r).ID, input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("blog updated", envelope{"blog": updated}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	blog, ok := app.blogFromPath(w, r)
	if !ok {
		return
	}

	err := app.blogService.DeleteBlog(r.Context(), blog, app.getUserContext(r).ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("blog deleted", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// toggleBlogStatusHandler flips a blog between published and archived.
func (app *application) toggleBlogStatusHandler(w http.ResponseWriter, r *http.Request) {
	blog, ok := app.blogFromPath(w, r)
	if !ok {
		return
	}

	next := blogservice.StatusArchived
	if blog.Status == blogservice.StatusArchived {
		next = blogservice.StatusPublished
	}

	updated, err := app.blogService.SetBlogStatus(r.Context(), blog, app.getUserContext(r).ID, next)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("blog "+string(updated.Status), envelope{"blog": updated}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
