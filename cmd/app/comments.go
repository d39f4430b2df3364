package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogsphere/internal/blogservice"
)

// blogFromQuery loads the blog named by the ?blog= parameter. Blogs the caller
// can not view are reported as not found.
func (app *application) blogFromQuery(w http.ResponseWriter, r *http.Request) (*blogservice.Blog, bool) {
	slug := r.URL.Query().Get("blog")
	if slug == "" {
		app.badRequestErrorResponse(w, r, errors.New("missing blog parameter"))
		return nil, false
	}

	blog, err := app.blogService.GetBlog(r.Context(), slug)
	if err != nil {
		app.errorResponse(w, r, err)
		return nil, false
	}

	if !app.canView(r, blog) {
		app.notFoundErrorResponse(w, r)
		return nil, false
	}

	return blog, true
}

func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	blog, ok := app.blogFromQuery(w, r)
	if !ok {
		return
	}

	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.blogService.CreateComment(r.Context(), blog, app.getUserContext(r).ID, r.PostForm.Get("text"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, success("comment created", envelope{"comment": comment}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "commentId")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	blog, ok := app.blogFromQuery(w, r)
	if !ok {
		return
	}

	comment, err := app.blogService.GetComment(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	// The blog author may only delete comments that are on their own blog.
	if !hasComment(blog, comment.ID) {
		app.notFoundErrorResponse(w, r)
		return
	}

	err = app.blogService.DeleteComment(r.Context(), comment, app.getUserContext(r).ID, blog)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("comment deleted", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func hasComment(blog *blogservice.Blog, id int64) bool {
	for _, c := range blog.Comments {
		if c.ID == id {
			return true
		}
	}
	return false
}
