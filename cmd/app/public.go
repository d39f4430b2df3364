package main

import (
	"net/http"
	"strconv"
)

func (app *application) listTagsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	p, err := app.blogService.ListTags(r.Context(), page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("tags", envelope{"tags": p.Tags, "total": p.Total, "totalPages": p.TotalPages}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showTagHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	tag, err := app.blogService.GetTag(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("tag", envelope{"tag": tag}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) searchHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := app.readIntQuery(r, "limit", 0)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	res, err := app.blogService.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("search results", envelope{"suggestions": res}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showPhotoHandler writes the raw image bytes.
func (app *application) showPhotoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	img, err := app.blogService.GetImage(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

func (app *application) showAuthorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	author, err := app.blogService.GetAuthor(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("author", envelope{"author": author}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
