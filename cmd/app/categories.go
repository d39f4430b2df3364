package main

import (
	"net/http"

	"github.com/sushihentaime/blogsphere/internal/blogservice"
)

func (app *application) listUserCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	p, err := app.blogService.ListUserCategories(r.Context(), app.getUserContext(r).ID, page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("categories", envelope{"categories": p.Categories, "total": p.Total, "maxPage": p.MaxPage}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	cat, err := app.blogService.CreateCategory(r.Context(), app.getUserContext(r).ID, r.PostForm.Get("name"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, success("category created", envelope{"category": cat}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) categoryFromPath(w http.ResponseWriter, r *http.Request) (*blogservice.Category, bool) {
	cat, err := app.blogService.GetCategory(r.Context(), app.getUserContext(r).ID, app.readParam(r, "catSlug"))
	if err != nil {
		app.errorResponse(w, r, err)
		return nil, false
	}

	return cat, true
}

func (app *application) showCategoryHandler(w http.ResponseWriter, r *http.Request) {
	cat, ok := app.categoryFromPath(w, r)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, success("category", envelope{"category": cat}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	cat, ok := app.categoryFromPath(w, r)
	if !ok {
		return
	}

	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	updated, err := app.blogService.UpdateCategory(r.Context(), cat, app.getUserContext(r).ID, r.PostForm.Get("name"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("category updated", envelope{"category": updated}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteCategoryHandler moves the category's blogs to the general category before removing it.
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	cat, ok := app.categoryFromPath(w, r)
	if !ok {
		return
	}

	err := app.blogService.DeleteCategory(r.Context(), cat, app.getUserContext(r).ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("category deleted", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCategoryGroupsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	p, err := app.blogService.ListCategoryGroups(r.Context(), page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("categories", envelope{"categories": p.Categories, "total": p.Total, "maxPage": p.MaxPage}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
