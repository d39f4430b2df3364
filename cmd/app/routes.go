package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// auth
	router.HandlerFunc(http.MethodPost, "/v1/auth/sign-up", app.signUpHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/sign-in", app.signInHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/refresh-token", app.refreshTokenHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/sign-out", app.requireUser(app.signOutHandler))

	// admin
	router.HandlerFunc(http.MethodGet, "/v1/admin/profile", app.requireUser(app.showProfileHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/profile", app.requireUser(app.updateProfileHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/change-password", app.requireUser(app.changePasswordHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/categories", app.requireUser(app.listUserCategoriesHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/categories", app.requireUser(app.createCategoryHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/categories/:catSlug", app.requireUser(app.showCategoryHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/categories/:catSlug", app.requireUser(app.updateCategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/categories/:catSlug", app.requireUser(app.deleteCategoryHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/comments", app.requireUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/comments/:commentId", app.requireUser(app.deleteCommentHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/archived-blogs", app.requireUser(app.listArchivedBlogsHandler))

	// blogs
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.listBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:slug", app.showBlogHandler)
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:slug", app.requireUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:slug", app.requireUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:slug/status", app.requireUser(app.toggleBlogStatusHandler))

	// public lookups
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.listCategoryGroupsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/categories/:catSlug", app.listCategoryBlogsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/tags", app.listTagsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/tags/:id", app.showTagHandler)
	router.HandlerFunc(http.MethodGet, "/v1/search", app.searchHandler)
	router.HandlerFunc(http.MethodGet, "/v1/photos/:id", app.showPhotoHandler)
	router.HandlerFunc(http.MethodGet, "/v1/authors/:id", app.showAuthorHandler)

	return app.recoverPanic(app.logRequest(app.rateLimit(app.enforceGate(app.authenticate(router)))))
}
