package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/userservice"
)

func (app *application) signUpHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	photo, err := readUpload(r, "photo")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	input := userservice.SignUpInput{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Email:     r.PostForm.Get("email"),
		Password:  r.PostForm.Get("password"),
		Photo:     photo,
	}

	user, pair, err := app.userService.SignUp(r.Context(), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.setRefreshCookie(w, pair.RefreshToken)

	err = app.writeJSON(w, http.StatusCreated, success("signed up", envelope{"token": pair.AccessToken, "user": user}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) signInHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, pair, err := app.userService.SignIn(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.setRefreshCookie(w, pair.RefreshToken)

	err = app.writeJSON(w, http.StatusOK, success("signed in", envelope{"token": pair.AccessToken, "user": user}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// refreshTokenHandler rotates the refresh cookie. A cookie that can never be rotated
// again is cleared so the client stops sending it.
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	pair, err := app.userService.Refresh(r.Context(), refreshToken(r))
	if err != nil {
		var storageErr *common.StorageError
		if !errors.As(err, &storageErr) {
			app.clearRefreshCookie(w)
		}
		app.errorResponse(w, r, err)
		return
	}

	app.setRefreshCookie(w, pair.RefreshToken)

	err = app.writeJSON(w, http.StatusOK, success("token refreshed", envelope{"token": pair.AccessToken}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) signOutHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.userService.SignOut(r.Context(), user.ID)
	if err != nil && !errors.Is(err, common.ErrRecordNotFound) {
		app.errorResponse(w, r, err)
		return
	}

	app.clearRefreshCookie(w)

	err = app.writeJSON(w, http.StatusOK, success("signed out", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
