package main

import (
	"net/http"

	"github.com/sushihentaime/blogsphere/internal/userservice"
)

func (app *application) showProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.writeJSON(w, http.StatusOK, success("profile", envelope{"user": user}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateProfileHandler changes only the fields present in the form.
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
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

	input := userservice.UpdateProfileInput{
		FirstName: optionalFormValue(r, "first_name"),
		LastName:  optionalFormValue(r, "last_name"),
		Email:     optionalFormValue(r, "email"),
		Bio:       optionalFormValue(r, "bio"),
		Photo:     photo,
	}

	user, err := app.userService.UpdateProfile(r.Context(), app.getUserContext(r), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("profile updated", envelope{"user": user}), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input changePasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ChangePassword(r.Context(), app.getUserContext(r), userservice.ChangePasswordInput{
		OldPassword:     input.OldPassword,
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("password changed", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
