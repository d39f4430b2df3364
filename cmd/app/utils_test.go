package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogsphere/internal/credential"
)

func TestParseJSON(t *testing.T) {
	app := newUnitApplication(t)

	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"old_password": "a"}`},
		{name: "empty", body: ``, wantErr: "request body must not be empty"},
		{name: "badly formed", body: `{"old_password": }`, wantErr: "badly-formed JSON"},
		{name: "wrong type", body: `{"old_password": 1}`, wantErr: `invalid value for the "old_password" field`},
		{name: "unknown field", body: `{"nope": "a"}`, wantErr: `unknown field "nope"`},
		{name: "two values", body: `{"old_password": "a"}{}`, wantErr: "single JSON value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			res := httptest.NewRecorder()

			var dst changePasswordRequest
			err := app.parseJSON(res, req, &dst)

			if tc.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, "a", dst.OldPassword)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParseForm_Multipart(t *testing.T) {
	app := newUnitApplication(t)

	body, contentType := multipartBody(t, map[string]string{"title": "Hello", "tags": ""}, formFile{field: "banner", name: "banner.bin", data: testPNG(1)})
	req := httptest.NewRequest(http.MethodPost, "/v1/blogs", body)
	req.Header.Set("Content-Type", contentType)

	require.NoError(t, app.parseForm(httptest.NewRecorder(), req))

	assert.Equal(t, "Hello", *optionalFormValue(req, "title"))
	assert.Equal(t, "", *optionalFormValue(req, "tags"), "sent but empty")
	assert.Nil(t, optionalFormValue(req, "content"), "not sent")

	up, err := readUpload(req, "banner")
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, "image/png", up.ContentType, "sniffed, not taken from the file name")
	assert.Equal(t, "banner.bin", up.Filename)
	assert.Len(t, up.Data, len(testPNG(1)))

	up, err = readUpload(req, "photo")
	assert.NoError(t, err)
	assert.Nil(t, up)
}

func TestParseForm_URLEncoded(t *testing.T) {
	app := newUnitApplication(t)

	body, contentType := formBody(map[string]string{"email": "a@b.co"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/sign-in", body)
	req.Header.Set("Content-Type", contentType)

	require.NoError(t, app.parseForm(httptest.NewRecorder(), req))
	assert.Equal(t, "a@b.co", req.PostForm.Get("email"))

	up, err := readUpload(req, "photo")
	assert.NoError(t, err)
	assert.Nil(t, up)
}

func TestParseForm_TooLarge(t *testing.T) {
	app := newUnitApplication(t)

	body, contentType := multipartBody(t, nil, formFile{field: "banner", name: "big.png", data: bytes.Repeat([]byte{1}, maxFormBytes+1)})
	req := httptest.NewRequest(http.MethodPost, "/v1/blogs", body)
	req.Header.Set("Content-Type", contentType)

	err := app.parseForm(httptest.NewRecorder(), req)
	assert.Error(t, err)
}

func TestReadIDParam(t *testing.T) {
	app := newUnitApplication(t)

	testCases := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{value: "42", want: 42},
		{value: "0", wantErr: true},
		{value: "-3", wantErr: true},
		{value: "abc", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := context.WithValue(req.Context(), httprouter.ParamsKey, httprouter.Params{{Key: "id", Value: tc.value}})

			id, err := app.readIDParam(req.WithContext(ctx), "id")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestReadPageParams(t *testing.T) {
	app := newUnitApplication(t)

	page, limit, err := app.readPageParams(httptest.NewRequest(http.MethodGet, "/v1/blogs", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 0, limit)

	page, limit, err = app.readPageParams(httptest.NewRequest(http.MethodGet, "/v1/blogs?page=3&limit=9", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 9, limit)

	_, _, err = app.readPageParams(httptest.NewRequest(http.MethodGet, "/v1/blogs?limit=ten", nil))
	assert.EqualError(t, err, "invalid limit parameter")
}

func TestRefreshCookie(t *testing.T) {
	app := newUnitApplication(t)
	app.config.CookieSecure = true

	res := httptest.NewRecorder()
	app.setRefreshCookie(res, "token")

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, credential.RefreshCookieName, c.Name)
	assert.Equal(t, "token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int(credential.RefreshTokenTTL.Seconds()), c.MaxAge)

	res = httptest.NewRecorder()
	app.clearRefreshCookie(res)
	assert.Contains(t, res.Header().Get("Set-Cookie"), "Max-Age=0")
}
