package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogsphere/internal/blogservice"
	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/credential"
	"github.com/sushihentaime/blogsphere/internal/gate"
	"github.com/sushihentaime/blogsphere/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func testConfig() *Config {
	cfg := &Config{Environment: "testing", Version: "test"}
	cfg.Credential.AccessSecret = "access-secret"
	cfg.Credential.RefreshSecret = "refresh-secret"
	cfg.SignIn.MaxAttempts = 3
	cfg.SignIn.Cooldown = time.Minute
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newUnitApplication builds an application without any backing services, enough for
// middleware that rejects a request before a service is called.
func newUnitApplication(t *testing.T) *application {
	t.Helper()

	return &application{
		config:  testConfig(),
		logger:  testLogger(),
		gate:    gate.DefaultPolicy(),
		limiter: newClientLimiter(0, 0, false),
	}
}

// newTestApplication wires every service against postgres, rabbitmq and miniredis.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := common.TestDB("file://../../migrations", t)
	rdb, _ := common.TestRedis(t)

	broker, err := common.NewMessageBroker(common.TestRabbitMQ(t))
	require.NoError(t, err)
	t.Cleanup(func() { broker.Close() })
	require.NoError(t, common.SetupUserExchange(broker))

	cfg := testConfig()
	logger := testLogger()

	users := userservice.NewDBModel(db)
	credentials, err := credential.New(cfg.Credential.AccessSecret, cfg.Credential.RefreshSecret, users)
	require.NoError(t, err)

	blogService := blogservice.NewBlogService(blogservice.NewBlogModel(db), common.NewCache(time.Minute, time.Minute), logger)
	limiter := userservice.NewSignInLimiter(rdb, cfg.SignIn.MaxAttempts, cfg.SignIn.Cooldown)

	return &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(users, broker, credentials, limiter, blogService, logger),
		blogService: blogService,
		broker:      broker,
		gate:        gate.DefaultPolicy(),
		limiter:     newClientLimiter(0, 0, false),
	}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

// session is what a signed-in test client holds.
type session struct {
	token   string
	refresh string
}

type formFile struct {
	field, name string
	data        []byte
}

// multipartBody encodes fields and files as multipart/form-data.
func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func formBody(fields map[string]string) (io.Reader, string) {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	return bytes.NewBufferString(values.Encode()), "application/x-www-form-urlencoded"
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string, s *session) (int, http.Header, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s != nil {
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		if s.refresh != "" {
			req.AddCookie(&http.Cookie{Name: credential.RefreshCookieName, Value: s.refresh})
		}
	}

	res, err := ts.Client().Do(req)
	require.NoError(t, err)

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, s *session) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, nil, "", s)
}

func (ts *testServer) postForm(t *testing.T, path string, fields map[string]string, s *session) (int, http.Header, envelope) {
	body, contentType := formBody(fields)
	return ts.do(t, http.MethodPost, path, body, contentType, s)
}

func (ts *testServer) putForm(t *testing.T, path string, fields map[string]string, s *session) (int, http.Header, envelope) {
	body, contentType := formBody(fields)
	return ts.do(t, http.MethodPut, path, body, contentType, s)
}

func (ts *testServer) delete(t *testing.T, path string, s *session) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, nil, "", s)
}

// signUp creates a user and returns its session.
func (ts *testServer) signUp(t *testing.T, email string) *session {
	t.Helper()

	body, contentType := multipartBody(t, map[string]string{
		"first_name": "Jane",
		"last_name":  "Doe",
		"email":      email,
		"password":   "Test_1234!",
	})
	status, headers, env := ts.do(t, http.MethodPost, "/v1/auth/sign-up", body, contentType, nil)
	require.Equal(t, http.StatusCreated, status, env.JSON())

	return &session{token: env["token"].(string), refresh: refreshCookie(t, headers).Value}
}

func refreshCookie(t *testing.T, headers http.Header) *http.Cookie {
	t.Helper()

	res := http.Response{Header: headers}
	for _, c := range res.Cookies() {
		if c.Name == credential.RefreshCookieName {
			return c
		}
	}

	t.Fatalf("no %s cookie in response", credential.RefreshCookieName)
	return nil
}

// testPNG is enough of a png for content sniffing.
func testPNG(seed byte) []byte {
	data := []byte("\x89PNG\r\n\x1a\n")
	return append(data, bytes.Repeat([]byte{seed}, 2048)...)
}
