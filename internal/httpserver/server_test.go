package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/kv"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/revocation"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type testServer struct {
	e     *echo.Echo
	repo  *repo.GormRepo
	mr    *miniredis.Miniredis
	auth  *service.AuthService
	codec *tokens.Codec
}

func newTestServer(t *testing.T, csrfEnabled bool) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := repotest.NewRepo(t)
	store := kv.NewRedisStore(rdb)
	codec := tokens.NewCodec([]byte("test-jwt-secret"), 24*time.Hour, 30*24*time.Hour)
	rev := revocation.NewStore(store)
	auth := service.NewAuthService(r, codec, rev, nil)

	deps := &Deps{
		Auth:    auth,
		Catalog: service.NewCatalogService(r, cache.New(rdb, time.Minute), nil, nil),
		Orders:  service.NewOrderService(r, nil),
		Guard:   middleware.NewGuard(codec, rev, r),
		Ready:   map[string]Pinger{"database": r, "redis": store},
		CSRF:    csrfEnabled,
	}
	return &testServer{e: New(logging.Discard(), deps), repo: r, mr: mr, auth: auth, codec: codec}
}

type call struct {
	method  string
	path    string
	body    any
	bearer  string
	cookies []*http.Cookie
	headers map[string]string
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.bearer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email, nationalID string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, call{method: http.MethodPost, path: "/auth/register", body: transport.RegisterRequest{
		FullName:   "Jane",
		Email:      email,
		Password:   "pw",
		NationalID: nationalID,
		BirthDate:  "1990-05-01",
	}})
}

// login returns the access token and the refresh cookie.
func (s *testServer) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/auth/login", body: transport.LoginRequest{Email: email, Password: password}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp transport.AccessTokenResponse
	decode(t, rec, &resp)
	return resp.AccessToken, findCookie(rec, refreshCookieName)
}

func (s *testServer) makeAdmin(t *testing.T, email, nationalID string) string {
	t.Helper()
	_, err := s.auth.EnsureAdmin(context.Background(), transport.RegisterRequest{
		FullName: "Admin", Email: email, Password: "pw", NationalID: nationalID, BirthDate: "1980-01-01",
	})
	require.NoError(t, err)
	token, _ := s.login(t, email, "pw")
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
