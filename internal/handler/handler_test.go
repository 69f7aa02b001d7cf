package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jualapa/internal/auth"
	apperrors "jualapa/internal/errors"
	"jualapa/internal/media"
	"jualapa/internal/model"
	"jualapa/internal/oauth"
	"jualapa/internal/repository"
	"jualapa/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newEcho(log *zap.Logger, development bool) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	e.HTTPErrorHandler = ErrorHandler(log, development)
	return e
}

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ValidateResetToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *MockAuthService) GoogleAuthURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockAuthService) LoginWithGoogle(ctx context.Context, code string) (string, *model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, in media.Upload) (media.Asset, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(media.Asset), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		development bool
		wantStatus  int
		wantCode    string
		wantDetail  bool
		wantLogged  bool
	}{
		{name: "validation", err: apperrors.NewValidationError("title is required"), wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "domain sentinel", err: apperrors.ErrAlreadyStarred, wantStatus: http.StatusConflict, wantCode: "ALREADY_STARRED"},
		{name: "wrapped sentinel", err: errors.Join(errors.New("ctx"), apperrors.ErrProductNotFound), wantStatus: http.StatusNotFound, wantCode: "PRODUCT_NOT_FOUND"},
		{name: "echo error", err: echo.NewHTTPError(http.StatusRequestEntityTooLarge), wantStatus: http.StatusRequestEntityTooLarge, wantCode: "HTTP_ERROR"},
		{name: "internal in production", err: errors.New("db exploded"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR", wantLogged: true},
		{name: "internal in development", err: errors.New("db exploded"), development: true, wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR", wantDetail: true, wantLogged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			e := newEcho(zap.New(core), tt.development)
			e.GET("/boom", func(echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantDetail {
				assert.Equal(t, "db exploded", body.Detail)
			} else {
				assert.Empty(t, body.Detail)
				assert.NotContains(t, rec.Body.String(), "db exploded")
			}
			if tt.wantLogged {
				assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	e := newEcho(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "URL not found - /api/v1/nope", body.Error)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, "ana@x.io", "secret1").Return("signed.jwt", &model.User{Email: "ana@x.io"}, nil)
	svc.On("Login", mock.Anything, "ana@x.io", "wrong").Return("", nil, apperrors.ErrInvalidCredentials)

	h := NewAuthHandler(svc, auth.CookieOptions{SameSite: http.SameSiteLaxMode}, "http://front.test", zap.NewNop())
	e := newEcho(zap.NewNop(), false)
	e.POST("/sessions", h.Login)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCookie bool
	}{
		{name: "success", body: `{"email":"ana@x.io","password":"secret1"}`, wantStatus: http.StatusOK, wantCookie: true},
		{name: "wrong password", body: `{"email":"ana@x.io","password":"wrong"}`, wantStatus: http.StatusUnauthorized},
		{name: "invalid email", body: `{"email":"nope","password":"secret1"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			cookies := rec.Result().Cookies()
			if !tt.wantCookie {
				assert.Empty(t, cookies)
				return
			}
			require.Len(t, cookies, 1)
			assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
			assert.Equal(t, "signed.jwt", cookies[0].Value)
			assert.True(t, cookies[0].HttpOnly)
			assert.Equal(t, "/", cookies[0].Path)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(new(MockAuthService), auth.CookieOptions{}, "http://front.test", zap.NewNop())
	e := newEcho(zap.NewNop(), false)
	e.DELETE("/sessions", h.Logout)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_GoogleCallback(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		token       string
		err         error
		wantStatus  string
		wantMessage string
		wantCookie  bool
	}{
		{name: "success", code: "abc", token: "signed.jwt", wantStatus: "success", wantMessage: "login successful", wantCookie: true},
		{name: "local account", code: "abc", err: apperrors.ErrEmailRegisteredLocally, wantStatus: "failed", wantMessage: apperrors.ErrEmailRegisteredLocally.Error()},
		{name: "missing code", code: "", err: apperrors.NewValidationError("missing authorization code"), wantStatus: "failed", wantMessage: "missing authorization code"},
		{name: "provider failure is not leaked", code: "abc", err: oauth.ErrExchange, wantStatus: "failed", wantMessage: "something went wrong while signing in with Google"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.err != nil {
				svc.On("LoginWithGoogle", mock.Anything, tt.code).Return("", nil, tt.err)
			} else {
				svc.On("LoginWithGoogle", mock.Anything, tt.code).Return(tt.token, &model.User{}, nil)
			}
			h := NewAuthHandler(svc, auth.CookieOptions{}, "http://front.test", zap.NewNop())
			e := newEcho(zap.NewNop(), false)
			e.GET("/google/callback", h.GoogleCallback)

			req := httptest.NewRequest(http.MethodGet, "/google/callback?state=nonce&code="+tt.code, nil)
			req.AddCookie(&http.Cookie{Name: auth.OAuthStateCookieName, Value: "nonce"})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, http.StatusFound, rec.Code)
			loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
			require.NoError(t, err)
			assert.Equal(t, "front.test", loc.Host)
			assert.Equal(t, "/auth/login", loc.Path)
			assert.Equal(t, "google", loc.Query().Get("provider"))
			assert.Equal(t, tt.wantStatus, loc.Query().Get("status"))
			assert.Equal(t, tt.wantMessage, loc.Query().Get("message"))
			assert.Equal(t, tt.wantCookie, findCookie(rec, auth.SessionCookieName) != nil)

			state := findCookie(rec, auth.OAuthStateCookieName)
			require.NotNil(t, state)
			assert.Equal(t, -1, state.MaxAge)
		})
	}
}

func TestAuthHandler_GoogleCallbackRejectsForeignState(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		cookie string
	}{
		{name: "no state cookie", query: "state=nonce&code=abc"},
		{name: "state mismatch", query: "state=attacker&code=abc", cookie: "nonce"},
		{name: "missing state param", query: "code=abc", cookie: "nonce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			h := NewAuthHandler(svc, auth.CookieOptions{}, "http://front.test", zap.NewNop())
			e := newEcho(zap.NewNop(), false)
			e.GET("/google/callback", h.GoogleCallback)

			req := httptest.NewRequest(http.MethodGet, "/google/callback?"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.OAuthStateCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, http.StatusFound, rec.Code)
			loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
			require.NoError(t, err)
			assert.Equal(t, "failed", loc.Query().Get("status"))
			assert.Contains(t, loc.Query().Get("message"), "try again")
			assert.Nil(t, findCookie(rec, auth.SessionCookieName))
			svc.AssertNotCalled(t, "LoginWithGoogle", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_GoogleLogin(t *testing.T) {
	svc := new(MockAuthService)
	var issued string
	svc.On("GoogleAuthURL", mock.MatchedBy(func(state string) bool {
		issued = state
		return state != ""
	})).Return("https://accounts.example/auth?client_id=x")
	h := NewAuthHandler(svc, auth.CookieOptions{Secure: true}, "http://front.test", zap.NewNop())
	e := newEcho(zap.NewNop(), false)
	e.GET("/google", h.GoogleLogin)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/google", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example/auth?client_id=x", rec.Header().Get(echo.HeaderLocation))

	state := findCookie(rec, auth.OAuthStateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, issued, state.Value)
	assert.True(t, state.HttpOnly)
	assert.True(t, state.Secure)
}

func TestProductFilterFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, f repository.ProductFilter)
	}{
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, f repository.ProductFilter) {
				assert.Equal(t, repository.SortNewest, f.Sort)
				assert.False(t, f.Ascending)
				assert.Nil(t, f.MaxCapital)
			},
		},
		{
			name:  "everything",
			query: "q=teh&category=Drink&max_capital=150000&sort=capital&order=asc&page=2&limit=5&is_verified=true",
			check: func(t *testing.T, f repository.ProductFilter) {
				assert.Equal(t, "teh", f.Query)
				assert.Equal(t, model.CategoryDrink, f.Category)
				assert.Equal(t, "150000", f.MaxCapital.String())
				assert.True(t, f.Ascending)
				assert.Equal(t, repository.Page{Page: 2, Limit: 5}, f.Page)
				require.NotNil(t, f.Verified)
				assert.True(t, *f.Verified)
			},
		},
		{
			name:  "sort without order is ascending",
			query: "sort=popularity",
			check: func(t *testing.T, f repository.ProductFilter) {
				assert.Equal(t, repository.SortPopularity, f.Sort)
				assert.True(t, f.Ascending)
			},
		},
		{
			name:  "explicit desc",
			query: "sort=stars&order=desc",
			check: func(t *testing.T, f repository.ProductFilter) {
				assert.Equal(t, repository.SortStars, f.Sort)
				assert.False(t, f.Ascending)
			},
		},
		{name: "bad sort", query: "sort=price", wantErr: true},
		{name: "bad order", query: "order=up", wantErr: true},
		{name: "bad category", query: "category=snack", wantErr: true},
		{name: "bad capital", query: "max_capital=lots", wantErr: true},
		{name: "bad author", query: "created_by=me", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/products?"+tt.query, nil), httptest.NewRecorder())
			f, err := productFilterFromQuery(c)
			if tt.wantErr {
				var ve *apperrors.ValidationError
				assert.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestMediaHandler_Upload(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	tests := []struct {
		name       string
		filename   string
		content    []byte
		uploadErr  error
		wantStatus int
	}{
		{name: "image", filename: "teh.png", content: png, wantStatus: http.StatusCreated},
		{name: "not an image", filename: "notes.png", content: []byte("just some text"), wantStatus: http.StatusBadRequest},
		{name: "store failure", filename: "teh.png", content: png, uploadErr: errors.New("s3 down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockMediaStore)
			store.On("Upload", mock.Anything, mock.MatchedBy(func(in media.Upload) bool {
				return in.Filename == tt.filename && in.ContentType == "image/png"
			})).Return(media.Asset{URL: "http://cdn/teh.png", PublicID: "uploads/teh.png"}, tt.uploadErr).Maybe()

			e := newEcho(zap.NewNop(), false)
			e.POST("/media", NewMediaHandler(store).Upload)

			body, contentType := multipartBody(t, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/media", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				assert.Contains(t, rec.Body.String(), "uploads/teh.png")
			}
		})
	}
}

func TestMediaHandler_MissingFile(t *testing.T) {
	e := newEcho(zap.NewNop(), false)
	e.POST("/media", NewMediaHandler(new(MockMediaStore)).Upload)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/media", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
