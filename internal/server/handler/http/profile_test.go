package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mkalinin42/fastvuln/internal/models"
	"github.com/mkalinin42/fastvuln/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	registerID  string
	registerErr error

	loginToken string
	loginErr   error

	profile    *models.Profile
	profileErr error

	updated   *models.Profile
	updateErr error
	gotUpdate models.ProfileUpdate
	gotToken  string
	gotLookup string

	backdoor    *models.Profile
	backdoorErr error
}

func (f *fakeAuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	return f.registerID, f.registerErr
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	return f.loginToken, time.Now().Add(10 * time.Minute), f.loginErr
}

func (f *fakeAuthService) GetProfile(ctx context.Context, token string) (*models.Profile, error) {
	f.gotToken = token
	return f.profile, f.profileErr
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.Profile, error) {
	f.gotToken = token
	f.gotUpdate = update
	return f.updated, f.updateErr
}

func (f *fakeAuthService) BackdoorLookup(ctx context.Context, username string) (*models.Profile, error) {
	f.gotLookup = username
	return f.backdoor, f.backdoorErr
}

func newTestRouter(svc AuthService) http.Handler {
	h := &ProfileHandler{
		AuthService:     svc,
		CookieName:      "session_id",
		SessionLifetime: 600 * time.Second,
	}
	return NewRouter(h, zap.NewNop())
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "invalid JSON",
			body:         `not a json`,
			service:      &fakeAuthService{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "duplicate username",
			body:         `{"username":"bob","email":"b@x.com","password":"secret1"}`,
			service:      &fakeAuthService{registerErr: service.ErrUsernameTaken},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "duplicate email",
			body:         `{"username":"bob","email":"b@x.com","password":"secret1"}`,
			service:      &fakeAuthService{registerErr: service.ErrEmailTaken},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "success",
			body:         `{"username":"bob","email":"b@x.com","password":"secret1"}`,
			service:      &fakeAuthService{registerID: "id-1"},
			expectedCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, newTestRouter(tt.service), "POST", "/register", tt.body, nil)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedCode, rec.Code, rec.Body.String())
			}

			if tt.expectedCode == http.StatusCreated {
				var payload map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				if payload["user_id"] != "id-1" {
					t.Errorf("expected user_id %q, got %q", "id-1", payload["user_id"])
				}
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name         string
		service      *fakeAuthService
		expectedCode int
	}{
		{"unknown user", &fakeAuthService{loginErr: service.ErrNotFound}, http.StatusNotFound},
		{"wrong password", &fakeAuthService{loginErr: service.ErrUnauthorized}, http.StatusUnauthorized},
		{"success", &fakeAuthService{loginToken: "tok-1"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, newTestRouter(tt.service), "POST", "/login",
				`{"username":"bob","password":"secret1"}`, nil)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	rec := doJSON(t, newTestRouter(&fakeAuthService{loginToken: "tok-1"}), "POST", "/login",
		`{"username":"bob","password":"secret1"}`, nil)

	res := rec.Result()
	defer res.Body.Close()

	var sessionCookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "session_id" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("login response did not set the session cookie")
	}
	if sessionCookie.Value != "tok-1" {
		t.Errorf("cookie value = %q; want %q", sessionCookie.Value, "tok-1")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie is not httpOnly")
	}
	if sessionCookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v; want Lax", sessionCookie.SameSite)
	}
	if sessionCookie.MaxAge != 600 {
		t.Errorf("cookie MaxAge = %d; want 600", sessionCookie.MaxAge)
	}

	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if payload["username"] != "bob" {
		t.Errorf("expected username %q, got %q", "bob", payload["username"])
	}
}

func TestGetProfile(t *testing.T) {
	bio := "hello"
	tests := []struct {
		name         string
		cookie       *http.Cookie
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "no cookie",
			cookie:       nil,
			service:      &fakeAuthService{},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "expired session",
			cookie:       &http.Cookie{Name: "session_id", Value: "stale"},
			service:      &fakeAuthService{profileErr: service.ErrUnauthorized},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:    "success",
			cookie:  &http.Cookie{Name: "session_id", Value: "tok-1"},
			service: &fakeAuthService{profile: &models.Profile{Username: "bob", Email: "b@x.com", Bio: &bio}},

			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, newTestRouter(tt.service), "GET", "/profile", "", tt.cookie)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}

			if tt.expectedCode == http.StatusOK {
				if tt.service.gotToken != "tok-1" {
					t.Errorf("service received token %q; want %q", tt.service.gotToken, "tok-1")
				}
				var profile models.Profile
				if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				if profile.Username != "bob" || profile.FullName != nil || profile.Bio == nil {
					t.Errorf("unexpected profile: %+v", profile)
				}
			}
		})
	}
}

func TestGetProfile_NullFieldsSerialized(t *testing.T) {
	svc := &fakeAuthService{profile: &models.Profile{Username: "bob", Email: "b@x.com"}}
	rec := doJSON(t, newTestRouter(svc), "GET", "/profile", "",
		&http.Cookie{Name: "session_id", Value: "tok-1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	for _, field := range []string{"full_name", "bio"} {
		v, present := raw[field]
		if !present {
			t.Errorf("field %q missing from response", field)
			continue
		}
		if string(v) != "null" {
			t.Errorf("field %q = %s; want null", field, v)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	bio := "new bio"
	tests := []struct {
		name         string
		body         string
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "empty update",
			body:         `{}`,
			service:      &fakeAuthService{updateErr: service.ErrBadRequest},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "success",
			body:         `{"bio":"new bio"}`,
			service:      &fakeAuthService{updated: &models.Profile{Username: "bob", Email: "b@x.com", Bio: &bio}},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, newTestRouter(tt.service), "PUT", "/profile", tt.body,
				&http.Cookie{Name: "session_id", Value: "tok-1"})

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}

			if tt.expectedCode == http.StatusOK {
				if tt.service.gotUpdate.Bio == nil || *tt.service.gotUpdate.Bio != "new bio" {
					t.Errorf("service received update %+v; want bio %q", tt.service.gotUpdate, "new bio")
				}
				if tt.service.gotUpdate.FullName != nil {
					t.Errorf("omitted full_name decoded as %q; want nil", *tt.service.gotUpdate.FullName)
				}
			}
		})
	}
}

func TestBackdoor(t *testing.T) {
	bio := "My favorite dish is: FLAG{test}"
	tests := []struct {
		name         string
		query        string
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "unknown username",
			query:        "?username=ghost",
			service:      &fakeAuthService{backdoorErr: service.ErrNotFound},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "no session required",
			query:        "?username=victim",
			service:      &fakeAuthService{backdoor: &models.Profile{Username: "victim", Email: "v@x.com", Bio: &bio}},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Deliberately no cookie: the endpoint must not require one.
			rec := doJSON(t, newTestRouter(tt.service), "GET", "/backdoor"+tt.query, "", nil)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}

			if tt.expectedCode == http.StatusOK {
				if tt.service.gotLookup != "victim" {
					t.Errorf("service received username %q; want %q", tt.service.gotLookup, "victim")
				}
				var profile models.Profile
				if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				if profile.Bio == nil || *profile.Bio != bio {
					t.Errorf("unexpected bio: %v", profile.Bio)
				}
			}
		})
	}
}
