package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestStaticAuthenticator(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	a := StaticAuthenticator{Username: "admin", PasswordHash: hash}

	staff, err := a.Authenticate(context.Background(), "Admin ", "s3cret-pass")
	if err != nil || staff.Username != "admin" {
		t.Fatalf("Authenticate = %+v, %v", staff, err)
	}
	for _, c := range [][2]string{{"admin", "wrong"}, {"root", "s3cret-pass"}, {"", ""}} {
		if _, err := a.Authenticate(context.Background(), c[0], c[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q) = %v, want ErrInvalidCredentials", c[0], c[1], err)
		}
	}
	if _, err := (StaticAuthenticator{}).Authenticate(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("unconfigured authenticator must reject everyone")
	}
}

func newManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager("0123456789abcdef0123456789abcdef", "", false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSessionRoundTrip(t *testing.T) {
	m := newManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := m.Login(rec, req, Staff{Username: "admin"}); err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	staff, ok := m.Current(next)
	if !ok || staff.Username != "admin" || staff.LoginAt.IsZero() {
		t.Fatalf("Current = %+v, %v", staff, ok)
	}

	out := httptest.NewRecorder()
	if err := m.Logout(out, next); err != nil {
		t.Fatal(err)
	}
	after := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range out.Result().Cookies() {
		after.AddCookie(c)
	}
	if _, ok := m.Current(after); ok {
		t.Fatal("still signed in after logout")
	}
}

func TestCurrentIgnoresForeignCookie(t *testing.T) {
	m := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultSessionName, Value: "garbage"})
	if _, ok := m.Current(req); ok {
		t.Fatal("garbage cookie accepted")
	}
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newManager(t)
	r := gin.New()
	r.GET("/private", m.RequireSession(), func(c *gin.Context) {
		staff, _ := CurrentStaff(c)
		c.String(http.StatusOK, staff.Username)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	login := httptest.NewRecorder()
	if err := m.Login(login, httptest.NewRequest(http.MethodPost, "/", nil), Staff{Username: "admin"}); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "admin" {
		t.Fatalf("signed-in status = %d body = %q", rec.Code, rec.Body.String())
	}
}
