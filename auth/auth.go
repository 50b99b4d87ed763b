// Package auth gates the HQ API behind a staff session. Credential checking is
// behind Authenticator so an identity provider can replace the static account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSessionName = "lankasafe-hq-session"

	isAuthKey   = "is_authenticated"
	usernameKey = "username"
	loginAtKey  = "login_at"

	currentUserKey = "currentUser"
	sessionMaxAge  = 12 * 60 * 60
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Staff is the signed-in HQ operator.
type Staff struct {
	Username string    `json:"username"`
	LoginAt  time.Time `json:"loginAt"`
}

// Authenticator verifies staff credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Staff, error)
}

// StaticAuthenticator accepts a single configured account whose password is
// stored as a bcrypt hash.
type StaticAuthenticator struct {
	Username     string
	PasswordHash []byte
}

func (a StaticAuthenticator) Authenticate(_ context.Context, username, password string) (Staff, error) {
	if a.Username == "" || len(a.PasswordHash) == 0 {
		return Staff{}, ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(username), a.Username) {
		// keep timing close to the wrong-password path
		bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password))
		return Staff{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return Staff{}, ErrInvalidCredentials
	}
	return Staff{Username: a.Username}, nil
}

// HashPassword is used by the dev bootstrap and by tests.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// SessionManager keeps the signed-in operator in a signed cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	Log   *zap.Logger
}

// NewSessionManager builds a cookie store. An empty key gets a random one, which
// logs everyone out on restart.
func NewSessionManager(key, name string, secure bool, log *zap.Logger) (*SessionManager, error) {
	if key == "" {
		key = string(securecookie.GenerateRandomKey(32))
		log.Warn("SESSION_KEY not set; using a random key, sessions will not survive a restart")
	} else if len(key) < 32 {
		log.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(key))
	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	log.Info("session store initialized", zap.Bool("secure", secure), zap.String("name", name))
	return &SessionManager{store: store, name: name, Log: log}, nil
}

func (m *SessionManager) session(r *http.Request) (*sessions.Session, error) {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			// stale or foreign cookie: start fresh
			return s, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, staff Staff) error {
	s, err := m.session(r)
	if err != nil {
		return err
	}
	if staff.LoginAt.IsZero() {
		staff.LoginAt = time.Now()
	}
	s.Values[isAuthKey] = true
	s.Values[usernameKey] = staff.Username
	s.Values[loginAtKey] = staff.LoginAt.Unix()
	return s.Save(r, w)
}

func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	s, err := m.session(r)
	if err != nil {
		return err
	}
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// Current returns the signed-in operator, if any.
func (m *SessionManager) Current(r *http.Request) (Staff, bool) {
	s, err := m.session(r)
	if err != nil {
		return Staff{}, false
	}
	if ok, _ := s.Values[isAuthKey].(bool); !ok {
		return Staff{}, false
	}
	name, _ := s.Values[usernameKey].(string)
	if name == "" {
		return Staff{}, false
	}
	staff := Staff{Username: name}
	if at, ok := s.Values[loginAtKey].(int64); ok {
		staff.LoginAt = time.Unix(at, 0)
	}
	return staff, true
}

// RequireSession rejects requests without a signed-in operator.
func (m *SessionManager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, ok := m.Current(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not signed in", "details": "log in to the HQ dashboard first"})
			return
		}
		c.Set(currentUserKey, staff)
		c.Next()
	}
}

// CurrentStaff reads the operator RequireSession stored on the context.
func CurrentStaff(c *gin.Context) (Staff, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return Staff{}, false
	}
	s, ok := v.(Staff)
	return s, ok
}
