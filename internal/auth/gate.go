// Package auth implements the admin session gate: one configured credential
// pair, a persisted session record with a fixed lifetime, and a signed token
// the HTTP layer hands to the browser.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jscorp/hostpanel/internal/kv"
)

// User-facing login messages.
const (
	MessageLoginOK     = "Login berhasil!"
	MessageLoginFailed = "Username atau password salah!"
)

// Default session lifetimes.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// Config configures a Gate.
type Config struct {
	Username    string
	Password    string
	Secret      []byte
	SessionTTL  time.Duration
	RememberTTL time.Duration
	Now         func() time.Time
}

// Claims are carried by the session token. They mirror the persisted
// Session so a token can be inspected without a store round trip.
type Claims struct {
	jwt.RegisteredClaims
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username"`
	LoginTime       int64  `json:"loginTime"`
	SessionExpiry   int64  `json:"expiresAt"`
	RememberMe      bool   `json:"rememberMe"`
}

// LoginResult reports the outcome of Login. Token and ExpiresAt are only set
// on success.
type LoginResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Gate moves the admin between Anonymous and Authenticated.
type Gate struct {
	store        kv.Store
	username     string
	passwordHash []byte
	secret       []byte
	sessionTTL   time.Duration
	rememberTTL  time.Duration
	now          func() time.Time
}

// NewGate creates a Gate over store. A missing secret is replaced by random
// bytes, so tokens do not survive a restart.
func NewGate(store kv.Store, cfg Config) (*Gate, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("auth: username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("auth: generate secret: %w", err)
		}
	}

	g := &Gate{
		store:        store,
		username:     cfg.Username,
		passwordHash: hash,
		secret:       secret,
		sessionTTL:   cfg.SessionTTL,
		rememberTTL:  cfg.RememberTTL,
		now:          cfg.Now,
	}
	if g.sessionTTL <= 0 {
		g.sessionTTL = DefaultSessionTTL
	}
	if g.rememberTTL <= 0 {
		g.rememberTTL = DefaultRememberTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

// Login checks the credentials and, on an exact match, writes a fresh
// session. A mismatch changes nothing and reports failure in the result.
func (g *Gate) Login(ctx context.Context, username, password string, rememberMe bool) (LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		return LoginResult{Success: false, Message: MessageLoginFailed}, nil
	}

	now := g.now()
	ttl := g.sessionTTL
	if rememberMe {
		ttl = g.rememberTTL
	}
	expires := now.Add(ttl)

	sess := Session{
		IsAuthenticated: true,
		Username:        username,
		LoginTime:       now.UnixMilli(),
		ExpiresAt:       expires.UnixMilli(),
		RememberMe:      rememberMe,
		TokenID:         uuid.NewString(),
	}

	token, err := g.sign(sess, now, expires)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := writeSession(ctx, g.store, sess); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Success:   true,
		Message:   MessageLoginOK,
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

func (g *Gate) sign(sess Session, issued, expires time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   sess.Username,
			Issuer:    "hostpanel",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		IsAuthenticated: sess.IsAuthenticated,
		Username:        sess.Username,
		LoginTime:       sess.LoginTime,
		SessionExpiry:   sess.ExpiresAt,
		RememberMe:      sess.RememberMe,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// current returns the live session. An expired session is removed from the
// store and reported as nil.
func (g *Gate) current(ctx context.Context) (*Session, error) {
	sess, err := readSession(ctx, g.store)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.ExpiresAt != 0 && g.now().UnixMilli() > sess.ExpiresAt {
		if err := g.store.Remove(ctx, SessionSlot); err != nil {
			return nil, fmt.Errorf("clear expired session: %w", err)
		}
		return nil, nil
	}
	return sess, nil
}

// IsAuthenticated reports whether a live session exists.
func (g *Gate) IsAuthenticated(ctx context.Context) (bool, error) {
	sess, err := g.current(ctx)
	if err != nil || sess == nil {
		return false, err
	}
	return sess.IsAuthenticated, nil
}

// Verify reports whether token was issued for the live session. Tokens from
// an earlier login, a logged-out session, or another signing key fail.
func (g *Gate) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry is judged against the persisted session using the gate clock.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return false, nil
	}

	sess, err := g.current(ctx)
	if err != nil || sess == nil {
		return false, err
	}
	if !sess.IsAuthenticated || sess.TokenID == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(claims.ID), []byte(sess.TokenID)) == 1, nil
}

// Logout clears the session unconditionally.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.store.Remove(ctx, SessionSlot); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns the username and login time of the stored session, or
// nil when there is none.
func (g *Gate) CurrentUser(ctx context.Context) (*User, error) {
	sess, err := g.current(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	return &User{Username: sess.Username, LoginTime: sess.LoginTime}, nil
}
