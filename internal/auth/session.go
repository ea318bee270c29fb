package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jscorp/hostpanel/internal/kv"
)

// SessionSlot is the key the admin session lives under.
const SessionSlot = "adminSession"

// Session is the persisted proof of a successful login. Times are unix
// milliseconds.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username"`
	LoginTime       int64  `json:"loginTime"`
	ExpiresAt       int64  `json:"expiresAt"`
	RememberMe      bool   `json:"rememberMe"`
	TokenID         string `json:"tokenId,omitempty"`
}

// User is the public view of the logged-in session.
type User struct {
	Username  string `json:"username"`
	LoginTime int64  `json:"login_time"`
}

// readSession returns the stored session, or nil when the slot is missing or
// holds something that does not decode.
func readSession(ctx context.Context, store kv.Store) (*Session, error) {
	raw, ok, err := store.Get(ctx, SessionSlot)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		slog.Warn("Ignoring malformed session record", "error", err)
		return nil, nil
	}
	return &sess, nil
}

func writeSession(ctx context.Context, store kv.Store, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := store.Set(ctx, SessionSlot, string(raw)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
