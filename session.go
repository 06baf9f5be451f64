package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 12
	minPINLen  = 4
)

// settings keys for the persisted session
const (
	settingSessionToken = "session_token"
	settingPINHash      = "session_pin_hash"
)

// Session is the local identity: user id, name and the bearer token issued
// by the backend. Token verification stays server-side; the client only
// decodes the claims for the id and the expiry.
type Session struct {
	UserID    int64
	Username  string
	Token     string
	ExpiresAt time.Time
}

// SessionFromToken decodes an unverified JWT into a Session.
func SessionFromToken(token string) (*Session, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	s := &Session{Token: token}
	if id, ok := claims["userId"].(float64); ok {
		s.UserID = int64(id)
	} else if id, ok := claims["pid"].(float64); ok {
		s.UserID = int64(id)
	}
	if s.UserID == 0 {
		return nil, fmt.Errorf("token carries no user id")
	}
	if name, ok := claims["username"].(string); ok {
		s.Username = name
	} else if name, ok := claims["email"].(string); ok {
		s.Username = name
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// Valid reports whether the session token is present and unexpired
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Save persists the session token unprotected.
func (s *Session) Save(db *DB) error {
	if err := db.SetSetting(settingSessionToken, s.Token); err != nil {
		return err
	}
	return db.SetSetting(settingPINHash, "")
}

// SaveLocked persists the session token behind a bcrypt-hashed PIN. The PIN
// itself is never stored.
func (s *Session) SaveLocked(db *DB, pin string) error {
	if len(pin) < minPINLen {
		return fmt.Errorf("pin must be at least %d characters", minPINLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return fmt.Errorf("internal error")
	}
	if err := db.SetSetting(settingSessionToken, s.Token); err != nil {
		return err
	}
	return db.SetSetting(settingPINHash, string(hash))
}

// LoadSession restores a previously saved session. When the vault is
// PIN-locked the caller must supply the matching PIN.
func LoadSession(db *DB, pin string) (*Session, error) {
	token := db.GetSetting(settingSessionToken)
	if token == "" {
		return nil, nil
	}
	if hash := db.GetSetting(settingPINHash); hash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
			return nil, fmt.Errorf("invalid pin")
		}
	}
	return SessionFromToken(token)
}

// ClearSession forgets the persisted session
func ClearSession(db *DB) error {
	if err := db.SetSetting(settingSessionToken, ""); err != nil {
		return err
	}
	return db.SetSetting(settingPINHash, "")
}
