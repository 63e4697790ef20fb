package sendspace

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenedPassword computes the login proof md5(token + md5(password)) as
// lowercase hex. The raw password never leaves the client.
func TokenedPassword(token, password string) string {
	passwordMD5 := md5.Sum([]byte(password))
	tokened := md5.Sum([]byte(token + hex.EncodeToString(passwordMD5[:])))
	return hex.EncodeToString(tokened[:])
}

// Login performs the auth.createtoken / auth.login handshake and stores the
// resulting session key.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	env, err := c.call(ctx, "auth.createtoken", Args{
		{"api_key", c.apiKey},
		{"api_version", APIVersion},
		{"response_format", "xml"},
		{"app_version", AppVersion},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	token, err := env.Value("token")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	token = strings.TrimSpace(token)

	env, err = c.call(ctx, "auth.login", Args{
		{"token", token},
		{"user_name", username},
		{"tokened_password", TokenedPassword(token, password)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	sessionKey, err := env.Value("session_key")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return "", fmt.Errorf("%w: empty session key", ErrAuthentication)
	}

	c.setSessionKey(sessionKey)
	c.logger.WithField("user", username).Debug("logged in to sendspace")

	return sessionKey, nil
}

// CheckSession validates the active session with auth.checksession.
func (c *Client) CheckSession(ctx context.Context) error {
	sessionKey := c.SessionKey()
	if sessionKey == "" {
		return ErrNotLoggedIn
	}

	env, err := c.call(ctx, "auth.checksession", Args{
		{"session_key", sessionKey},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	// Older responses carry no <session> entry; a present one must read "ok".
	if state, err := env.Value("session"); err == nil {
		if state = strings.TrimSpace(state); state != statusOK {
			return fmt.Errorf("%w: session is %q", ErrSessionInvalid, state)
		}
	}

	return nil
}

// SetSessionID adopts an externally issued session key and validates it.
// The key is dropped again if validation fails.
func (c *Client) SetSessionID(ctx context.Context, sessionKey string) error {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return fmt.Errorf("%w: empty session key", ErrSessionInvalid)
	}

	c.setSessionKey(sessionKey)
	if err := c.CheckSession(ctx); err != nil {
		c.clearSessionKey(sessionKey)
		return err
	}

	return nil
}

// Logout ends the active session. The session is forgotten locally even when
// the remote call fails; that failure is reported wrapped in ErrLogoutFailed.
func (c *Client) Logout(ctx context.Context) error {
	sessionKey := c.SessionKey()
	if sessionKey == "" {
		return ErrNotLoggedIn
	}

	_, err := c.call(ctx, "auth.logout", Args{
		{"session_key", sessionKey},
	})
	c.clearSessionKey(sessionKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	return nil
}
