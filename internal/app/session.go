package app

import (
	"context"
	"fmt"
)

// PasswordPrompt asks the user for the account password.
type PasswordPrompt func() (string, error)

// EnsureSession makes sure the client holds a validated session. A configured
// session key is adopted first; otherwise the configured username logs in,
// prompting for the password when none is configured.
func (c *Container) EnsureSession(ctx context.Context, prompt PasswordPrompt) error {
	if c.Client.SessionKey() != "" {
		return nil
	}

	cfg := c.Config
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	if cfg.SessionKey != "" {
		if err := c.Client.SetSessionID(ctx, cfg.SessionKey); err != nil {
			return fmt.Errorf("failed to adopt session: %w", err)
		}
		c.Logger.Debug("Adopted existing sendspace session")
		return nil
	}

	password := cfg.Password
	if password == "" {
		if prompt == nil {
			return fmt.Errorf("password is required for user %s", cfg.Username)
		}
		var err error
		if password, err = prompt(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	if _, err := c.Client.Login(ctx, cfg.Username, password); err != nil {
		return err
	}
	c.Logger.Infof("Logged in to sendspace as %s", cfg.Username)

	return nil
}
