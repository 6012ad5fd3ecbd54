package service

import (
	"context"

	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

// Credentials are caller-supplied upstream credentials.
type Credentials struct {
	Username string
	Password string
}

// resolveCredentials uses the account's fixed pair when both halves are set
// and the caller's pair otherwise.
func resolveCredentials(acc *models.Account, c Credentials) (Credentials, error) {
	if acc.HasFixedCredentials() {
		c = Credentials{Username: acc.Username, Password: acc.Password}
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, validationf("username and password are required for account %q", acc.ID)
	}
	return c, nil
}

// target loads the account and builds the upstream address for this call.
func (e *Engine) target(ctx context.Context, accountID string, c Credentials) (*models.Account, xtream.Target, error) {
	acc, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, xtream.Target{}, err
	}
	c, err = resolveCredentials(acc, c)
	if err != nil {
		return nil, xtream.Target{}, err
	}
	return acc, xtream.Target{Host: acc.BaseURL(), Username: c.Username, Password: c.Password}, nil
}
