package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/voyagen/xtreamgate/internal/config"
	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/store"
)

func normalizeID(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

func (e *Engine) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (e *Engine) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return e.store.GetAccount(ctx, id)
}

// CreateAccount stores a new account. Duplicate ids yield store.ErrConflict.
func (e *Engine) CreateAccount(ctx context.Context, a *models.Account) error {
	a.ID = strings.TrimSpace(a.ID)
	a.Host = strings.TrimRight(strings.TrimSpace(a.Host), "/")
	a.FilterSettings.ID = 0
	a.FilterSettings.Normalize()
	return e.store.CreateAccount(ctx, a)
}

// UpdateAccount replaces the account at id. The body id must match.
func (e *Engine) UpdateAccount(ctx context.Context, id string, a *models.Account) error {
	if !models.SameID(id, a.ID) {
		return validationf("id mismatch: path %q, body %q", id, a.ID)
	}
	a.Host = strings.TrimRight(strings.TrimSpace(a.Host), "/")
	a.FilterSettings.ID = 0
	return e.saveAccount(ctx, a)
}

// DeleteAccount removes the account, its channel mappings and its bulk files.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	ok, err := e.store.DeleteAccount(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	if _, err := e.store.DeleteAccountMappings(ctx, id); err != nil {
		log.Warn().Err(err).Str("account", id).Msg("delete account mappings")
	}
	if e.bulk != nil {
		if err := e.bulk.Remove(id); err != nil {
			log.Warn().Err(err).Str("account", id).Msg("remove bulk files")
		}
	}
	return nil
}

// SeedAccounts creates configured accounts that do not exist yet.
func (e *Engine) SeedAccounts(ctx context.Context, seeds []config.SeedAccount) error {
	for _, s := range seeds {
		a := &models.Account{ID: s.ID, Host: s.Host}
		err := e.CreateAccount(ctx, a)
		switch {
		case err == nil:
			log.Info().Str("account", a.ID).Str("host", a.Host).Msg("seeded account")
		case errors.Is(err, store.ErrConflict):
		default:
			return err
		}
	}
	return nil
}

// ListMappings returns an account's channel mappings ordered by sort order.
func (e *Engine) ListMappings(ctx context.Context, accountID string) ([]models.ChannelMapping, error) {
	if _, err := e.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	mappings, err := e.store.ListMappings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []models.ChannelMapping{}
	}
	return mappings, nil
}

func (e *Engine) GetMapping(ctx context.Context, id string) (*models.ChannelMapping, error) {
	return e.store.GetMapping(ctx, id)
}

// CreateMapping attaches m to the account, using the account's stored id.
func (e *Engine) CreateMapping(ctx context.Context, accountID string, m *models.ChannelMapping) error {
	acc, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if m.OriginalStreamID == "" {
		return validationf("originalStreamId is required")
	}
	m.AccountID = acc.ID
	m.ID = ""
	return e.store.CreateMapping(ctx, m)
}

// UpdateMapping replaces mapping id. The owning account cannot change.
func (e *Engine) UpdateMapping(ctx context.Context, id string, m *models.ChannelMapping) error {
	if m.ID != "" && m.ID != id {
		return validationf("id mismatch: path %q, body %q", id, m.ID)
	}
	existing, err := e.store.GetMapping(ctx, id)
	if err != nil {
		return err
	}
	m.ID = existing.ID
	m.AccountID = existing.AccountID
	if m.OriginalStreamID == "" {
		m.OriginalStreamID = existing.OriginalStreamID
	}
	ok, err := e.store.UpdateMapping(ctx, m)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (e *Engine) DeleteMapping(ctx context.Context, id string) error {
	ok, err := e.store.DeleteMapping(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

// DeleteAccountMappings removes every mapping for the account.
func (e *Engine) DeleteAccountMappings(ctx context.Context, accountID string) (int, error) {
	acc, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return e.store.DeleteAccountMappings(ctx, acc.ID)
}

// FilterSettings returns the legacy global settings record.
func (e *Engine) FilterSettings(ctx context.Context) (*models.FilterSettings, error) {
	return e.store.GetFilterSettings(ctx)
}

func (e *Engine) SaveFilterSettings(ctx context.Context, f *models.FilterSettings) error {
	return e.store.SaveFilterSettings(ctx, f)
}
