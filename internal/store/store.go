package store

import (
	"context"
	"errors"
	"strings"

	"github.com/voyagen/xtreamgate/internal/models"
)

var (
	// ErrNotFound is returned when an account or mapping does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a record whose id is taken.
	ErrConflict = errors.New("already exists")
)

// AccountStore persists accounts with their embedded filter settings.
// Ids compare case-insensitively.
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	// GetAccount returns ErrNotFound for unknown ids.
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	// CreateAccount returns ErrConflict when the id is taken.
	CreateAccount(ctx context.Context, a *models.Account) error
	// UpdateAccount replaces the record with a.ID and reports whether it existed.
	UpdateAccount(ctx context.Context, a *models.Account) (bool, error)
	DeleteAccount(ctx context.Context, id string) (bool, error)
}

// MappingStore persists channel mappings.
type MappingStore interface {
	// ListMappings returns an account's mappings ordered by SortOrder, then
	// creation order.
	ListMappings(ctx context.Context, accountID string) ([]models.ChannelMapping, error)
	GetMapping(ctx context.Context, id string) (*models.ChannelMapping, error)
	// CreateMapping assigns m.ID when empty.
	CreateMapping(ctx context.Context, m *models.ChannelMapping) error
	UpdateMapping(ctx context.Context, m *models.ChannelMapping) (bool, error)
	DeleteMapping(ctx context.Context, id string) (bool, error)
	// DeleteAccountMappings removes every mapping of an account and returns the count.
	DeleteAccountMappings(ctx context.Context, accountID string) (int, error)
}

// SettingsStore persists the legacy global filter settings singleton.
type SettingsStore interface {
	// GetFilterSettings returns the singleton, or defaults when never saved.
	GetFilterSettings(ctx context.Context) (*models.FilterSettings, error)
	SaveFilterSettings(ctx context.Context, f *models.FilterSettings) error
}

// Store is the full persistence surface used by the service layer.
type Store interface {
	AccountStore
	MappingStore
	SettingsStore
}

// SettingsID is the fixed id of the global filter settings record.
const SettingsID = 1

func normID(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

func defaultSettings() *models.FilterSettings {
	f := &models.FilterSettings{ID: SettingsID}
	f.Normalize()
	return f
}
