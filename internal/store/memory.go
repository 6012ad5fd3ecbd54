package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/voyagen/xtreamgate/internal/models"
)

// Memory implements Store in process. It backs memory:// DSNs and tests.
type Memory struct {
	mu       sync.RWMutex
	accounts []models.Account
	mappings []models.ChannelMapping
	settings *models.FilterSettings
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) accountIndex(id string) int {
	return slices.IndexFunc(m.accounts, func(a models.Account) bool { return models.SameID(a.ID, id) })
}

func (m *Memory) mappingIndex(id string) int {
	return slices.IndexFunc(m.mappings, func(c models.ChannelMapping) bool { return c.ID == id })
}

func (m *Memory) ListAccounts(context.Context) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Account, len(m.accounts))
	for i, a := range m.accounts {
		out[i] = cloneAccount(a)
	}
	return out, nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.accountIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	a := cloneAccount(m.accounts[i])
	return &a, nil
}

func (m *Memory) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accountIndex(a.ID) >= 0 {
		return ErrConflict
	}
	a.FilterSettings.Normalize()
	m.accounts = append(m.accounts, cloneAccount(*a))
	return nil
}

func (m *Memory) UpdateAccount(_ context.Context, a *models.Account) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.accountIndex(a.ID)
	if i < 0 {
		return false, nil
	}
	a.ID = m.accounts[i].ID
	a.FilterSettings.Normalize()
	m.accounts[i] = cloneAccount(*a)
	return true, nil
}

func (m *Memory) DeleteAccount(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.accountIndex(id)
	if i < 0 {
		return false, nil
	}
	m.accounts = slices.Delete(m.accounts, i, i+1)
	return true, nil
}

func (m *Memory) ListMappings(_ context.Context, accountID string) ([]models.ChannelMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ChannelMapping
	for _, c := range m.mappings {
		if models.SameID(c.AccountID, accountID) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.ChannelMapping) int { return cmp.Compare(a.SortOrder, b.SortOrder) })
	return out, nil
}

func (m *Memory) GetMapping(_ context.Context, id string) (*models.ChannelMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.mappingIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	c := m.mappings[i]
	return &c, nil
}

func (m *Memory) CreateMapping(_ context.Context, c *models.ChannelMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if m.mappingIndex(c.ID) >= 0 {
		return ErrConflict
	}
	m.mappings = append(m.mappings, *c)
	return nil
}

func (m *Memory) UpdateMapping(_ context.Context, c *models.ChannelMapping) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.mappingIndex(c.ID)
	if i < 0 {
		return false, nil
	}
	m.mappings[i] = *c
	return true, nil
}

func (m *Memory) DeleteMapping(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.mappingIndex(id)
	if i < 0 {
		return false, nil
	}
	m.mappings = slices.Delete(m.mappings, i, i+1)
	return true, nil
}

func (m *Memory) DeleteAccountMappings(_ context.Context, accountID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.mappings)
	m.mappings = slices.DeleteFunc(m.mappings, func(c models.ChannelMapping) bool {
		return models.SameID(c.AccountID, accountID)
	})
	return before - len(m.mappings), nil
}

func (m *Memory) GetFilterSettings(context.Context) (*models.FilterSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return defaultSettings(), nil
	}
	f := cloneSettings(*m.settings)
	return &f, nil
}

func (m *Memory) SaveFilterSettings(_ context.Context, f *models.FilterSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = SettingsID
	f.Normalize()
	c := cloneSettings(*f)
	m.settings = &c
	return nil
}

func cloneAccount(a models.Account) models.Account {
	a.FilterSettings = cloneSettings(a.FilterSettings)
	return a
}

func cloneSettings(f models.FilterSettings) models.FilterSettings {
	for _, ct := range models.ContentTypes {
		allowed, notAllowed := f.Lists(ct)
		f.SetLists(ct, slices.Clone(allowed), slices.Clone(notAllowed))
	}
	return f
}
