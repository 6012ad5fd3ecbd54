package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/xtreamgate/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const accountColumns = `id, host, username, password, filter_settings`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	var settings []byte
	if err := row.Scan(&a.ID, &a.Host, &a.Username, &a.Password, &settings); err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &a.FilterSettings); err != nil {
			return nil, fmt.Errorf("decode filter_settings for %s: %w", a.ID, err)
		}
	}
	a.FilterSettings.Normalize()
	return &a, nil
}

func (p *Postgres) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()
	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts scan: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	a, err := scanAccount(p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(id) = $1`, normID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

func (p *Postgres) CreateAccount(ctx context.Context, a *models.Account) error {
	a.FilterSettings.Normalize()
	settings, err := json.Marshal(a.FilterSettings)
	if err != nil {
		return fmt.Errorf("CreateAccount encode: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO accounts (id, host, username, password, filter_settings) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Host, a.Username, a.Password, settings)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateAccount(ctx context.Context, a *models.Account) (bool, error) {
	a.FilterSettings.Normalize()
	settings, err := json.Marshal(a.FilterSettings)
	if err != nil {
		return false, fmt.Errorf("UpdateAccount encode: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE accounts SET host = $2, username = $3, password = $4, filter_settings = $5, updated_at = now()
		 WHERE lower(id) = $1`,
		normID(a.ID), a.Host, a.Username, a.Password, settings)
	if err != nil {
		return false, fmt.Errorf("UpdateAccount: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAccount cascades to the account's channel mappings.
func (p *Postgres) DeleteAccount(ctx context.Context, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM accounts WHERE lower(id) = $1`, normID(id))
	if err != nil {
		return false, fmt.Errorf("DeleteAccount: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const mappingColumns = `id, account_id, original_stream_id, original_name, original_group_name,
	custom_name, custom_group_name, channel_number, is_visible, sort_order`

func scanMapping(row pgx.Row) (*models.ChannelMapping, error) {
	var m models.ChannelMapping
	var id uuid.UUID
	err := row.Scan(&id, &m.AccountID, &m.OriginalStreamID, &m.OriginalName, &m.OriginalGroupName,
		&m.CustomName, &m.CustomGroupName, &m.ChannelNumber, &m.IsVisible, &m.SortOrder)
	if err != nil {
		return nil, err
	}
	m.ID = id.String()
	return &m, nil
}

func (p *Postgres) ListMappings(ctx context.Context, accountID string) ([]models.ChannelMapping, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+mappingColumns+` FROM channel_mappings WHERE lower(account_id) = $1
		 ORDER BY sort_order, created_at, id`, normID(accountID))
	if err != nil {
		return nil, fmt.Errorf("ListMappings: %w", err)
	}
	defer rows.Close()
	var out []models.ChannelMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("ListMappings scan: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (p *Postgres) GetMapping(ctx context.Context, id string) (*models.ChannelMapping, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	m, err := scanMapping(p.pool.QueryRow(ctx, `SELECT `+mappingColumns+` FROM channel_mappings WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetMapping: %w", err)
	}
	return m, nil
}

func (p *Postgres) CreateMapping(ctx context.Context, m *models.ChannelMapping) error {
	uid := uuid.New()
	if m.ID != "" {
		parsed, err := uuid.Parse(m.ID)
		if err != nil {
			return fmt.Errorf("CreateMapping: invalid id %q: %w", m.ID, err)
		}
		uid = parsed
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO channel_mappings (id, account_id, original_stream_id, original_name, original_group_name,
		   custom_name, custom_group_name, channel_number, is_visible, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uid, m.AccountID, m.OriginalStreamID, m.OriginalName, m.OriginalGroupName,
		m.CustomName, m.CustomGroupName, m.ChannelNumber, m.IsVisible, m.SortOrder)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("CreateMapping: %w", err)
	}
	m.ID = uid.String()
	return nil
}

func (p *Postgres) UpdateMapping(ctx context.Context, m *models.ChannelMapping) (bool, error) {
	uid, err := uuid.Parse(m.ID)
	if err != nil {
		return false, nil
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE channel_mappings SET original_stream_id = $2, original_name = $3, original_group_name = $4,
		   custom_name = $5, custom_group_name = $6, channel_number = $7, is_visible = $8, sort_order = $9
		 WHERE id = $1`,
		uid, m.OriginalStreamID, m.OriginalName, m.OriginalGroupName,
		m.CustomName, m.CustomGroupName, m.ChannelNumber, m.IsVisible, m.SortOrder)
	if err != nil {
		return false, fmt.Errorf("UpdateMapping: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) DeleteMapping(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM channel_mappings WHERE id = $1`, uid)
	if err != nil {
		return false, fmt.Errorf("DeleteMapping: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) DeleteAccountMappings(ctx context.Context, accountID string) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM channel_mappings WHERE lower(account_id) = $1`, normID(accountID))
	if err != nil {
		return 0, fmt.Errorf("DeleteAccountMappings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) GetFilterSettings(ctx context.Context) (*models.FilterSettings, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT settings FROM filter_settings WHERE id = $1`, SettingsID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetFilterSettings: %w", err)
	}
	f := defaultSettings()
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("GetFilterSettings decode: %w", err)
	}
	f.ID = SettingsID
	f.Normalize()
	return f, nil
}

func (p *Postgres) SaveFilterSettings(ctx context.Context, f *models.FilterSettings) error {
	f.ID = SettingsID
	f.Normalize()
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("SaveFilterSettings encode: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO filter_settings (id, settings) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET settings = EXCLUDED.settings`,
		SettingsID, raw)
	if err != nil {
		return fmt.Errorf("SaveFilterSettings: %w", err)
	}
	return nil
}
