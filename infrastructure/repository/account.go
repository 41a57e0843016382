package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

const adAccountsTable = "ad_accounts"

const adAccountColumns = "id, name, status, currency, timezone, business_id, business_name, " +
	"amount_spent, balance, spend_cap, capabilities, created_time, last_sync_at"

type AccountRepository interface {
	GetByID(ctx context.Context, accountID string) (*domain.AdAccount, error)
	List(ctx context.Context) ([]*domain.AdAccount, error)
	SaveOrUpdate(ctx context.Context, account *domain.AdAccount) error
}

type accountRepository struct {
	conn *postgres.Connection
}

func NewAccountRepository(conn *postgres.Connection) AccountRepository {
	return &accountRepository{
		conn: conn,
	}
}

func (r *accountRepository) GetByID(ctx context.Context, accountID string) (*domain.AdAccount, error) {
	query, args, err := squirrel.
		Select(adAccountColumns).
		From(adAccountsTable).
		Where(squirrel.Eq{"id": accountID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, storageErr("account.GetByID", err)
	}

	row := r.conn.QueryRowContext(ctx, query, args...)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, storageErr("account.GetByID", err)
	}

	return account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*domain.AdAccount, error) {
	query, args, err := squirrel.
		Select(adAccountColumns).
		From(adAccountsTable).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, storageErr("account.List", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("account.List", err)
	}
	defer rows.Close()

	accounts := make([]*domain.AdAccount, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("account.List", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("account.List", err)
	}

	return accounts, nil
}

// SaveOrUpdate upserts one account by its upstream ID. Re-ingesting the
// same record is idempotent; mutable fields are fully overwritten.
func (r *accountRepository) SaveOrUpdate(ctx context.Context, account *domain.AdAccount) error {
	capabilitiesJSON, err := json.Marshal(account.Capabilities)
	if err != nil {
		return storageErr("account.SaveOrUpdate", errors.Wrap(err, "serializing capabilities"))
	}

	query, args, err := squirrel.StatementBuilder.
		Insert(adAccountsTable).
		Columns(
			"id", "name", "status", "currency", "timezone",
			"business_id", "business_name",
			"amount_spent", "balance", "spend_cap",
			"capabilities", "created_time", "last_sync_at",
		).
		Values(
			account.ID,
			account.Name,
			account.Status,
			account.Currency,
			account.Timezone,
			account.BusinessID,
			account.BusinessName,
			account.AmountSpent,
			account.Balance,
			account.SpendCap,
			capabilitiesJSON,
			account.CreatedTime,
			account.LastSyncAt,
		).
		Suffix(`
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				currency = EXCLUDED.currency,
				timezone = EXCLUDED.timezone,
				business_id = EXCLUDED.business_id,
				business_name = EXCLUDED.business_name,
				amount_spent = EXCLUDED.amount_spent,
				balance = EXCLUDED.balance,
				spend_cap = EXCLUDED.spend_cap,
				capabilities = EXCLUDED.capabilities,
				created_time = EXCLUDED.created_time,
				last_sync_at = EXCLUDED.last_sync_at
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return storageErr("account.SaveOrUpdate", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return storageErr("account.SaveOrUpdate", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.AdAccount, error) {
	account := &domain.AdAccount{}
	var capabilitiesJSON []byte
	var spendCap sql.NullFloat64
	var createdTime, lastSyncAt sql.NullTime

	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Status,
		&account.Currency,
		&account.Timezone,
		&account.BusinessID,
		&account.BusinessName,
		&account.AmountSpent,
		&account.Balance,
		&spendCap,
		&capabilitiesJSON,
		&createdTime,
		&lastSyncAt,
	); err != nil {
		return nil, err
	}

	if spendCap.Valid {
		account.SpendCap = &spendCap.Float64
	}
	if createdTime.Valid {
		account.CreatedTime = createdTime.Time
	}
	if lastSyncAt.Valid {
		account.LastSyncAt = lastSyncAt.Time
	}

	if len(capabilitiesJSON) > 0 {
		if err := json.Unmarshal(capabilitiesJSON, &account.Capabilities); err != nil {
			return nil, errors.Wrap(err, "deserializing capabilities")
		}
	}

	return account, nil
}
