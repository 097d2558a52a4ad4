// Package repository implements the account store on PostgreSQL, with a Redis
// read-through cache in front of by-id lookups. The store is deliberately free
// of business rules; the one thing it does enforce is uniqueness of username
// and token, via UNIQUE constraints, so that concurrent check-then-insert
// races are closed at the write boundary rather than in the service.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fgreter/sopra-fs19-server/internal/apperr"
	"github.com/fgreter/sopra-fs19-server/internal/cache"
	"github.com/fgreter/sopra-fs19-server/internal/models"
)

const accountKeyPrefix = "account:"

const accountColumns = `id, username, display_name, password, token, status, birthday, registration_date, last_seen_date`

// accountRow is the persistence shape of an account. It carries db tags for
// sqlx scanning and json tags for the Redis cache, where the password must
// survive a round trip (models.Account hides it from JSON).
type accountRow struct {
	ID               int64      `db:"id" json:"id"`
	Username         string     `db:"username" json:"username"`
	DisplayName      string     `db:"display_name" json:"displayName"`
	Password         string     `db:"password" json:"password"`
	Token            string     `db:"token" json:"token"`
	Status           string     `db:"status" json:"status"`
	Birthday         *time.Time `db:"birthday" json:"birthday,omitempty"`
	RegistrationDate time.Time  `db:"registration_date" json:"registrationDate"`
	LastSeenDate     time.Time  `db:"last_seen_date" json:"lastSeenDate"`
}

func (r *accountRow) toModel() *models.Account {
	account := &models.Account{
		ID:               r.ID,
		Username:         r.Username,
		DisplayName:      r.DisplayName,
		Password:         r.Password,
		Token:            r.Token,
		Status:           models.Status(r.Status),
		RegistrationDate: models.DateOf(r.RegistrationDate),
		LastSeenDate:     r.LastSeenDate,
	}
	if r.Birthday != nil {
		birthday := models.DateOf(*r.Birthday)
		account.Birthday = &birthday
	}
	return account
}

func rowFromModel(a *models.Account) *accountRow {
	row := &accountRow{
		ID:               a.ID,
		Username:         a.Username,
		DisplayName:      a.DisplayName,
		Password:         a.Password,
		Token:            a.Token,
		Status:           string(a.Status),
		RegistrationDate: a.RegistrationDate.Time(),
		LastSeenDate:     a.LastSeenDate,
	}
	if a.Birthday != nil {
		birthday := a.Birthday.Time()
		row.Birthday = &birthday
	}
	return row
}

// AccountRepository is the PostgreSQL-backed account store.
type AccountRepository struct {
	db    *sqlx.DB
	cache *cache.Cache[accountRow]
}

func NewAccountRepository(db *sqlx.DB, redisClient *cache.Client, ttl time.Duration) *AccountRepository {
	return &AccountRepository{
		db:    db,
		cache: cache.New[accountRow](redisClient.Client, ttl),
	}
}

func cacheKey(id int64) string {
	return accountKeyPrefix + strconv.FormatInt(id, 10)
}

// FindAll returns every stored account ordered by id.
func (r *AccountRepository) FindAll(ctx context.Context) ([]models.Account, error) {
	var rows []accountRow
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := make([]models.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, *rows[i].toModel())
	}
	return accounts, nil
}

// FindByID returns the account with the given id, or nil if absent. Reads go
// through the Redis cache first; a Postgres hit warms the cache.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	if row, ok := r.cache.Get(ctx, cacheKey(id)); ok {
		return row.toModel(), nil
	}

	var row accountRow
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	r.cache.Set(ctx, cacheKey(id), &row)
	return row.toModel(), nil
}

// FindByUsername returns the account with the given username, or nil if
// absent. Always hits Postgres: username lookups gate uniqueness and login.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var row accountRow
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	err := r.db.GetContext(ctx, &row, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}
	return row.toModel(), nil
}

// FindByToken returns the account holding the given session token, or nil if
// no account does. Always hits Postgres: token lookups authorize requests.
func (r *AccountRepository) FindByToken(ctx context.Context, token string) (*models.Account, error) {
	var row accountRow
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE token = $1`
	err := r.db.GetContext(ctx, &row, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by token: %w", err)
	}
	return row.toModel(), nil
}

// Save inserts account when its ID is zero (assigning the id the store
// generated) and updates it otherwise. Unique-constraint violations surface
// as Conflict.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	row := rowFromModel(account)

	if account.ID == 0 {
		query := `
			INSERT INTO accounts (username, display_name, password, token, status, birthday, registration_date, last_seen_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err := r.db.GetContext(ctx, &row.ID, query,
			row.Username, row.DisplayName, row.Password, row.Token,
			row.Status, row.Birthday, row.RegistrationDate, row.LastSeenDate,
		)
		if err != nil {
			if conflict := uniqueViolation(err); conflict != nil {
				return conflict
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		account.ID = row.ID
		r.cache.Set(ctx, cacheKey(row.ID), row)
		return nil
	}

	query := `
		UPDATE accounts
		SET username = $2, display_name = $3, password = $4, token = $5,
			status = $6, birthday = $7, registration_date = $8, last_seen_date = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		row.ID, row.Username, row.DisplayName, row.Password, row.Token,
		row.Status, row.Birthday, row.RegistrationDate, row.LastSeenDate,
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("Account with id %d not found", account.ID)
	}

	r.cache.Set(ctx, cacheKey(row.ID), row)
	return nil
}

// Delete permanently removes account. No soft delete, no tombstone.
func (r *AccountRepository) Delete(ctx context.Context, account *models.Account) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, account.ID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("Account with id %d not found", account.ID)
	}

	r.cache.Delete(ctx, cacheKey(account.ID))
	return nil
}

func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == "accounts_token_key" {
			return apperr.Conflict("Session token already in use")
		}
		return apperr.Conflict("Username already exists")
	}
	return nil
}
