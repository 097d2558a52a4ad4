// Package service holds every business rule around account creation,
// authentication, and mutation. The store underneath is a dumb collaborator:
// it persists and looks up accounts but decides nothing (apart from enforcing
// username/token uniqueness at write time).
package service

import (
	"context"
	"time"

	"github.com/fgreter/sopra-fs19-server/internal/apperr"
	"github.com/fgreter/sopra-fs19-server/internal/models"
)

// AccountStore is the persistence collaborator. Lookups return (nil, nil)
// when no account matches.
type AccountStore interface {
	FindAll(ctx context.Context) ([]models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByToken(ctx context.Context, token string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, account *models.Account) error
}

// TokenMinter issues fresh, unique session tokens.
type TokenMinter interface {
	Mint(username string) (string, error)
}

type RegisterParams struct {
	Username    string
	DisplayName string
	Password    string
	Birthday    *models.Date
}

type Credentials struct {
	Username string
	Password string
}

// AccountPatch is a partial update. Nil fields are left untouched. Token is
// the credential embedded in the request body; it must equal the target
// account's stored token.
type AccountPatch struct {
	Token    string
	Username *string
	Birthday *models.Date
}

// BootstrapAccount describes the administrative account seeded at startup so
// the service is reachable before any real account exists.
type BootstrapAccount struct {
	Username    string
	DisplayName string
	Password    string
	Token       string
}

type AccountService struct {
	store  AccountStore
	tokens TokenMinter
}

func NewAccountService(store AccountStore, tokens TokenMinter) *AccountService {
	return &AccountService{store: store, tokens: tokens}
}

// ListAccounts returns every account in the store. Any valid session token
// may list.
func (s *AccountService) ListAccounts(ctx context.Context, token string) ([]models.Account, error) {
	if err := s.verifyToken(ctx, token); err != nil {
		return nil, err
	}
	return s.store.FindAll(ctx)
}

// Register validates the candidate and creates the account. The checks run in
// a fixed order and the first failure wins.
func (s *AccountService) Register(ctx context.Context, params RegisterParams) (*models.Account, error) {
	if len(params.Password) < 4 {
		return nil, apperr.Conflict("Password must be at least four characters long")
	}
	if params.Username == "" {
		return nil, apperr.Conflict("Username must not be empty")
	}
	if params.DisplayName == "" {
		return nil, apperr.Conflict("Display name must not be empty")
	}
	existing, err := s.store.FindByUsername(ctx, params.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("Username already exists")
	}

	sessionToken, err := s.tokens.Mint(params.Username)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:         params.Username,
		DisplayName:      params.DisplayName,
		Password:         params.Password,
		Token:            sessionToken,
		Status:           models.StatusOnline,
		Birthday:         params.Birthday,
		RegistrationDate: models.Today(),
		LastSeenDate:     time.Now().UTC(),
	}
	if err := s.store.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount returns the account with the given id. Read access is broader
// than write access: any valid session token may look up any account.
func (s *AccountService) GetAccount(ctx context.Context, id int64, token string) (*models.Account, error) {
	if err := s.verifyToken(ctx, token); err != nil {
		return nil, err
	}
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("Account with id %d not found", id)
	}
	return account, nil
}

// Authenticate performs a credential login. On success the account goes
// ONLINE, its last-seen timestamp is refreshed, and its EXISTING token is
// returned — login does not rotate the session credential.
func (s *AccountService) Authenticate(ctx context.Context, creds Credentials) (*models.Account, error) {
	account, err := s.store.FindByUsername(ctx, creds.Username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.Conflict("User not found")
	}
	if account.Password != creds.Password {
		return nil, apperr.Conflict("Incorrect password")
	}

	account.Status = models.StatusOnline
	account.LastSeenDate = time.Now().UTC()
	if err := s.store.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount applies a partial update to the account with the given id.
// Authorization is keyed on the token embedded in the patch matching the
// stored token. Only username and birthday are mutable.
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, patch AccountPatch) (*models.Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("Account with id %d not found", id)
	}
	if account.Token != patch.Token {
		return nil, apperr.Unauthorized("Invalid token for account with id %d", id)
	}

	if patch.Username != nil {
		account.Username = *patch.Username
	}
	if patch.Birthday != nil {
		account.Birthday = patch.Birthday
	}
	if err := s.store.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount permanently removes the account with the given id, provided
// the supplied token equals that account's stored token.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64, token string) error {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return apperr.NotFound("Account with id %d not found", id)
	}
	if account.Token != token {
		return apperr.Unauthorized("Invalid token for account with id %d", id)
	}
	return s.store.Delete(ctx, account)
}

// EnsureBootstrapAccount seeds the administrative account before the service
// accepts traffic. If the account already exists with a different token, the
// stored token is rewritten to the configured one so the bootstrap credential
// always verifies.
func (s *AccountService) EnsureBootstrapAccount(ctx context.Context, b BootstrapAccount) error {
	existing, err := s.store.FindByUsername(ctx, b.Username)
	if err != nil {
		return err
	}
	if existing == nil {
		account := &models.Account{
			Username:         b.Username,
			DisplayName:      b.DisplayName,
			Password:         b.Password,
			Token:            b.Token,
			Status:           models.StatusOnline,
			RegistrationDate: models.Today(),
			LastSeenDate:     time.Now().UTC(),
		}
		return s.store.Save(ctx, account)
	}
	if existing.Token != b.Token {
		existing.Token = b.Token
		return s.store.Save(ctx, existing)
	}
	return nil
}

// verifyToken authorizes a request-level token: it passes when some stored
// account holds exactly this token.
func (s *AccountService) verifyToken(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Unauthorized("Invalid token")
	}
	account, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if account == nil {
		return apperr.Unauthorized("Invalid token")
	}
	return nil
}
