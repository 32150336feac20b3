package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voxaiomni/admin-core/internal/user/entity"
	"github.com/voxaiomni/admin-core/pkg/utilities"
)

// Store is the part of the Users table the initializer needs.
type Store interface {
	DropTable(ctx context.Context) error
	EnsureTable(ctx context.Context) error
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	Create(ctx context.Context, u *entity.User) (int64, error)
}

const samplePassword = "password123"

// SampleAccounts returns the development accounts seeded on every run.
func SampleAccounts() []entity.SampleAccount {
	return []entity.SampleAccount{
		{Identifier: "testUser", Password: samplePassword, Role: entity.RoleSuperAdmin, FullName: "Test Super Admin", Email: "superadmin@example.com"},
		{Identifier: "clientTestUser", Password: samplePassword, Role: entity.RoleClientAdmin, FullName: "Test Client Admin", Email: "clientadmin@example.com"},
		{Identifier: "dineshUser", Password: samplePassword, Role: entity.RoleClientAdmin, FullName: "Dinesh", Email: "dinesh@example.com"},
	}
}

// Initializer rebuilds the Users table and seeds the sample accounts.
//
// InitializeDatabase is destructive: it drops the table first, so it is meant
// for development setups only and must not run concurrently with itself.
type Initializer struct {
	store    Store
	hasher   PasswordHasher
	logger   *zap.SugaredLogger
	accounts []entity.SampleAccount

	// RevealCredentials logs the plaintext sample passwords after seeding.
	RevealCredentials bool
}

func NewInitializer(store Store, hasher PasswordHasher, logger *zap.SugaredLogger) *Initializer {
	if hasher == nil {
		hasher = BcryptHasher{Cost: SeedCost}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Initializer{store: store, hasher: hasher, logger: logger, accounts: SampleAccounts()}
}

// WithAccounts replaces the seeded account list.
func (i *Initializer) WithAccounts(accounts []entity.SampleAccount) *Initializer {
	i.accounts = accounts
	return i
}

// InitializeDatabase drops and recreates the Users table, then seeds the
// sample accounts. Any storage error aborts the run.
func (i *Initializer) InitializeDatabase(ctx context.Context) ([]entity.SeededAccount, error) {
	log := i.logger.With("run_id", utilities.NewRunID())
	log.Infow("starting database initialization")

	log.Infow("dropping Users table if it exists for a clean setup")
	if err := i.store.DropTable(ctx); err != nil {
		return nil, i.fail(log, "drop table", err)
	}
	log.Infow("Users table dropped (or did not exist)")

	if err := i.store.EnsureTable(ctx); err != nil {
		return nil, i.fail(log, "create table", err)
	}
	log.Infow("Users table checked/created")

	log.Infow("adding sample users", "count", len(i.accounts))
	seeded := make([]entity.SeededAccount, 0, len(i.accounts))
	for _, acct := range i.accounts {
		s, err := i.addSampleUser(ctx, log, acct)
		if err != nil {
			return nil, err
		}
		seeded = append(seeded, *s)
	}

	if i.RevealCredentials {
		for _, s := range seeded {
			log.Infow("sample user credentials", "role", s.Role, "identifier", s.Identifier, "password", s.Password)
		}
	}
	log.Infow("database initialization completed", "users", len(seeded))
	return seeded, nil
}

// AddSampleUser inserts acct unless its identifier already exists. A second
// call for the same identifier is a no-op reported with Created=false.
func (i *Initializer) AddSampleUser(ctx context.Context, acct entity.SampleAccount) (*entity.SeededAccount, error) {
	return i.addSampleUser(ctx, i.logger, acct)
}

func (i *Initializer) addSampleUser(ctx context.Context, log *zap.SugaredLogger, acct entity.SampleAccount) (*entity.SeededAccount, error) {
	out := &entity.SeededAccount{Identifier: acct.Identifier, Password: acct.Password, Role: acct.Role}

	exists, err := i.store.ExistsByIdentifier(ctx, acct.Identifier)
	if err != nil {
		return nil, i.fail(log, "lookup "+acct.Identifier, err)
	}
	if exists {
		log.Infow("user already exists in Users table", "identifier", acct.Identifier)
		return out, nil
	}

	hash, err := i.hasher.Hash(acct.Password)
	if err != nil {
		log.Errorw("hash password failed", "identifier", acct.Identifier, "err", err)
		return nil, fmt.Errorf("hash password for %q: %w", acct.Identifier, err)
	}

	fullName := acct.FullName
	if fullName == "" {
		fullName = acct.Identifier
	}
	email := acct.Email
	if email == "" {
		email = acct.Identifier + "@example.com"
	}
	u := &entity.User{
		UserIdentifier: acct.Identifier,
		PasswordHash:   hash,
		Role:           acct.Role,
		FullName:       &fullName,
		Email:          &email,
	}
	if _, err := i.store.Create(ctx, u); err != nil {
		return nil, i.fail(log, "insert "+acct.Identifier, err)
	}
	log.Infow("user added to Users table", "identifier", acct.Identifier, "id", u.ID, "role", u.Role)
	out.Created = true
	return out, nil
}

func (i *Initializer) fail(log *zap.SugaredLogger, step string, err error) error {
	log.Errorw("database initialization failed", "step", step, "err", err)
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
