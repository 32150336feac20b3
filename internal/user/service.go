package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/voxaiomni/admin-core/internal/user/entity"
	userrepo "github.com/voxaiomni/admin-core/internal/user/repo"
)

// SeedCost is the bcrypt cost used for stored passwords.
const SeedCost = 10

// PasswordHasher hashes and verifies stored passwords.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher uses SeedCost when Cost is zero.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = SeedCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Mode selects how the gate treats identifiers other than the static admin pair.
type Mode string

const (
	// ModeStatic accepts only the static admin pair. Stored users are never
	// consulted, so seeded accounts cannot sign in.
	ModeStatic Mode = "static"
	// ModeCredentialStore additionally verifies identifiers against the
	// hashed passwords and roles in the Users table.
	ModeCredentialStore Mode = "store"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStatic:
		return ModeStatic, nil
	case ModeCredentialStore:
		return ModeCredentialStore, nil
	}
	return "", fmt.Errorf("unknown auth mode %q", s)
}

// The static pair is compared as plaintext and bypasses the Users table.
const (
	bypassIdentifier = "admin"
	bypassPassword   = "admin123"
)

// CredentialStore looks up stored credentials by identifier.
type CredentialStore interface {
	GetCredentials(ctx context.Context, identifier string) (*entity.Credentials, error)
}

// Gate decides whether a sign-in attempt is accepted and with which role.
// It holds no per-call state and is safe for concurrent use.
type Gate struct {
	mode   Mode
	store  CredentialStore
	hasher PasswordHasher
	logger *zap.SugaredLogger

	decoyOnce sync.Once
	decoy     string
}

func NewGate(mode Mode, store CredentialStore, hasher PasswordHasher, logger *zap.SugaredLogger) *Gate {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: SeedCost}
	}
	if mode == ModeCredentialStore && store == nil {
		logger.Warnw("credential store mode requested without a store, using static mode")
		mode = ModeStatic
	}
	if mode == "" {
		mode = ModeStatic
	}
	return &Gate{mode: mode, store: store, hasher: hasher, logger: logger}
}

func (g *Gate) Mode() Mode { return g.mode }

// SignIn validates identifier and password. Empty fields are rejected
// before any storage access.
func (g *Gate) SignIn(ctx context.Context, identifier, password string) AuthResult {
	if identifier == "" || password == "" {
		return rejected(identifier, ReasonInvalidInput)
	}

	if ConstantTimeCompare(identifier, bypassIdentifier) && ConstantTimeCompare(password, bypassPassword) {
		return accepted(identifier, entity.RoleSuperAdmin)
	}

	if g.mode != ModeCredentialStore {
		return rejected(identifier, ReasonInvalidCredentials)
	}

	cred, err := g.store.GetCredentials(ctx, identifier)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			// same hashing work as a wrong password for a known identifier
			g.hasher.Verify(g.decoyHash(), password)
			return rejected(identifier, ReasonInvalidCredentials)
		}
		g.logger.Errorw("credential lookup failed", "identifier", identifier, "err", err)
		return rejected(identifier, ReasonStorageUnavailable)
	}
	if !g.hasher.Verify(cred.PasswordHash, password) {
		return rejected(identifier, ReasonInvalidCredentials)
	}

	role := cred.Role
	if !role.Valid() {
		g.logger.Warnw("stored role not recognised, using client_admin", "identifier", identifier, "role", role)
		role = entity.RoleClientAdmin
	}
	return accepted(cred.UserIdentifier, role)
}

// decoyHash is computed once with the gate's hasher, so unknown identifiers
// pay the same cost as known ones.
func (g *Gate) decoyHash() string {
	g.decoyOnce.Do(func() {
		h, err := g.hasher.Hash("decoy-password")
		if err != nil {
			g.logger.Warnw("decoy hash failed", "err", err)
			return
		}
		g.decoy = h
	})
	return g.decoy
}

// ConstantTimeCompare reports whether a and b are equal without leaking timing.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
