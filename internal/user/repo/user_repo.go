package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voxaiomni/admin-core/internal/user/entity"
	"github.com/voxaiomni/admin-core/pkg/database"
)

var ErrNotFound = errors.New("user not found")

const mysqlDDL = `
CREATE TABLE IF NOT EXISTS Users (
  id INT AUTO_INCREMENT PRIMARY KEY,
  user_identifier VARCHAR(255) NOT NULL UNIQUE,
  password_hash VARCHAR(255) NOT NULL,
  role VARCHAR(32) NOT NULL DEFAULT 'client_admin',
  full_name VARCHAR(255),
  email VARCHAR(255) UNIQUE,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

const postgresDDL = `
CREATE TABLE IF NOT EXISTS Users (
  id SERIAL PRIMARY KEY,
  user_identifier VARCHAR(255) NOT NULL UNIQUE,
  password_hash VARCHAR(255) NOT NULL,
  role VARCHAR(32) NOT NULL DEFAULT 'client_admin',
  full_name VARCHAR(255),
  email VARCHAR(255) UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const sqliteDDL = `
CREATE TABLE IF NOT EXISTS Users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_identifier TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'client_admin',
  full_name TEXT,
  email TEXT UNIQUE,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// UserRepo provides data access for the Users table. Every call asks the
// provider for a connection, so a stale handle is replaced transparently.
type UserRepo struct {
	db database.Provider
}

func NewUserRepo(db database.Provider) *UserRepo { return &UserRepo{db: db} }

// DDL returns the CREATE TABLE statement for a driver name.
func DDL(driver string) string {
	switch driver {
	case database.DriverPostgres:
		return postgresDDL
	case database.DriverSQLite:
		return sqliteDDL
	default:
		return mysqlDDL
	}
}

// DropTable removes the Users table and every row in it.
func (r *UserRepo) DropTable(ctx context.Context) error {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS Users`); err != nil {
		return fmt.Errorf("drop users table: %w", err)
	}
	return nil
}

// EnsureTable creates the Users table if not exists (idempotent).
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, DDL(db.DriverName())); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepo) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var found string
	err = db.GetContext(ctx, &found, db.Rebind(`SELECT user_identifier FROM Users WHERE user_identifier = ?`), identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user %q: %w", identifier, err)
	}
	return true, nil
}

// CountByIdentifier returns how many rows carry the identifier (0 or 1 while
// the unique constraint holds).
func (r *UserRepo) CountByIdentifier(ctx context.Context, identifier string) (int, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.GetContext(ctx, &n, db.Rebind(`SELECT COUNT(*) FROM Users WHERE user_identifier = ?`), identifier); err != nil {
		return 0, fmt.Errorf("count user %q: %w", identifier, err)
	}
	return n, nil
}

// Create inserts a new user row. Returns new ID.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (int64, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	role := u.Role
	if role == "" {
		role = entity.RoleClientAdmin
	}
	q := db.Rebind(`INSERT INTO Users (user_identifier, password_hash, role, full_name, email) VALUES (?, ?, ?, ?, ?)`)
	args := []any{u.UserIdentifier, u.PasswordHash, role, u.FullName, u.Email}

	if db.DriverName() == database.DriverPostgres {
		// lib/pq has no LastInsertId
		if err := db.QueryRowxContext(ctx, q+" RETURNING id", args...).Scan(&u.ID); err != nil {
			return 0, fmt.Errorf("insert user %q: %w", u.UserIdentifier, err)
		}
		u.Role = role
		return u.ID, nil
	}

	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", u.UserIdentifier, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", u.UserIdentifier, err)
	}
	u.ID = id
	u.Role = role
	return id, nil
}

// GetCredentials returns the fields needed to verify a password, or ErrNotFound.
func (r *UserRepo) GetCredentials(ctx context.Context, identifier string) (*entity.Credentials, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var c entity.Credentials
	q := db.Rebind(`SELECT id, user_identifier, password_hash, role FROM Users WHERE user_identifier = ?`)
	if err := db.GetContext(ctx, &c, q, identifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credentials %q: %w", identifier, err)
	}
	return &c, nil
}
