package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type AccountRow struct {
	ID           int
	Name         string
	PasswordHash string
	RealName     string
	Location     string
	Email        string
	Computer     string
	HDID         string
	RegisterIP   string
	LastLoginIP  string
	CreatedAt    time.Time
	LastUsed     *time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Load returns the account row for a login name, or nil when absent.
func (r *AccountRepo) Load(ctx context.Context, name string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, password_hash, real_name, location, email,
		        computer, hdid, register_ip, last_login_ip, created_at, last_used
		 FROM accounts WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(
		&row.ID, &row.Name, &row.PasswordHash, &row.RealName, &row.Location,
		&row.Email, &row.Computer, &row.HDID, &row.RegisterIP,
		&row.LastLoginIP, &row.CreatedAt, &row.LastUsed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Exists reports whether a login name is taken.
func (r *AccountRepo) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&n)
	return n > 0, err
}

// Create inserts a new account. The caller hashes the password.
func (r *AccountRepo) Create(ctx context.Context, row *AccountRow) (int, error) {
	var id int
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (name, password_hash, real_name, location, email,
		                       computer, hdid, register_ip, last_login_ip, last_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 RETURNING id`,
		row.Name, row.PasswordHash, row.RealName, row.Location, row.Email,
		row.Computer, row.HDID, row.RegisterIP, row.LastLoginIP,
	).Scan(&id)
	return id, err
}

// TouchLogin stamps a successful login.
func (r *AccountRepo) TouchLogin(ctx context.Context, id int, ip string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_used = NOW(), last_login_ip = $2 WHERE id = $1`,
		id, ip,
	)
	return err
}

// BanRemaining returns the remaining ban duration for an account or ip.
// Zero means not banned; a negative duration means a permanent ban.
func (r *AccountRepo) BanRemaining(ctx context.Context, accountID int, ip string) (time.Duration, error) {
	var expires *time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT expires_at FROM bans
		 WHERE (account_id = $1 OR ip = $2)
		   AND (expires_at IS NULL OR expires_at > NOW())
		 ORDER BY expires_at DESC NULLS FIRST
		 LIMIT 1`, accountID, ip,
	).Scan(&expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if expires == nil {
		return -1, nil
	}
	return time.Until(*expires), nil
}
