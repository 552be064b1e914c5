package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosterhub/internal/app/user"
)

const accountColumns = `id, first_name, last_name, email, role, password_hash, created_at, updated_at`

// UserStore implements user.AccountStore on PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func scanAccount(row pgx.Row) (*user.Account, error) {
	var (
		a    user.Account
		id   uuid.UUID
		role string
	)

	if err := row.Scan(&id, &a.FirstName, &a.LastName, &a.Email, &role, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	a.ID = id.String()
	a.Role = user.Role(role)
	return &a, nil
}

// FindUserByID implements user.Lookup.
func (s *UserStore) FindUserByID(ctx context.Context, id string) (*user.Identity, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a.Identity, nil
}

// GetAccount returns the account with id. Malformed ids are reported as not found.
func (s *UserStore) GetAccount(ctx context.Context, id string) (*user.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, uid)
	return scanAccount(row)
}

// FindAccountByEmail returns the account registered with email.
func (s *UserStore) FindAccountByEmail(ctx context.Context, email string) (*user.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanAccount(row)
}

// registrationLock serialises account creation so the admin decision sees every committed row.
const registrationLock int64 = 0x726f73746572

// CreateAccount inserts a new account. The role is decided inside the insert.
func (s *UserStore) CreateAccount(ctx context.Context, in user.NewAccount) (*user.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLock); err != nil {
		return nil, fmt.Errorf("registration lock: %w", err)
	}

	a, err := scanAccount(tx.QueryRow(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role)
		SELECT $1, $2, $3, $4, $5,
		       CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'user' ELSE 'admin' END
		RETURNING `+accountColumns,
		uuid.New(), in.FirstName, in.LastName, strings.ToLower(in.Email), in.PasswordHash,
	))
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, user.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// ListAccounts returns every account ordered by creation.
func (s *UserStore) ListAccounts(ctx context.Context) ([]user.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]user.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies u to the account with id.
func (s *UserStore) UpdateAccount(ctx context.Context, id string, u user.Update) (*user.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	var email, role *string
	if u.Email != nil {
		lowered := strings.ToLower(*u.Email)
		email = &lowered
	}
	if u.Role != nil {
		r := string(*u.Role)
		role = &r
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email),
			role       = COALESCE($5, role),
			updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		uid, u.FirstName, u.LastName, email, role,
	)

	a, err := scanAccount(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, user.ErrEmailTaken
		}
		return nil, err
	}
	return a, nil
}

// DeleteAccount removes the account with id.
func (s *UserStore) DeleteAccount(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
