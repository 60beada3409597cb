package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Schema creates the users table used by Postgres.
const Schema = `CREATE TABLE IF NOT EXISTS users (
	id              UUID PRIMARY KEY,
	email           TEXT NOT NULL,
	username        TEXT NOT NULL,
	full_name       TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	is_superuser    BOOLEAN NOT NULL DEFAULT FALSE,
	email_verified  BOOLEAN NOT NULL DEFAULT FALSE,
	bio             TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	avatar_url      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	last_login_at   TIMESTAMPTZ,
	CONSTRAINT users_email_key UNIQUE (email),
	CONSTRAINT users_username_key UNIQUE (username)
)`

const (
	pgUniqueViolation = "23505"

	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

const selectColumns = `SELECT id, email, username, full_name, hashed_password, is_active, is_superuser,
		email_verified, bio, location, website, avatar_url, created_at, updated_at, last_login_at
		FROM users`

// DBTX is the subset of *sql.DB and *sql.Tx the store needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Open connects to Postgres through the pgx stdlib driver.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	return db, nil
}

// Postgres stores users in a relational table.
type Postgres struct {
	db  DBTX
	now func() time.Time
}

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// EnsureSchema creates the users table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) GetByID(ctx context.Context, id string) (User, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, false, nil
	}
	return p.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (p *Postgres) GetByEmail(ctx context.Context, email string) (User, bool, error) {
	return p.getOne(ctx, selectColumns+` WHERE email = $1`, email)
}

func (p *Postgres) GetByUsername(ctx context.Context, username string) (User, bool, error) {
	return p.getOne(ctx, selectColumns+` WHERE username = $1`, username)
}

func (p *Postgres) getOne(ctx context.Context, query string, arg string) (User, bool, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("db error: %w", err)
	}
	return u, true, nil
}

func scanUser(row rowScanner) (User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &u.IsActive, &u.IsSuperuser,
		&u.EmailVerified, &u.Bio, &u.Location, &u.Website, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// List returns the page of users matching q, newest first.
func (p *Postgres) List(ctx context.Context, q ListQuery) (Page, error) {
	where, args := listFilter(q)

	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("db error: %w", err)
	}

	query := selectColumns + where + ` ORDER BY created_at DESC, id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, max(q.Offset, 0))
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return Page{}, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("db error: %w", err)
	}
	return Page{Users: users, Total: total}, nil
}

func listFilter(q ListQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR username ILIKE $%d OR full_name ILIKE $%d)", n, n, n))
	}
	if q.IsActive != nil {
		args = append(args, *q.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if q.IsSuperuser != nil {
		args = append(args, *q.IsSuperuser)
		conds = append(conds, fmt.Sprintf("is_superuser = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Create assigns an ID and timestamps and inserts u.
func (p *Postgres) Create(ctx context.Context, u User) (User, error) {
	now := p.now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	query :=
		`INSERT INTO users (id, email, username, full_name, hashed_password, is_active, is_superuser,
		 email_verified, bio, location, website, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := p.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash, u.IsActive, u.IsSuperuser,
		u.EmailVerified, u.Bio, u.Location, u.Website, u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return u, nil
}

// Update writes every mutable column of u and bumps updated_at.
func (p *Postgres) Update(ctx context.Context, u User) (User, error) {
	u.UpdatedAt = p.now().UTC()

	query :=
		`UPDATE users SET email = $2, username = $3, full_name = $4, is_active = $5, is_superuser = $6,
		 email_verified = $7, bio = $8, location = $9, website = $10, avatar_url = $11, updated_at = $12
		 WHERE id = $1`

	res, err := p.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Username, u.FullName, u.IsActive, u.IsSuperuser,
		u.EmailVerified, u.Bio, u.Location, u.Website, u.AvatarURL, u.UpdatedAt)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	if err := requireRow(res); err != nil {
		return User{}, err
	}
	return u, nil
}

func (p *Postgres) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET hashed_password = $2, updated_at = $3 WHERE id = $1`

	res, err := p.db.ExecContext(ctx, query, id, hash, p.now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (p *Postgres) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1`

	res, err := p.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (p *Postgres) Delete(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether the database is reachable. A DBTX without PingContext
// (a transaction) is assumed healthy.
func (p *Postgres) Ping(ctx context.Context) error {
	db, ok := p.db.(pinger)
	if !ok {
		return nil
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return ErrDuplicateEmail
		case usernameConstraint:
			return ErrDuplicateUsername
		}
	}
	return fmt.Errorf("db error: %w", err)
}
