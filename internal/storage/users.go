package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// --- Users ---

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `user_id, username, premium_until, token_expires_at, created_at`

func scanUser(row rowScanner) (User, error) {
	var u User
	var premium, token sql.NullInt64
	var createdAt int64

	if err := row.Scan(&u.UserID, &u.Username, &premium, &token, &createdAt); err != nil {
		return User{}, err
	}

	u.PremiumUntil = timeFromNull(premium)
	u.TokenExpiresAt = timeFromNull(token)
	u.CreatedAt = time.Unix(createdAt, 0)
	return u, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureUser(ctx context.Context, db execer, userID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, created_at) VALUES (?, ?)`,
		userID, time.Now().Unix(),
	)
	return err
}

// Get returns the user record, creating a default one on first access
func (s *Storage) Get(ctx context.Context, userID int64) (User, error) {
	if err := ensureUser(ctx, s.db, userID); err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID,
	))
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// TouchUser records the latest known username
func (s *Storage) TouchUser(ctx context.Context, userID int64, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET username = excluded.username`,
		userID, username, time.Now().Unix(),
	)
	return err
}

// SetPremium overwrites the premium expiry
func (s *Storage) SetPremium(ctx context.Context, userID int64, until time.Time) error {
	return s.setField(ctx, "premium_until", userID, &until)
}

// ClearPremium removes the premium expiry
func (s *Storage) ClearPremium(ctx context.Context, userID int64) error {
	return s.setField(ctx, "premium_until", userID, nil)
}

// SetToken overwrites the ads token expiry
func (s *Storage) SetToken(ctx context.Context, userID int64, until time.Time) error {
	return s.setField(ctx, "token_expires_at", userID, &until)
}

// setField upserts one timestamp column; column is never user input.
func (s *Storage) setField(ctx context.Context, column string, userID int64, value *time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, `+column+`, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET `+column+` = excluded.`+column,
		userID, unixOrNil(value), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

// UpdatePremium reads the user and writes the premium expiry computed by fn in one transaction.
// Nothing is written when fn fails.
func (s *Storage) UpdatePremium(ctx context.Context, userID int64, fn func(User) (time.Time, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(ctx, tx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	u, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID,
	))
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	until, err := fn(u)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET premium_until = ? WHERE user_id = ?`,
		until.Unix(), userID,
	); err != nil {
		return fmt.Errorf("update premium: %w", err)
	}

	return tx.Commit()
}

// ClaimTokenLink records the redemption of a refresh link issued at issuedAt.
// It returns false when a link issued at the same second or later was already redeemed.
func (s *Storage) ClaimTokenLink(ctx context.Context, userID int64, issuedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO token_links (user_id, issued_at) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET issued_at = excluded.issued_at
		 WHERE excluded.issued_at > token_links.issued_at`,
		userID, issuedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("claim token link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim token link: %w", err)
	}
	return n > 0, nil
}

// ListPremiumUsers returns users whose premium is active at now, soonest expiry first
func (s *Storage) ListPremiumUsers(ctx context.Context, now time.Time) ([]User, error) {
	return s.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE premium_until > ? ORDER BY premium_until ASC`,
		now.Unix(),
	)
}

// ListPremiumExpiringBetween returns users whose premium ends in [from, to)
func (s *Storage) ListPremiumExpiringBetween(ctx context.Context, from, to time.Time) ([]User, error) {
	return s.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE premium_until >= ? AND premium_until < ? ORDER BY premium_until ASC`,
		from.Unix(), to.Unix(),
	)
}

func (s *Storage) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
