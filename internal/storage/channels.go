package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// --- Channels ---

const channelColumns = `channel_id, name, is_special, is_required, added_by, added_on`

func scanChannel(row rowScanner) (Channel, error) {
	var c Channel
	var addedOn int64

	if err := row.Scan(&c.ChannelID, &c.Name, &c.IsSpecial, &c.IsRequired, &c.AddedBy, &addedOn); err != nil {
		return Channel{}, err
	}
	c.AddedOn = time.Unix(addedOn, 0)
	return c, nil
}

// AddChannel inserts a channel or refreshes the name of a known one.
// The required flag of an existing channel is left untouched; the special flag is only ever raised.
func (s *Storage) AddChannel(ctx context.Context, c Channel) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel_id, name, is_special, is_required, added_by, added_on)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET
			name = excluded.name,
			is_special = MAX(channels.is_special, excluded.is_special)`,
		c.ChannelID, c.Name, c.IsSpecial, c.IsRequired, c.AddedBy, time.Now().Unix(),
	)
	return err
}

// GetChannel returns a channel by ID
func (s *Storage) GetChannel(ctx context.Context, channelID int64) (Channel, error) {
	c, err := scanChannel(s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE channel_id = ?`, channelID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Channel{}, ErrNotFound
	}
	return c, err
}

// ListChannels returns all channels in insertion order
func (s *Storage) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels ORDER BY added_on ASC, channel_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	return channels, rows.Err()
}

// SetChannelRequired toggles the membership gate for a channel
func (s *Storage) SetChannelRequired(ctx context.Context, channelID int64, required bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE channels SET is_required = ? WHERE channel_id = ?",
		required, channelID,
	)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RequiredChannelIDs returns the channels every non-premium user must belong to
func (s *Storage) RequiredChannelIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel_id FROM channels WHERE is_required = 1 ORDER BY added_on ASC, channel_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
