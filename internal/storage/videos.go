package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// --- Videos ---

const videoColumns = `id, title, file_id, short_url, source_channel_id, source_message_id, added_by, added_on, url_created_at`

func scanVideo(row rowScanner) (Video, error) {
	var v Video
	var addedOn, urlCreatedAt int64

	err := row.Scan(&v.ID, &v.Title, &v.FileID, &v.ShortURL, &v.SourceChannelID,
		&v.SourceMessageID, &v.AddedBy, &addedOn, &urlCreatedAt)
	if err != nil {
		return Video{}, err
	}

	v.AddedOn = time.Unix(addedOn, 0)
	v.URLCreatedAt = time.Unix(urlCreatedAt, 0)
	return v, nil
}

// AddVideo inserts a video and returns it with its assigned ID
func (s *Storage) AddVideo(ctx context.Context, v Video) (Video, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (title, file_id, short_url, source_channel_id, source_message_id, added_by, added_on, url_created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Title, v.FileID, v.ShortURL, v.SourceChannelID, v.SourceMessageID, v.AddedBy, now.Unix(), now.Unix(),
	)
	if err != nil {
		return Video{}, err
	}

	v.ID, _ = result.LastInsertId()
	v.AddedOn = time.Unix(now.Unix(), 0)
	v.URLCreatedAt = v.AddedOn
	return v, nil
}

// UpdateVideoURL replaces the short link of a video
func (s *Storage) UpdateVideoURL(ctx context.Context, videoID int64, shortURL string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE videos SET short_url = ?, url_created_at = ? WHERE id = ?",
		shortURL, at.Unix(), videoID,
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

// GetVideo returns a video by ID
func (s *Storage) GetVideo(ctx context.Context, videoID int64) (Video, error) {
	v, err := scanVideo(s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = ?`, videoID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Video{}, ErrNotFound
	}
	return v, err
}

// FindVideoBySource returns the video ingested from a channel post
func (s *Storage) FindVideoBySource(ctx context.Context, channelID int64, messageID int) (Video, error) {
	v, err := scanVideo(s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos
		 WHERE source_channel_id = ? AND source_message_id = ? LIMIT 1`,
		channelID, messageID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Video{}, ErrNotFound
	}
	return v, err
}

// ListVideos returns all videos, newest first
func (s *Storage) ListVideos(ctx context.Context) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY added_on DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}

	return videos, rows.Err()
}
