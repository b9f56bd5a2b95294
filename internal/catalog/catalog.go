package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/suspectuso/vidgate/internal/deeplink"
	"github.com/suspectuso/vidgate/internal/storage"
)

const defaultTitle = "Untitled Video"

// Store is the part of storage the catalog needs
type Store interface {
	AddVideo(ctx context.Context, v storage.Video) (storage.Video, error)
	UpdateVideoURL(ctx context.Context, videoID int64, shortURL string, at time.Time) error
	GetVideo(ctx context.Context, videoID int64) (storage.Video, error)
	FindVideoBySource(ctx context.Context, channelID int64, messageID int) (storage.Video, error)
	GetChannel(ctx context.Context, channelID int64) (storage.Channel, error)
	AddChannel(ctx context.Context, c storage.Channel) error
}

// Shortener turns a deep link into a short link, returning the input on failure
type Shortener interface {
	ShortenOrFallback(ctx context.Context, destination, alias string) (string, error)
}

// Catalog registers videos and keeps their access links
type Catalog struct {
	store       Store
	shortener   Shortener
	botUsername string
	log         *slog.Logger
	now         func() time.Time
}

// New creates a catalog; links point at botUsername
func New(store Store, shortener Shortener, botUsername string, log *slog.Logger) *Catalog {
	return &Catalog{
		store:       store,
		shortener:   shortener,
		botUsername: botUsername,
		log:         log,
		now:         time.Now,
	}
}

// NewVideo describes a video to register
type NewVideo struct {
	Title           string
	FileID          string
	AddedBy         int64
	SourceChannelID int64
	SourceMessageID int
}

// Register stores the video and attaches its access link
func (c *Catalog) Register(ctx context.Context, nv NewVideo) (storage.Video, error) {
	if nv.FileID == "" {
		return storage.Video{}, errors.New("file id is required")
	}
	title := strings.TrimSpace(nv.Title)
	if title == "" {
		title = defaultTitle
	}

	v, err := c.store.AddVideo(ctx, storage.Video{
		Title:           title,
		FileID:          nv.FileID,
		SourceChannelID: nv.SourceChannelID,
		SourceMessageID: nv.SourceMessageID,
		AddedBy:         nv.AddedBy,
	})
	if err != nil {
		return storage.Video{}, fmt.Errorf("add video: %w", err)
	}

	link, err := c.link(ctx, v.ID)
	if err != nil {
		return v, err
	}
	v.ShortURL = link

	c.log.Info("video registered",
		"video_id", v.ID,
		"title", v.Title,
		"source_channel_id", v.SourceChannelID,
	)
	return v, nil
}

// RegenerateLink rebuilds the short link of an existing video
func (c *Catalog) RegenerateLink(ctx context.Context, videoID int64) (storage.Video, error) {
	v, err := c.store.GetVideo(ctx, videoID)
	if err != nil {
		return storage.Video{}, err
	}

	link, err := c.link(ctx, v.ID)
	if err != nil {
		return v, err
	}
	v.ShortURL = link
	return v, nil
}

func (c *Catalog) link(ctx context.Context, videoID int64) (string, error) {
	param := deeplink.Video(videoID)
	link, err := c.shortener.ShortenOrFallback(ctx, deeplink.URL(c.botUsername, param), "")
	if err != nil {
		c.log.Warn("shorten video link, using deep link", "video_id", videoID, "error", err)
	}

	if err := c.store.UpdateVideoURL(ctx, videoID, link, c.now()); err != nil {
		return "", fmt.Errorf("update video url: %w", err)
	}
	return link, nil
}

// Post is a video message observed in a channel
type Post struct {
	ChannelID    int64
	ChannelTitle string
	MessageID    int
	FileID       string
	Caption      string
}

// IngestChannelPost registers the channel if unknown and the video if not seen before.
// created is false when the post was already ingested.
func (c *Catalog) IngestChannelPost(ctx context.Context, p Post) (v storage.Video, created bool, err error) {
	if _, err := c.store.GetChannel(ctx, p.ChannelID); errors.Is(err, storage.ErrNotFound) {
		name := p.ChannelTitle
		if name == "" {
			name = fmt.Sprintf("Channel %d", p.ChannelID)
		}
		if err := c.store.AddChannel(ctx, storage.Channel{ChannelID: p.ChannelID, Name: name}); err != nil {
			return storage.Video{}, false, fmt.Errorf("add channel: %w", err)
		}
		c.log.Info("channel auto-registered", "channel_id", p.ChannelID, "name", name)
	} else if err != nil {
		return storage.Video{}, false, fmt.Errorf("get channel: %w", err)
	}

	existing, err := c.store.FindVideoBySource(ctx, p.ChannelID, p.MessageID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Video{}, false, fmt.Errorf("find video: %w", err)
	}

	v, err = c.Register(ctx, NewVideo{
		Title:           p.Caption,
		FileID:          p.FileID,
		SourceChannelID: p.ChannelID,
		SourceMessageID: p.MessageID,
	})
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}
