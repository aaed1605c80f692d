// Package news aggregates headline items from local and remote JSON feeds.
package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
)

const (
	sourceName = "news"

	// APIKeyHeader carries a feed's API key on remote requests
	APIKeyHeader = "X-Api-Key"

	maxFeedBytes = 4 << 20
)

// Feed is a configured news source. Location is an http(s) URL or a file path.
type Feed struct {
	Name     string
	Location string
	APIKey   string
}

// IsRemote reports whether the feed is fetched over HTTP
func (f Feed) IsRemote() bool {
	return strings.HasPrefix(f.Location, "http://") || strings.HasPrefix(f.Location, "https://")
}

// Item is a single headline
type Item struct {
	Title     string    `json:"title" validate:"required"`
	Link      string    `json:"link" validate:"required,url"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// feedDocument keeps items undecoded so one badly typed item does not reject the feed
type feedDocument struct {
	Items []json.RawMessage `json:"items"`
}

type rawItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published"`
}

// Aggregator loads every configured feed and serves the merged headlines
type Aggregator struct {
	feeds    []Feed
	client   *RateLimitedHTTPClient
	logger   *logger.ScheduleLogger
	validate *validator.Validate

	mu    sync.RWMutex
	items []Item
}

// NewAggregator creates a news aggregator
func NewAggregator(feeds []Feed, httpCfg HTTPClientConfig, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		feeds:    feeds,
		client:   NewRateLimitedHTTPClient(httpCfg, log),
		logger:   logger.NewScheduleLogger(log),
		validate: validator.New(),
	}
}

// Load reads all feeds. An unreachable feed is logged and skipped; the load
// fails only when no feed could be read or no usable item remains.
func (a *Aggregator) Load(ctx context.Context) error {
	start := time.Now()
	items, err := a.read(ctx)
	metrics.RecordSourceLoad(sourceName, time.Since(start).Seconds(), err)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.items = nil
		return fmt.Errorf("failed to load news: %w", err)
	}
	a.items = items
	return nil
}

// Latest returns up to limit items, newest first
func (a *Aggregator) Latest(limit int) ([]Item, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", models.ErrInvalidQueryArgument, limit)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.items == nil {
		return nil, models.ErrStoreNotLoaded
	}

	n := limit
	if n > len(a.items) {
		n = len(a.items)
	}
	out := make([]Item, n)
	copy(out, a.items[:n])
	return out, nil
}

// Loaded reports whether headlines are available
func (a *Aggregator) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items != nil
}

// Close releases the HTTP client's idle connections
func (a *Aggregator) Close() error {
	return a.client.Close()
}

func (a *Aggregator) read(ctx context.Context) ([]Item, error) {
	if len(a.feeds) == 0 {
		return nil, models.NewSourceError(sourceName, models.ErrCodeSourceUnavailable, "no feeds configured", nil)
	}

	byLink := make(map[string]Item)
	reachable := 0
	var lastErr error

	for _, feed := range a.feeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, skipped, err := a.readFeed(ctx, feed)
		if err != nil {
			lastErr = err
			a.logger.LogFeedFailed(feed.Name, err)
			continue
		}
		reachable++
		metrics.RecordSkippedEntries(sourceName, skipped)
		a.logger.LogFeedLoaded(feed.Name, len(items), skipped)

		for _, item := range items {
			if prev, ok := byLink[item.Link]; !ok || item.Published.After(prev.Published) {
				byLink[item.Link] = item
			}
		}
	}

	if reachable == 0 {
		return nil, lastErr
	}
	if len(byLink) == 0 {
		return nil, models.NewSourceError(sourceName, models.ErrCodeSourceMalformed, "no usable items", errors.New("empty feeds"))
	}

	items := make([]Item, 0, len(byLink))
	for _, item := range byLink {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Published.Equal(items[j].Published) {
			return items[i].Published.After(items[j].Published)
		}
		return items[i].Title < items[j].Title
	})
	return items, nil
}

func (a *Aggregator) readFeed(ctx context.Context, feed Feed) ([]Item, int, error) {
	data, err := a.fetch(ctx, feed)
	if err != nil {
		return nil, 0, err
	}

	var doc feedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, models.NewSourceError(feed.Name, models.ErrCodeSourceMalformed, "decode failed", err)
	}
	if doc.Items == nil {
		return nil, 0, models.NewSourceError(feed.Name, models.ErrCodeSourceMalformed, "missing items list", nil)
	}

	items := make([]Item, 0, len(doc.Items))
	skipped := 0
	for i, data := range doc.Items {
		var raw rawItem
		err := json.Unmarshal(data, &raw)
		var item Item
		if err == nil {
			item, err = a.toItem(feed, raw)
		}
		if err != nil {
			skipped++
			a.logger.LogItemSkipped(feed.Name, i, err.Error())
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

func (a *Aggregator) toItem(feed Feed, raw rawItem) (Item, error) {
	published, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.Published))
	if err != nil {
		return Item{}, err
	}
	item := Item{
		Title:     strings.TrimSpace(raw.Title),
		Link:      strings.TrimSpace(raw.Link),
		Source:    strings.TrimSpace(raw.Source),
		Published: published.UTC(),
	}
	if item.Source == "" {
		item.Source = feed.Name
	}
	if err := a.validate.Struct(item); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (a *Aggregator) fetch(ctx context.Context, feed Feed) ([]byte, error) {
	if !feed.IsRemote() {
		data, err := os.ReadFile(feed.Location)
		if err != nil {
			return nil, models.NewSourceError(feed.Name, models.ErrCodeSourceUnavailable, "read failed", err)
		}
		return data, nil
	}

	var headers map[string]string
	if feed.APIKey != "" {
		headers = map[string]string{APIKeyHeader: feed.APIKey}
	}
	resp, err := a.client.Get(ctx, feed.Location, headers)
	if err != nil {
		return nil, models.NewSourceError(feed.Name, models.ErrCodeSourceUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewSourceError(feed.Name, models.ErrCodeSourceUnavailable,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, models.NewSourceError(feed.Name, models.ErrCodeSourceUnavailable, "read body failed", err)
	}
	return data, nil
}
