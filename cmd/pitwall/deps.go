package main

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/news"
	"github.com/yourusername/pitwall/internal/schedule"
	"github.com/yourusername/pitwall/internal/stats"
)

func newViewCache() *cache.ViewCache {
	return cache.NewViewCache(cfg.CacheTTL(), cfg.CacheCleanupInterval())
}

// loadEngine reads the dataset once and returns an engine over it
func loadEngine(ctx context.Context) (*stats.Engine, error) {
	store := dataset.NewStore(cfg.Dataset.Dir, appLog)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return stats.NewEngine(stats.StoreSource(store), newViewCache(), cfg.Dataset.StartYear, appLog), nil
}

func loadClassifier(ctx context.Context, season int) (*schedule.Classifier, error) {
	store := schedule.NewStore(cfg.Schedule.Dirs, appLog)
	if err := store.Load(ctx, season); err != nil {
		return nil, err
	}
	return store.Classifier()
}

func newsFeeds() []news.Feed {
	feeds := make([]news.Feed, 0, len(cfg.News.Feeds))
	for _, f := range cfg.News.Feeds {
		feeds = append(feeds, news.Feed{Name: f.Name, Location: f.Location, APIKey: f.APIKey})
	}
	return feeds
}

func newsHTTPConfig() news.HTTPClientConfig {
	httpCfg := news.DefaultHTTPClientConfig()
	if t := cfg.NewsTimeout(); t > 0 {
		httpCfg.Timeout = t
	}
	if cfg.News.MaxRetries > 0 {
		httpCfg.MaxRetries = cfg.News.MaxRetries
	}
	if cfg.News.RateLimit > 0 {
		httpCfg.RateLimit = cfg.News.RateLimit
	}
	return httpCfg
}

// newAggregator returns nil when no feeds are configured
func newAggregator() *news.Aggregator {
	feeds := newsFeeds()
	if len(feeds) == 0 {
		return nil
	}
	return news.NewAggregator(feeds, newsHTTPConfig(), appLog)
}

func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func requireFeeds() error {
	if len(cfg.News.Feeds) == 0 {
		return fmt.Errorf("no news feeds configured")
	}
	return nil
}
