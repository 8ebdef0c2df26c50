package icon

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-tracker/internal/cache"
	"github.com/kjstillabower/weather-tracker/internal/observability"
)

// Loader produces the decorative icon. Load never fails: any problem with the
// cache, the download or the image itself yields the placeholder.
type Loader struct {
	fetcher  Fetcher
	cache    cache.Cache // optional
	url      string
	size     int
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoader returns a Loader. c may be nil to disable caching.
func NewLoader(fetcher Fetcher, c cache.Cache, url string, size int, cacheTTL time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fetcher:  fetcher,
		cache:    c,
		url:      url,
		size:     size,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *Loader) cacheKey() string {
	return fmt.Sprintf("icon:%d:%s", l.size, l.url)
}

// Load returns the icon from cache, else downloads it, else the placeholder.
func (l *Loader) Load(ctx context.Context) Icon {
	if l.cache != nil {
		raw, ok, err := l.cache.Get(ctx, l.cacheKey())
		if err != nil {
			l.logger.Warn("icon cache get failed", zap.Error(err))
		} else if ok {
			observability.IconLoadsTotal.WithLabelValues(string(SourceCached)).Inc()
			l.logger.Debug("icon served from cache", zap.String("url", l.url))
			return Icon{PNG: raw, Source: SourceCached, LoadedAt: l.now()}
		}
	}

	pngBytes, err := l.download(ctx)
	if err != nil {
		l.logger.Warn("error loading icon, using placeholder",
			zap.String("url", l.url),
			zap.String("category", string(CategorizeError(err))),
			zap.Error(err))
		return l.Placeholder()
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, l.cacheKey(), pngBytes, l.cacheTTL); err != nil {
			l.logger.Warn("icon cache set failed", zap.Error(err))
		}
	}
	observability.IconLoadsTotal.WithLabelValues(string(SourceFetched)).Inc()
	l.logger.Info("icon loaded", zap.String("url", l.url), zap.Int("bytes", len(pngBytes)))
	return Icon{PNG: pngBytes, Source: SourceFetched, LoadedAt: l.now()}
}

func (l *Loader) download(ctx context.Context) ([]byte, error) {
	raw, err := l.fetcher.Fetch(ctx, l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch icon: %w", err)
	}
	return normalize(raw, l.size)
}

// Placeholder returns the solid-colour fallback icon.
func (l *Loader) Placeholder() Icon {
	observability.IconLoadsTotal.WithLabelValues(string(SourcePlaceholder)).Inc()
	pngBytes, err := placeholderPNG(l.size)
	if err != nil {
		// Encoding an in-memory RGBA image does not fail in practice.
		l.logger.Error("placeholder encode failed", zap.Error(err))
	}
	return Icon{PNG: pngBytes, Source: SourcePlaceholder, LoadedAt: l.now()}
}
