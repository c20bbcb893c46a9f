// Package providers holds the thin HTTP clients the enrichment step uses to
// fetch raw destination signals. Each client is guarded by a circuit breaker
// and may share a Redis response cache.
package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrs "errors"
	"net"
	"strings"
	"time"

	"creator-trips/internal/common/config"
	"creator-trips/internal/common/database"
	"creator-trips/internal/common/errors"
	httpclient "creator-trips/internal/common/http"
	"creator-trips/internal/common/logger"
	"creator-trips/internal/common/metrics"
)

// ErrNoData means the provider answered but had nothing for the subject.
var ErrNoData = stderrs.New("provider returned no data")

const cachePrefix = "creator-trips:provider"

// Options are shared by every provider client.
type Options struct {
	Cache           *database.RedisClient
	CacheTTL        time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	Logger          logger.Logger
}

// OptionsFrom builds client options from the recommendation settings.
func OptionsFrom(rec config.RecommendationConfig, cache *database.RedisClient, log logger.Logger) Options {
	opts := Options{
		Cache:          cache,
		CacheTTL:       time.Duration(rec.CacheTTL) * time.Second,
		BreakerTimeout: time.Duration(rec.BreakerTimeout) * time.Millisecond,
		Logger:         log,
	}
	if rec.BreakerFailures > 0 {
		opts.BreakerFailures = uint32(rec.BreakerFailures)
	}
	return opts
}

type base struct {
	name    string
	cfg     config.ProviderConfig
	baseURL string
	http    *httpclient.Client
	cache   *database.RedisClient
	ttl     time.Duration
	log     logger.Logger
}

func newBase(name string, cfg config.ProviderConfig, defaultURL string, opts Options) base {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultURL
	}
	return base{
		name:    name,
		cfg:     cfg,
		baseURL: baseURL,
		http: httpclient.NewClient(httpclient.Config{
			Name:             name,
			Timeout:          time.Duration(cfg.Timeout) * time.Millisecond,
			FailureThreshold: opts.BreakerFailures,
			OpenTimeout:      opts.BreakerTimeout,
		}),
		cache: opts.Cache,
		ttl:   opts.CacheTTL,
		log:   log.WithFields(map[string]interface{}{"provider": name}),
	}
}

// Name is the capability name of the provider.
func (b *base) Name() string {
	return b.name
}

// cached serves out from Redis when possible, otherwise runs fetch and
// stores the result. Cache failures only cost a round trip.
func (b *base) cached(ctx context.Context, key string, out interface{}, fetch func(context.Context) error) error {
	if b.cache != nil {
		err := b.cache.GetJSON(ctx, key, out)
		if err == nil {
			metrics.ProviderCacheHits.WithLabelValues(b.name).Inc()
			return nil
		}
		if !stderrs.Is(err, database.ErrCacheMiss) {
			b.log.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	if err := fetch(ctx); err != nil {
		return b.wrap(err)
	}

	if b.cache != nil && b.ttl > 0 {
		if err := b.cache.SetJSON(ctx, key, out, b.ttl); err != nil {
			b.log.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return nil
}

// wrap maps transport failures onto the provider error codes.
func (b *base) wrap(err error) error {
	if err == nil {
		return nil
	}
	var std *errors.StandardError
	if stderrs.As(err, &std) {
		return err
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return errors.NewProviderTimeoutError(b.name, err)
	}
	var ne net.Error
	if stderrs.As(err, &ne) && ne.Timeout() {
		return errors.NewProviderTimeoutError(b.name, err)
	}
	return errors.NewProviderCallFailedError(b.name, err)
}

func cacheKey(provider string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(parts, "|"))))
	return cachePrefix + ":" + provider + ":" + hex.EncodeToString(sum[:12])
}
