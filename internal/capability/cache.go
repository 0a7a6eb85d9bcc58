package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cached decorates a TextCapabilities backend with a Redis result cache.
// Cache failures are never surfaced; the inner backend always answers.
type Cached struct {
	inner  TextCapabilities
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps the inner backend with caching.
func NewCached(inner TextCapabilities, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{inner: inner, client: client, ttl: ttl, logger: logger}
}

type classifyResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify caches classification results per text+label set.
func (c *Cached) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	key := c.key("classify", text+"|"+strings.Join(labels, ","))
	var cached classifyResult
	if c.get(ctx, key, &cached) {
		return cached.Label, cached.Confidence, nil
	}
	label, confidence, err := c.inner.Classify(ctx, text, labels)
	if err != nil {
		return "", 0, err
	}
	c.set(ctx, key, classifyResult{Label: label, Confidence: confidence})
	return label, confidence, nil
}

// Entities caches entity extraction results.
func (c *Cached) Entities(ctx context.Context, text string) ([]Entity, error) {
	key := c.key("entities", text)
	var cached []Entity
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	entities, err := c.inner.Entities(ctx, text)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, entities)
	return entities, nil
}

// Keywords caches keyword extraction results.
func (c *Cached) Keywords(ctx context.Context, text string) ([]Keyword, error) {
	key := c.key("keywords", text)
	var cached []Keyword
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	keywords, err := c.inner.Keywords(ctx, text)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, keywords)
	return keywords, nil
}

// Readability caches readability scores.
func (c *Cached) Readability(ctx context.Context, text string) (float64, error) {
	key := c.key("readability", text)
	var cached float64
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	score, err := c.inner.Readability(ctx, text)
	if err != nil {
		return 0, err
	}
	c.set(ctx, key, score)
	return score, nil
}

// Sentiment caches sentiment polarity.
func (c *Cached) Sentiment(ctx context.Context, text string) (float64, error) {
	key := c.key("sentiment", text)
	var cached float64
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	polarity, err := c.inner.Sentiment(ctx, text)
	if err != nil {
		return 0, err
	}
	c.set(ctx, key, polarity)
	return polarity, nil
}

func (c *Cached) key(op, payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return "capability:" + op + ":" + hex.EncodeToString(sum[:16])
}

func (c *Cached) get(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("capability cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Debug("capability cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cached) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("capability cache write failed", zap.String("key", key), zap.Error(err))
	}
}
