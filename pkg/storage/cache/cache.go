package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage"
)

const (
	cacheTypeStory = "story"
	cacheTypeList  = "story_list"

	generationKey = "stories:generation"

	// DefaultTTL applies when no TTL is configured
	DefaultTTL = 5 * time.Minute
)

// StoryCache decorates a storage.Store with a Redis read-through cache for
// single stories and story listings. Listings are keyed by a generation
// counter that every story write bumps, so stale pages are never read.
// Single stories carry their own version that a delete bumps, so a read
// racing a delete can only fill an entry nobody looks up again.
//
// Redis failures are logged and the call falls through to the store.
type StoryCache struct {
	storage.Store
	redis   *redis.Client
	ttl     time.Duration
	logger  logrus.FieldLogger
	metrics *observability.Metrics
}

// Option configures a StoryCache
type Option func(*StoryCache)

// WithTTL sets the expiry of cached entries
func WithTTL(ttl time.Duration) Option {
	return func(c *StoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger for cache failures
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *StoryCache) { c.logger = logger }
}

// WithMetrics records cache hits and misses
func WithMetrics(m *observability.Metrics) Option {
	return func(c *StoryCache) { c.metrics = m }
}

// NewStoryCache wraps store with a cache backed by client
func NewStoryCache(store storage.Store, client *redis.Client, opts ...Option) *StoryCache {
	c := &StoryCache{
		Store:  store,
		redis:  client,
		ttl:    DefaultTTL,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func storyKey(id string, version int64) string {
	return fmt.Sprintf("story:%s:%d", id, version)
}

func storyVersionKey(id string) string {
	return fmt.Sprintf("story:%s:version", id)
}

func listKey(generation int64, limit, offset int) string {
	return fmt.Sprintf("stories:list:%d:%d:%d", generation, limit, offset)
}

// GetStory returns the cached story or loads and caches it
func (c *StoryCache) GetStory(ctx context.Context, id string) (*models.Story, error) {
	version, err := c.redis.Get(ctx, storyVersionKey(id)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).WithField("story_id", id).Warn("story cache version lookup failed")
		return c.Store.GetStory(ctx, id)
	}
	key := storyKey(id, version)

	var st models.Story
	if c.get(ctx, key, &st) {
		c.metrics.RecordCache(cacheTypeStory, true)
		return &st, nil
	}
	c.metrics.RecordCache(cacheTypeStory, false)

	loaded, err := c.Store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, loaded)
	return loaded, nil
}

// ListStories returns the cached page or loads and caches it
func (c *StoryCache) ListStories(ctx context.Context, limit, offset int) ([]*models.Story, error) {
	generation, err := c.redis.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).Warn("story cache generation lookup failed")
		return c.Store.ListStories(ctx, limit, offset)
	}

	key := listKey(generation, limit, offset)
	var stories []*models.Story
	if c.get(ctx, key, &stories) {
		c.metrics.RecordCache(cacheTypeList, true)
		return stories, nil
	}
	c.metrics.RecordCache(cacheTypeList, false)

	stories, err = c.Store.ListStories(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, stories)
	return stories, nil
}

// CreateStory stores the story and invalidates cached listings
func (c *StoryCache) CreateStory(ctx context.Context, st *models.Story) error {
	if err := c.Store.CreateStory(ctx, st); err != nil {
		return err
	}
	c.bumpGeneration(ctx)
	return nil
}

// DeleteStory removes the story and retires its cached entry
func (c *StoryCache) DeleteStory(ctx context.Context, id string) error {
	if err := c.Store.DeleteStory(ctx, id); err != nil {
		return err
	}

	var bumped *redis.IntCmd
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		bumped = pipe.Incr(ctx, storyVersionKey(id))
		// outlive any entry written under the previous version
		pipe.Expire(ctx, storyVersionKey(id), 2*c.ttl)
		return nil
	})
	if err != nil {
		c.logger.WithError(err).WithField("story_id", id).Warn("story cache eviction failed")
	} else if err := c.redis.Del(ctx, storyKey(id, bumped.Val()-1)).Err(); err != nil {
		c.logger.WithError(err).WithField("story_id", id).Warn("story cache eviction failed")
	}
	c.bumpGeneration(ctx)
	return nil
}

func (c *StoryCache) bumpGeneration(ctx context.Context) {
	if err := c.redis.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.WithError(err).Warn("story cache invalidation failed")
	}
}

func (c *StoryCache) get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("story cache read failed")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// drop corrupt entries
		c.redis.Del(ctx, key)
		return false
	}
	return true
}

func (c *StoryCache) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("story cache encode failed")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("story cache write failed")
	}
}
