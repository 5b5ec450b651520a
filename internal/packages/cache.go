// 文件路径: internal/packages/cache.go
// 模块说明: 这是 internal 模块里的 cache 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package packages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/creamcroissant/boxbuild/internal/cache"
)

// RetryConfig 控制包列表加载的重试策略。
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c RetryConfig) normalize() RetryConfig {
	if c.InitialInterval <= 0 {
		c.InitialInterval = 200 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

// Cache 保存包名到 UID 的映射，首次加载完成前 AwaitLoaded 会阻塞。
// 每次刷新写入新的一代命名空间，写完后再整体切换，读者不会看到新旧混杂的表。
type Cache struct {
	store  cache.Store
	loader Loader
	retry  RetryConfig
	logger *slog.Logger

	startOnce  sync.Once
	loaded     chan struct{}
	mu         sync.RWMutex
	current    cache.Store
	loadErr    error
	reloadMu   sync.Mutex
	generation uint64
}

// NewCache wires a loader to a cache namespace.
func NewCache(store cache.Store, loader Loader, retry RetryConfig, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store.Namespace("packages"),
		loader: loader,
		retry:  retry.normalize(),
		logger: logger,
		loaded: make(chan struct{}),
	}
}

// Start launches the initial background load. It is safe to call more than once.
func (c *Cache) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go func() {
			_ = c.Reload(ctx)
			close(c.loaded)
		}()
	})
}

// AwaitLoaded blocks until the first load has finished. It returns the load
// error while no table has been loaded yet; a later successful refresh
// clears it.
func (c *Cache) AwaitLoaded(ctx context.Context) error {
	select {
	case <-c.loaded:
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lookup returns the UID of a package from the current table.
func (c *Cache) Lookup(ctx context.Context, name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return 0, false
	}
	return c.current.GetInt(ctx, name)
}

// Reload fetches a fresh snapshot with retries and replaces the cached table.
func (c *Cache) Reload(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval
	policy.MaxElapsedTime = 0

	var snapshot map[string]int
	operation := func() error {
		var err error
		snapshot, err = c.loader.Load(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("package list load failed, retrying", "error", err, "wait", wait)
	}
	var b backoff.BackOff = policy
	if c.retry.MaxRetries > 0 {
		b = backoff.WithMaxRetries(policy, c.retry.MaxRetries)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		err = fmt.Errorf("load package list: %w", err)
		c.mu.Lock()
		if c.current == nil {
			c.loadErr = err
		}
		c.mu.Unlock()
		return err
	}

	c.generation++
	next := c.store.Namespace("gen-" + strconv.FormatUint(c.generation, 10))
	for name, uid := range snapshot {
		if err := next.Set(ctx, name, uid, cache.NoExpiration); err != nil {
			clearStore(ctx, next)
			return err
		}
	}

	c.mu.Lock()
	previous := c.current
	c.current = next
	c.loadErr = nil
	c.mu.Unlock()

	// Lookups hold the read lock, so none still reads the previous table.
	if previous != nil {
		clearStore(ctx, previous)
	}
	c.logger.Debug("package list loaded", "packages", len(snapshot), "generation", c.generation)
	return nil
}

func clearStore(ctx context.Context, store cache.Store) {
	for _, key := range store.Keys(ctx) {
		store.Delete(ctx, key)
	}
}

// Name implements job.Runnable.
func (c *Cache) Name() string { return "packages.refresh" }

// Run implements job.Runnable.
func (c *Cache) Run(ctx context.Context) error { return c.Reload(ctx) }
