// Package container wires the Theglocal services together and owns their
// shutdown order.
package container

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/auth"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/cache"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/discovery"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/media"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/permissions"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/robots"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/storage"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/uploads"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
type Container struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient
	store  storage.ObjectStore

	// Services
	users         repository.UserRepository
	communities   repository.CommunityRepository
	guard         *permissions.Guard
	auth          *auth.Service
	notifications *notifications.Service
	sweeper       *notifications.Sweeper
	uploads       *uploads.Service
	articles      *discovery.Fetcher

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty container.
// Infrastructure is registered with Set* and services are built by Wire.
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// Options carries the settings Wire needs from configuration
type Options struct {
	JWTSecret        []byte
	SuperAdminEmails []string
	Google           *auth.GoogleOAuth

	MaxChunkBytes  int
	MaxFileBytes   int
	MediaURL       func(key string) string
	SweepInterval  time.Duration
	RobotsCacheTTL time.Duration
	HTTPClient     *http.Client
}

// Wire builds every service from the registered database and object store
func (c *Container) Wire(opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database (DB)")
	}
	if c.store == nil {
		missing = append(missing, "object store")
	}
	if len(opts.JWTSecret) == 0 {
		missing = append(missing, "JWT secret")
	}
	if len(missing) > 0 {
		return NewInitializationError("Cannot wire services", missing)
	}

	c.users = repository.NewUserRepository(c.db)
	c.communities = repository.NewCommunityRepository(c.db)
	c.guard = permissions.NewGuard(c.communities, permissions.NewSuperAdminPolicy(opts.SuperAdminEmails))
	c.auth = auth.NewService(c.users, opts.JWTSecret, opts.Google)

	notificationRepo := notifications.NewRepository(c.db)
	c.notifications = notifications.NewService(notificationRepo)
	c.sweeper = notifications.NewSweeper(notificationRepo, opts.SweepInterval)

	processor := media.NewProcessor(c.store, opts.MediaURL)
	c.uploads = uploads.NewService(c.store, processor, uploads.Options{
		MaxChunkBytes: opts.MaxChunkBytes,
		MaxFileBytes:  opts.MaxFileBytes,
	})

	robotsTTL := opts.RobotsCacheTTL
	if robotsTTL <= 0 {
		robotsTTL = robots.DefaultTTL
	}
	robotsCache, err := robots.NewCache(robots.DefaultCacheSize, robotsTTL)
	if err != nil {
		return err
	}
	c.articles = discovery.NewFetcher(robots.NewChecker(robotsCache, opts.HTTPClient), opts.HTTPClient)
	return nil
}

// ============================================================================
// CORE INFRASTRUCTURE SETTERS/GETTERS
// ============================================================================

// SetDB registers the database connection
func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggerLocked()
}

func (c *Container) loggerLocked() *zap.Logger {
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the Redis client. Nil leaves rate limiting failing open.
func (c *Container) SetCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis cache client
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetObjectStore registers the object store used for uploads and media
func (c *Container) SetObjectStore(store storage.ObjectStore) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
	return c
}

// ObjectStore returns the object store
func (c *Container) ObjectStore() storage.ObjectStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// ============================================================================
// SERVICE GETTERS
// ============================================================================

// Users returns the user repository
func (c *Container) Users() repository.UserRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// Communities returns the community repository
func (c *Container) Communities() repository.CommunityRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.communities
}

// Guard returns the permission guard
func (c *Container) Guard() *permissions.Guard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guard
}

// Auth returns the authentication service
func (c *Container) Auth() *auth.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Notifications returns the notification service
func (c *Container) Notifications() *notifications.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifications
}

// Sweeper returns the expiry sweeper. It is periodic only when
// SweepInterval is positive.
func (c *Container) Sweeper() *notifications.Sweeper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sweeper
}

// Uploads returns the chunked upload service
func (c *Container) Uploads() *uploads.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploads
}

// Articles returns the article fetcher
func (c *Container) Articles() *discovery.Fetcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.articles
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs every cleanup function, logging failures without stopping.
// The first error is returned.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			c.loggerLocked().Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	c.cleanupFuncs = c.cleanupFuncs[:0]
	return first
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that all required dependencies are registered.
// This should be called after Wire and before starting the server.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	missingDeps := []string{}
	if c.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if c.store == nil {
		missingDeps = append(missingDeps, "object store")
	}
	if c.auth == nil || c.notifications == nil || c.uploads == nil || c.guard == nil {
		missingDeps = append(missingDeps, "services (call Wire)")
	}
	if len(missingDeps) > 0 {
		return NewInitializationError("Missing required dependencies", missingDeps)
	}

	if c.cache == nil {
		c.loggerLocked().Warn("Redis cache not configured, rate limiting will fail open")
	}
	return nil
}
