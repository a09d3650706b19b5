// Package kernel assembles the application from a Config: storage, the
// session and queue backends, the services and the HTTP handler. Nothing
// here is global; every collaborator is built once and passed down.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/app/controllers"
	"github.com/shashiranjanraj/carby/app/jobs"
	"github.com/shashiranjanraj/carby/app/repositories"
	"github.com/shashiranjanraj/carby/app/routes"
	"github.com/shashiranjanraj/carby/app/services"
	"github.com/shashiranjanraj/carby/config"
	"github.com/shashiranjanraj/carby/pkg/auth"
	"github.com/shashiranjanraj/carby/pkg/cache"
	"github.com/shashiranjanraj/carby/pkg/crypt"
	"github.com/shashiranjanraj/carby/pkg/database"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/mail"
	"github.com/shashiranjanraj/carby/pkg/metrics"
	"github.com/shashiranjanraj/carby/pkg/middleware"
	"github.com/shashiranjanraj/carby/pkg/queue"
	"github.com/shashiranjanraj/carby/pkg/reqid"
	"github.com/shashiranjanraj/carby/pkg/response"
	"github.com/shashiranjanraj/carby/pkg/router"
	"github.com/shashiranjanraj/carby/pkg/schedule"
	"github.com/shashiranjanraj/carby/pkg/session"
)

const memoryQueueSize = 256

// Kernel owns every long-lived collaborator of a running app.
type Kernel struct {
	Config *config.Config

	DB        *gorm.DB
	Redis     *redis.Client // nil unless a redis driver is configured
	Store     cache.Store
	Sessions  *session.Manager
	Queue     *queue.Manager
	Mailer    mail.Sender
	Scheduler *schedule.Scheduler
	Router    *router.Router

	Identity *services.IdentityService
	Catalog  *services.CatalogService
	Orders   *services.OrderWorkflow
	Gate     *services.AuthGate
	Reset    *services.PasswordReset

	loginLimiter *middleware.Limiter
	renderer     response.Renderer
	ownsDB       bool
}

// Option overrides a collaborator New would otherwise build from Config.
type Option func(*Kernel)

// WithDB uses db instead of connecting with Config's DSN.
func WithDB(db *gorm.DB) Option { return func(k *Kernel) { k.DB = db } }

// WithMailer replaces the SMTP mailer.
func WithMailer(m mail.Sender) Option { return func(k *Kernel) { k.Mailer = m } }

// WithStore replaces the session/catalog cache store.
func WithStore(s cache.Store) Option { return func(k *Kernel) { k.Store = s } }

// WithRenderer replaces the default JSON page renderer.
func WithRenderer(r response.Renderer) Option { return func(k *Kernel) { k.renderer = r } }

// New builds a Kernel. Call Close when done.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{Config: cfg}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.connect(ctx); err != nil {
		k.Close()
		return nil, err
	}

	box, err := crypt.New(cfg.AppKey)
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("kernel: app key: %w", err)
	}

	sessOpts := session.DefaultOptions()
	sessOpts.TTL = cfg.SessionTTL
	sessOpts.RememberTTL = cfg.SessionRememberTTL
	sessOpts.Secure = cfg.IsProduction()
	k.Sessions = session.NewManager(k.Store, box, sessOpts)

	if k.Mailer == nil {
		k.Mailer = mail.New(cfg.Mail)
	}
	if k.renderer == nil {
		k.renderer = response.JSONRenderer{}
	}

	k.buildQueue()
	k.buildServices()
	k.buildSchedule()
	k.buildRouter()

	return k, nil
}

func (k *Kernel) connect(ctx context.Context) error {
	if k.DB == nil {
		db, err := database.Connect(k.Config)
		if err != nil {
			return err
		}
		k.DB = db
		k.ownsDB = true
	}

	needRedis := k.Config.QueueDriver == "redis" || (k.Store == nil && k.Config.SessionDriver == "redis")
	if needRedis {
		rdb, err := cache.Connect(ctx, k.Config.RedisAddr, k.Config.RedisPassword)
		if err != nil {
			return err
		}
		k.Redis = rdb
	}

	if k.Store == nil {
		if k.Config.SessionDriver == "redis" {
			k.Store = cache.NewRedis(k.Redis, "carby:")
		} else {
			k.Store = cache.NewMemory()
		}
	}
	return nil
}

func (k *Kernel) buildQueue() {
	var driver queue.Driver
	if k.Config.QueueDriver == "redis" {
		driver = queue.NewRedisDriver(k.Redis)
	} else {
		driver = queue.NewMemoryDriver(memoryQueueSize)
	}
	k.Queue = queue.New(driver,
		queue.WithMaxRetry(k.Config.QueueMaxRetry),
		queue.WithJobTimeout(k.Config.Mail.Timeout+5*time.Second),
		queue.WithDB(k.DB),
	)
}

func (k *Kernel) buildServices() {
	users := repositories.NewUserRepository(k.DB)
	cars := repositories.NewCarRepository(k.DB, k.Store)
	configs := repositories.NewConfigurationRepository(k.DB)
	orders := repositories.NewOrderRepository(k.DB)

	jobs.Register(k.Queue, jobs.Deps{
		Orders:   orders,
		Notifier: services.NewMailNotifier(k.Mailer),
		Mailer:   k.Mailer,
	})

	k.Identity = services.NewIdentityService(users)
	k.Catalog = services.NewCatalogService(cars, configs)
	k.Orders = services.NewOrderWorkflow(users, cars, configs, orders, jobs.NewQueuedNotifier(k.Queue))
	k.Gate = services.NewAuthGate(k.Identity)
	k.Reset = services.NewPasswordReset(users, auth.NewResetTokens(k.Config.AppKey), jobs.NewQueuedResetSender(k.Queue))
}

func (k *Kernel) buildSchedule() {
	k.loginLimiter = middleware.NewLimiter(k.Config.LoginRateLimit, time.Minute)
	k.Scheduler = schedule.New()

	ttl := k.Config.ConfigurationTTL
	k.Scheduler.Hourly().Name("prune-configurations").WithoutOverlapping().Run(func(ctx context.Context) error {
		n, err := k.Catalog.PruneOrphanedConfigurations(ctx, ttl)
		if err != nil {
			return err
		}
		logger.Info("orphaned configurations pruned", "count", n)
		return nil
	})

	k.Scheduler.EveryMinute().Name("sweep-login-limiter").Run(func(context.Context) error {
		k.loginLimiter.Sweep()
		return nil
	})

	if mem, ok := k.Store.(*cache.Memory); ok {
		k.Scheduler.EveryMinute().Name("sweep-memory-cache").Run(func(context.Context) error {
			mem.Sweep()
			return nil
		})
	}
}

// buildRouter installs the global middleware (outermost first) and the
// page routes.
func (k *Kernel) buildRouter() {
	r := router.New()
	if k.Config.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		metrics.Middleware(),
		reqid.Middleware(),
		middleware.Logger,
		response.WithRenderer(k.renderer),
		middleware.Recovery,
		k.Sessions.Middleware(),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		_ = response.FromCtx(req.Context()).Render(w, http.StatusNotFound, response.Page{Name: "not_found"})
	})

	routes.Web(r, routes.Handlers{
		Home:         controllers.NewHomeController(k.Gate),
		Auth:         controllers.NewAuthController(k.Identity, k.Gate, k.Reset),
		Catalog:      controllers.NewCatalogController(k.Catalog),
		Order:        controllers.NewOrderController(k.Orders),
		Gate:         k.Gate,
		LoginLimiter: k.loginLimiter,
	})

	k.Router = r
}

// Handler returns the root HTTP handler.
func (k *Kernel) Handler() http.Handler { return k.Router.Handler() }

// StartBackground runs the scheduler and, for the in-memory queue driver,
// the queue workers inside this process. Both stop when ctx is cancelled;
// call Wait afterwards to drain them.
func (k *Kernel) StartBackground(ctx context.Context) {
	if k.Config.QueueDriver == "memory" {
		k.Queue.Start(ctx, k.Config.QueueWorkers)
	}
	k.Scheduler.Start(ctx)
}

// Wait blocks until background goroutines started by StartBackground or
// Queue.Start have returned.
func (k *Kernel) Wait() {
	k.Queue.Wait()
	k.Scheduler.Wait()
}

// Close releases connections the kernel opened itself.
func (k *Kernel) Close() error {
	var errs []error
	if k.Redis != nil {
		errs = append(errs, k.Redis.Close())
	}
	if k.ownsDB && k.DB != nil {
		if sqlDB, err := k.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
