package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/bookme/auth-service/internal/application/auth"
	"github.com/bookme/auth-service/internal/application/otp"
	"github.com/bookme/auth-service/internal/config"
	"github.com/bookme/auth-service/internal/infrastructure/db/postgres"
	"github.com/bookme/auth-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/bookme/auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/bookme/auth-service/internal/infrastructure/redis"
	"github.com/bookme/auth-service/internal/infrastructure/security"
	"github.com/bookme/auth-service/internal/logger"
	"github.com/bookme/auth-service/internal/metrics"
	http_handlers "github.com/bookme/auth-service/internal/transport/http/handlers"
	"github.com/bookme/auth-service/internal/transport/http/middleware"
	"github.com/bookme/auth-service/internal/transport/http/response"
	"github.com/bookme/auth-service/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(dsn string) (DBCloser, error)

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(rabbitURL string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type DBCloser interface {
	Close() error
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type Publisher interface{}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db
	db, err := deps.NewDB(cfg.DBAddr)
	if err != nil {
		return nil, nil, err
	}

	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	sqlDB, ok := db.(*sql.DB)
	if !ok {
		runCleanup(cleanupFns)
		return nil, nil, errors.New("bootstrap: NewDB did not return *sql.DB")
	}

	userRepo := postgres.NewUserRepo(sqlDB)
	tokenRepo := postgres.NewRefreshTokenRepo(sqlDB, cfg.RefreshTokenTTL)

	// 2) redis
	var redisCli RedisClient
	if deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := c.Ping(ctx); err != nil {
			if cfg.Env != "dev" {
				runCleanup(cleanupFns)
				return nil, nil, err
			}
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-memory OTP store")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// OTP codes live in Redis so they expire on their own; the in-memory
	// store is a dev fallback only.
	var secretStore otp.SecretStore
	if redisCli != nil {
		secretStore = redis.NewSecretStore(redisCli.(*redis.Client))
	} else {
		secretStore = memory.NewSecretStore()
	}
	otpMgr := otp.NewManager(secretStore, cfg.OTPLength, cfg.OTPTTL)

	// 3) publisher
	pub, err := deps.NewPublisher(cfg.RabbitURL)
	if err != nil {
		if cfg.Env == "dev" {
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
			pub = memory.NewNoopPublisher()
		} else {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}

	if c, ok := pub.(interface{ Close() error }); ok {
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
	}

	// 4) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewBcryptHasher(12)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// 5) service
	authSvc := auth.NewService(
		userRepo,
		hasher,
		signer,
		otpMgr,
		tokenRepo,
		pub.(auth.EventPublisher),
		auth.Config{
			AccessTTL: cfg.AccessTokenTTL,
		},
	)

	// flush fire-and-forget notifications before teardown
	cleanupFns = append(cleanupFns, authSvc.DrainNotifications)

	// 6) expired-token sweep
	sweepStop := make(chan struct{})
	go sweepLoop(authSvc, cfg.TokenSweepInterval, sweepStop)
	cleanupFns = append(cleanupFns, func() { close(sweepStop) })

	// 7) handlers + middleware
	authH := http_handlers.NewAuthHandler(authSvc)
	healthH := http_handlers.NewHealthHandler(sqlDB)

	authMW := middleware.Auth(signer, response.WriteError)

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health: healthH,
		Auth:   authH,
		AuthMW: authMW,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

func sweepLoop(svc *auth.Service, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := svc.SweepExpiredRefreshTokens(ctx)
			cancel()
			if err != nil {
				logger.Logger.Warn().Err(err).Msg("refresh token sweep failed")
				continue
			}
			if n > 0 {
				metrics.RecordTokensReaped(n)
				logger.Logger.Info().Int64("deleted", n).Msg("swept expired refresh tokens")
			}
		}
	}
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(dsn string) (DBCloser, error) {
			return config.NewDB(dsn)
		},
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url)
		},
		NewRouter: func(d router.Deps) (http.Handler, error) {
			return router.New(d)
		},
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
