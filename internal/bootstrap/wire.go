package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/identity"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/otp"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/application/quiz"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/audit"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/config"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/email"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/redis"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/infrastructure/security"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/logger"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/metrics"
	http_handlers "github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/handlers"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/middleware"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/response"
	"github.com/baechuer/edu-quiz/services/identity-service/internal/transport/http/router"
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

	NewDB   func(ctx context.Context, dsn string) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	// NewMailer builds the outbound mailer for cfg.MailDriver. The returned
	// closer may be nil.
	NewMailer func(cfg *config.Config) (identity.Mailer, func() error, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

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
	lg := logger.Logger
	ctx := context.Background()

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) security
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// 2) stores
	var (
		accounts identity.AccountStore
		quizzes  quiz.Store
		sqlDB    *sql.DB
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		sqlDB, err = deps.NewDB(ctx, cfg.DBAddr)
		if err != nil {
			return fail(domain.ErrDBUnavailable(err))
		}
		cleanupFns = append(cleanupFns, func() { _ = sqlDB.Close() })

		if cfg.RunMigrations {
			if err := deps.Migrate(ctx, sqlDB); err != nil {
				return fail(err)
			}
		}
		repo := postgres.NewAccountRepo(sqlDB)
		if err := postgres.SeedAdmin(ctx, repo, hasher, cfg.SeedAdminEmail, cfg.SeedAdminPassword, lg); err != nil {
			return fail(err)
		}
		accounts = repo
		quizzes = postgres.NewQuizRepo(sqlDB)
		lg.Info().Msg("postgres store ready")

	default:
		repo := memory.NewAccountRepo()
		memory.SeedAdmin(ctx, repo, hasher, cfg.SeedAdminEmail, cfg.SeedAdminPassword, lg)
		accounts = repo
		quizzes = memory.NewQuizRepo()
		lg.Warn().Msg("using in-memory store; data is lost on restart")
	}

	// 3) redis (best-effort, only for rate limiting)
	var redisCli RedisClient
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pingCtx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; rate limiting disabled")
			_ = c.Close()
		} else {
			lg.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) mailer
	mailer, closeMailer, err := deps.NewMailer(cfg)
	if err != nil {
		return fail(err)
	}
	if closeMailer != nil {
		cleanupFns = append(cleanupFns, func() { _ = closeMailer() })
	}
	mailer = instrumentedMailer{driver: cfg.MailDriver, next: mailer}

	// 5) services
	auditLog := audit.New(lg)
	recordAudit := auditLog.Func()
	auditFn := func(action string, fields map[string]string) {
		recordAudit(action, fields)
		metrics.RecordAudit(action, fields)
	}

	idSvc := identity.NewService(accounts, hasher, mailer, otp.NewEngine(cfg.OTPTTL), identity.Config{
		DispatchTimeout: cfg.DispatchTimeout,
	}).WithAudit(auditFn)
	authn := identity.NewAuthenticator(accounts, hasher, signer, cfg.SessionTTL)
	guard := identity.NewGuard(accounts).WithObserver(metrics.RecordAuthz)
	quizSvc := quiz.NewService(quizzes).WithAudit(auditFn)

	// 6) handlers + middleware
	authH := http_handlers.NewAuthHandler(idSvc, authn, auditLog)
	quizH := http_handlers.NewQuizHandler(quizSvc)

	probes := map[string]http_handlers.Pinger{}
	if sqlDB != nil {
		probes["postgres"] = http_handlers.DBPinger{DB: sqlDB}
	}
	if redisCli != nil {
		probes["redis"] = redisCli
	}
	healthH := http_handlers.NewHealthHandler(probes)

	denyOpts := middleware.AuthorizeOptions{
		MaskReasons: cfg.MaskDenyReasons,
		OnDeny:      auditLog.AccessDenied,
	}
	authorize := func(allowed ...domain.Role) func(http.Handler) http.Handler {
		return middleware.Authorize(guard, denyOpts, response.WriteError, allowed...)
	}

	// rate limit (fail-open)
	var limiter middleware.RateLimiter
	if rc, ok := redisCli.(*redis.Client); ok {
		limiter = redis.NewFixedWindowLimiter(rc)
	}
	rl := func(scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
		if limiter == nil {
			return nil
		}
		return middleware.RateLimit(limiter, middleware.FixedWindowConfig{
			Scope:  scope,
			Limit:  limit,
			Window: window,
		}, response.WriteError)
	}

	// 7) router
	mux, err := deps.NewRouter(router.Deps{
		Health:  healthH,
		Auth:    authH,
		Quiz:    quizH,
		Metrics: metrics.Handler(),
		Global: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.AccessLog,
			middleware.Metrics,
		},

		AuthMW:    middleware.Auth(signer, response.WriteError),
		AnyRoleMW: authorize(domain.AllRoles()...),
		AdminMW:   authorize(domain.RoleAdmin),
		TeacherMW: authorize(domain.RoleTeacher),

		AuthRateMW: rl("auth", cfg.RLAuthLimit, cfg.RLAuthWindow),
		OTPRateMW:  rl("otp", cfg.RLOTPLimit, cfg.RLOTPWindow),
	})
	if err != nil {
		return fail(err)
	}

	// 8) server
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

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(ctx context.Context, dsn string) (*sql.DB, error) {
			return config.NewDB(ctx, dsn, logger.Logger)
		},
		Migrate: postgres.RunMigrations,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewMailer: func(cfg *config.Config) (identity.Mailer, func() error, error) {
			return newMailer(cfg, logger.Logger)
		},
		NewRouter: router.New,
	}
}

func newMailer(cfg *config.Config, lg zerolog.Logger) (identity.Mailer, func() error, error) {
	switch cfg.MailDriver {
	case config.MailSMTP:
		return email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.DispatchTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg), nil, nil

	case config.MailRabbitMQ:
		m, err := rabbitmq_pub.NewMailer(cfg.RabbitURL, cfg.RabbitExchange, lg)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil

	case config.MailLog:
		return memory.NewLogMailer(lg), nil, nil

	default:
		return nil, nil, errors.New("bootstrap: unknown mail driver " + cfg.MailDriver)
	}
}

// instrumentedMailer counts every send attempt per driver.
type instrumentedMailer struct {
	driver string
	next   identity.Mailer
}

func (m instrumentedMailer) Send(ctx context.Context, msg domain.Email) error {
	err := m.next.Send(ctx, msg)
	metrics.RecordMailDispatch(m.driver, err)
	return err
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
