package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/freightlink/internal/featureflags"
	"github.com/aryan0dhankhar/freightlink/internal/handler"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/events"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/freightlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/freightlink/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/freightlink/internal/repository"
	"github.com/aryan0dhankhar/freightlink/internal/search"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/security/audit"
	"github.com/aryan0dhankhar/freightlink/internal/security/auth"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/security/ratelimit"
	"github.com/aryan0dhankhar/freightlink/internal/service"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
	"github.com/aryan0dhankhar/freightlink/internal/worker"
	"github.com/aryan0dhankhar/freightlink/pkg/config"
	"github.com/aryan0dhankhar/freightlink/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting FreightLink server", slog.String("environment", cfg.Environment))
	for flag, on := range featureflags.Snapshot() {
		log.Info("feature flag", slog.String("flag", string(flag)), slog.Bool("enabled", on))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTELEndpoint, "freightlink", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Database and migrations
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:             cfg.DatabaseURL,
		ApplicationName: "freightlink-api",
		MaxOpenConns:    cfg.DatabaseMaxConns,
		MaxIdleConns:    cfg.DatabaseMaxIdle,
		ConnMaxLifetime: cfg.DatabaseConnMaxAge,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db, log); err != nil {
			log.Error("failed to migrate database", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 5. Redis is optional: without it invitation acceptance relies on the
	// database alone.
	var locker service.Locker
	readiness := map[string]handler.Pinger{
		"postgres": handler.PingerFunc(pool.Health),
		"redis":    nil,
	}
	redisClient, err := redis.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, invitation locks disabled", slog.String("error", err.Error()))
	} else {
		defer redisClient.Close()
		locker = redisClient
		readiness["redis"] = redisClient
	}

	// 6. Event publisher
	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer publisher.Close()

	// 7. Initialize repositories
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewPostgresUserRepository(db, log)
	profileRepo := repository.NewPostgresProfileRepository(db)
	companyRepo := repository.NewPostgresCompanyRepository(db, log)
	membershipRepo := repository.NewPostgresMembershipRepository(db)
	invitationRepo := repository.NewPostgresInvitationRepository(db)
	tourRepo := repository.NewPostgresTourRepository(db, log)
	employeeRepo := repository.NewPostgresEmployeeRepository(db)
	vehicleRepo := repository.NewPostgresVehicleRepository(db)
	preferencesRepo := repository.NewPostgresPreferencesRepository(db)
	prequalRepo := repository.NewPostgresPrequalificationRepository(db)
	visibilityRepo := repository.NewPostgresVisibilityRepository(db)
	searchRepo := repository.NewPostgresSearchRepository(db, log, cfg.SearchMaxResults)
	tenancyStore := repository.NewTenancyStore(db)

	// 8. Tenancy resolver. Lookup failures are expected noise in production
	// and drop to debug there.
	errLevel := slog.LevelWarn
	if cfg.Production() {
		errLevel = slog.LevelDebug
	}
	resolver := tenancy.NewResolver(tenancyStore, log,
		tenancy.WithCacheTTL(cfg.CompanyCacheTTL),
		tenancy.WithMinInterval(cfg.CompanyFetchMinInterval),
		tenancy.WithErrorLogLevel(errLevel),
	)

	// 9. Background search view refresher
	refresher := worker.NewSearchViewRefresher(searchRepo, log, cfg.SearchViewRefreshInterval)
	go refresher.Start(ctx)

	// 10. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "freightlink", cfg.JWTTTL)
	authz := security.NewAuthorizationService(log)
	access := security.NewAuthorizationServiceV2(log)
	guard := service.NewTenantGuard(resolver, authz)

	authService := service.NewAuthService(userRepo, profileRepo, txManager, tokenManager, log)
	profileService := service.NewProfileService(profileRepo, log)
	companyService := service.NewCompanyService(companyRepo, membershipRepo, txManager, resolver, publisher, log)
	invitationService := service.NewInvitationService(invitationRepo, membershipRepo, txManager, locker, resolver, publisher, log,
		service.WithInvitationTTL(cfg.InvitationTTL),
		service.WithLockTTL(cfg.InvitationLockTTL),
	)
	tourService := service.NewTourService(tourRepo, companyRepo, access, publisher, log)
	fleetService := service.NewFleetService(employeeRepo, vehicleRepo, access, refresher, log)
	preferencesService := service.NewPreferencesService(preferencesRepo, prequalRepo, refresher, log)
	publicProfileService := service.NewPublicProfileService(companyRepo, searchRepo, visibilityRepo, log)

	breaker := circuitbreaker.New("subcontractor-search", cfg.SearchBreakerFailures, 2, cfg.SearchBreakerTimeout,
		circuitbreaker.WithStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}),
	)
	searcher := search.Guarded(searchRepo, breaker)

	// 11. Security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute)
	defer rateLimiter.Stop()
	auditLogger := audit.NewLogger(log)

	// 12. Handlers and routes
	mux := newRouter(routes{
		health:      handler.NewHealthHandler(readiness, log),
		auth:        handler.NewAuthHandler(authService, log),
		me:          handler.NewMeHandler(profileService, resolver, log),
		tenancy:     handler.NewTenancyHandler(tenancyStore, log),
		company:     handler.NewCompanyHandler(companyService, guard, log),
		invitations: handler.NewInvitationHandler(invitationService, guard, log),
		accept:      handler.NewAcceptInvitationHandler(invitationService, tokenManager, auditLogger, log),
		acceptPath:  cfg.AcceptInvitationPath,
		tours:       handler.NewTourHandler(tourService, guard, log),
		fleet:       handler.NewFleetHandler(fleetService, guard, log),
		preferences: handler.NewPreferencesHandler(preferencesService, publicProfileService, guard, log),
		search:      handler.NewSearchHandler(searcher, preferencesService, guard, log),
		liveSearch:  handler.NewLiveSearchHandler(searcher, preferencesService, guard, cfg.SearchDebounce, cfg.CORSAllowedOrigins, log),
	})

	// Chain middleware: request ID -> CORS -> input checks -> JWT -> rate limit -> audit -> metrics
	rootHandler := middleware.RequestID(
		withCORS(cfg.CORSAllowedOrigins, cfg.AcceptInvitationPath,
			middleware.RejectSuspiciousInput(log)(
				middleware.RequireJSONBody(log)(
					middleware.JWTMiddleware(tokenManager, log)(
						middleware.RateLimitMiddleware(rateLimiter, log)(
							middleware.AuditMiddleware(auditLogger)(
								metrics.HTTPMetricsMiddleware(withAccessLog(mux, log)),
							),
						),
					),
				),
			),
		),
	)

	// 13. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "freightlink"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit_per_minute", cfg.RateLimitPerMinute),
		slog.Duration("company_cache_ttl", cfg.CompanyCacheTTL),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop the refresher
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
