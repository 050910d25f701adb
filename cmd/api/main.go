// Command api runs the FlowTune abuse-prevention gateway: layered rate
// limiting, input screening, and security-event monitoring in front of
// the application routes.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"flowtune/internal/config"
	httphandler "flowtune/internal/handler/http"
	"flowtune/internal/handler/http/auth"
	"flowtune/internal/handler/http/middleware"
	"flowtune/internal/handler/http/requestid"
	"flowtune/internal/handler/http/respond"
	"flowtune/internal/observability/logging"
	"flowtune/internal/observability/tracing"
	"flowtune/pkg/ratelimit"
	"flowtune/pkg/security/monitor"
	"flowtune/pkg/security/screener"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("invalid server configuration", slog.Any("error", err))
		os.Exit(1)
	}

	securityCfg, err := config.LoadSecurityConfig(serverCfg.SecurityConfigPath)
	if err != nil {
		logger.Error("invalid security configuration", slog.Any("error", err))
		os.Exit(1)
	}

	components, err := buildComponents(serverCfg, securityCfg, logger)
	if err != nil {
		logger.Error("failed to build server components", slog.Any("error", err))
		os.Exit(1)
	}

	if err := runServer(serverCfg, components, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

// serverComponents holds everything the route table needs.
type serverComponents struct {
	limiters  *ratelimit.Registry
	monitor   *monitor.Monitor
	verifier  *auth.Verifier
	ips       middleware.IPExtractor
	upload    screener.UploadPolicy
	metrics   *httphandler.HTTPMetrics
	rlMetrics *ratelimit.PrometheusMetrics
	monMetric *monitor.PrometheusMetrics
	admin     *httphandler.SecurityAdminHandler
}

func buildComponents(serverCfg config.ServerConfig, securityCfg *config.SecurityConfig, logger *slog.Logger) (*serverComponents, error) {
	verifier, err := auth.NewVerifier([]byte(serverCfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	ips, err := buildIPExtractor(securityCfg.TrustedProxies, logger)
	if err != nil {
		return nil, err
	}

	monMetrics := monitor.NewPrometheusMetrics()
	mon := monitor.NewMonitor(securityCfg.MonitorConfig(), nil, logger, monMetrics)

	rlMetrics := ratelimit.NewPrometheusMetrics()
	limiters, err := buildLimiters(securityCfg, ips, rlMetrics, logger)
	if err != nil {
		return nil, err
	}

	return &serverComponents{
		limiters: limiters,
		monitor:  mon,
		verifier: verifier,
		ips:      ips,
		upload: screener.UploadPolicy{
			MaxFileSize:      securityCfg.FileUpload.MaxFileSize,
			AllowedMIMETypes: securityCfg.FileUpload.AllowedMIMETypes,
		},
		metrics:   httphandler.NewHTTPMetrics(),
		rlMetrics: rlMetrics,
		monMetric: monMetrics,
		admin:     httphandler.NewSecurityAdminHandler(mon, serverCfg.AdminToken, logger),
	}, nil
}

// buildIPExtractor returns the trusted-proxy extractor when proxy CIDRs
// are configured, otherwise the plain RemoteAddr extractor. Forwarding
// headers are only honored from peers inside the configured ranges.
func buildIPExtractor(trustedProxies []string, logger *slog.Logger) (middleware.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return &middleware.RemoteAddrExtractor{}, nil
	}
	proxyCfg, err := middleware.NewTrustedProxyConfig(trustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxy config: %w", err)
	}
	logger.Info("trusted proxy forwarding enabled",
		slog.Int("cidr_count", len(trustedProxies)))
	return middleware.NewTrustedProxyExtractor(*proxyCfg), nil
}

// buildLimiters constructs one ScopedLimiter per configured scope, each
// with its own counter store and circuit breaker, and registers them all.
func buildLimiters(securityCfg *config.SecurityConfig, ips middleware.IPExtractor, metrics *ratelimit.PrometheusMetrics, logger *slog.Logger) (*ratelimit.Registry, error) {
	ipKey := func(r *http.Request) (string, error) {
		return ips.ExtractIP(r)
	}
	// The user scope keys on the authenticated subject; anonymous
	// requests share the client IP bucket instead.
	userKey := func(r *http.Request) (string, error) {
		if id, ok := auth.FromContext(r.Context()); ok {
			return "user:" + id.UserID, nil
		}
		return ips.ExtractIP(r)
	}

	limiters := make([]*ratelimit.ScopedLimiter, 0, len(securityCfg.RateLimits))
	for name, scopeCfg := range securityCfg.RateLimits {
		keyFunc := ipKey
		if scopeCfg.Key == config.KeyUser {
			keyFunc = userKey
		}

		failMode := ratelimit.FailOpen
		if scopeCfg.FailMode == config.FailModeClosed {
			failMode = ratelimit.FailClosed
		}

		var algo ratelimit.Algorithm
		if scopeCfg.Algorithm == config.AlgorithmTokenBucket {
			algo = ratelimit.NewTokenBucket(0, nil)
		} else {
			algo = ratelimit.NewFixedWindow(nil, nil)
		}

		breaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			Scope:   name,
			Metrics: metrics,
		})

		policy := ratelimit.ScopePolicy{
			Name:      name,
			Window:    scopeCfg.Window.Std(),
			Max:       scopeCfg.Max,
			KeyFunc:   keyFunc,
			Message:   scopeCfg.Message,
			ErrorCode: errorCodeFor(name),
			FailMode:  failMode,
		}
		limiters = append(limiters, ratelimit.NewScopedLimiter(policy, algo, breaker, metrics, nil))

		logger.Info("rate limit scope registered",
			slog.String("scope", name),
			slog.Duration("window", policy.Window),
			slog.Int("max", policy.Max),
			slog.String("key", scopeCfg.Key),
			slog.String("fail_mode", failMode.String()),
		)
	}

	return ratelimit.NewRegistry(limiters...)
}

// errorCodeFor maps a scope name to its rejection code, e.g.
// "ai_generation" to "AI_GENERATION_RATE_LIMIT_EXCEEDED".
func errorCodeFor(scope string) string {
	return strings.ToUpper(scope) + "_RATE_LIMIT_EXCEEDED"
}

func setupRoutes(serverCfg config.ServerConfig, c *serverComponents, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	scoped := func(scope string) func(http.Handler) http.Handler {
		return middleware.ScopeLimit(c.limiters.MustGet(scope), c.monitor, logger)
	}

	// Application routes. The gateway owns admission; the stubbed handlers
	// are where the application services mount.
	mux.Handle("/api/auth/login", middleware.Stack(scoped(ratelimit.ScopeAuth))(placeholderHandler()))
	mux.Handle("/api/ai/generate", middleware.Stack(scoped(ratelimit.ScopeAI), scoped(ratelimit.ScopeUser))(placeholderHandler()))
	mux.Handle("/api/upload", middleware.Stack(scoped(ratelimit.ScopeUpload), scoped(ratelimit.ScopeUser))(uploadHandler(c)))
	mux.Handle("/api/blockchain/", middleware.Stack(scoped(ratelimit.ScopeBlockchain), scoped(ratelimit.ScopeUser))(placeholderHandler()))
	mux.Handle("/api/playlists", middleware.Stack(scoped(ratelimit.ScopePlaylist))(placeholderHandler()))
	mux.Handle("/api/playlists/", middleware.Stack(scoped(ratelimit.ScopePlaylist))(placeholderHandler()))
	mux.Handle("/api/tracks", placeholderHandler())
	mux.Handle("/api/tracks/", placeholderHandler())
	mux.Handle("/api/users/", middleware.Stack(scoped(ratelimit.ScopeUser))(placeholderHandler()))

	// Operational surface. Health and metrics sit outside the general
	// limiter so probes and scrapes never get throttled.
	mux.Handle("/healthz", &httphandler.HealthHandler{Version: version})
	mux.Handle("/livez", &httphandler.LiveHandler{})
	mux.Handle("/metrics", httphandler.MetricsHandler(
		c.metrics.Registry(),
		c.rlMetrics.Registry(),
		c.monMetric.Registry(),
	))
	mux.HandleFunc("/internal/security/status", c.admin.Status)
	mux.HandleFunc("/internal/security/suspicious-ips/clear", c.admin.ClearSuspiciousIPs)
	mux.HandleFunc("/internal/security/alert-counts/reset", c.admin.ResetAlertCounts)

	apiChain := middleware.Stack(
		scoped(ratelimit.ScopeGeneral),
		middleware.InputScreening(middleware.ScreenerConfig{
			Monitor: c.monitor,
			IPs:     c.ips,
			Logger:  logger,
		}),
		middleware.SuspicionTag(c.monitor, c.ips, logger),
	)
	root := http.NewServeMux()
	root.Handle("/api/", apiChain(mux))
	root.Handle("/", mux)

	return applyMiddleware(serverCfg, c.metrics, root, logger)
}

// applyMiddleware wraps the router in the ambient chain, outermost first.
func applyMiddleware(serverCfg config.ServerConfig, metrics *httphandler.HTTPMetrics, handler http.Handler, logger *slog.Logger) http.Handler {
	handler = middleware.SecurityHeaders(nil)(handler)
	handler = httphandler.InputValidation()(handler)
	handler = httphandler.Timeout(serverCfg.RequestTimeout)(handler)
	handler = metrics.Middleware(handler)
	handler = httphandler.Logging(logger)(handler)
	if serverCfg.TracingEnabled {
		handler = tracing.Middleware(handler)
	}
	handler = requestid.Middleware(handler)
	handler = httphandler.Recover(logger)(handler)
	return handler
}

// placeholderHandler stands in for application routes that mount behind
// the gateway.
func placeholderHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "This route is not served by the gateway.")
	})
}

// uploadHandler enforces the upload policy (size and MIME type) before
// the application upload route.
func uploadHandler(c *serverComponents) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respond.Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST.")
			return
		}
		if err := c.upload.Check(r.Header.Get("Content-Type"), r.ContentLength); err != nil {
			ip, _ := c.ips.ExtractIP(r)
			c.monitor.Record(monitor.EventSuspiciousFileUpload, map[string]any{
				"content_type": r.Header.Get("Content-Type"),
				"size":         r.ContentLength,
			}, monitor.RequestContext{
				IP:        ip,
				UserAgent: r.UserAgent(),
				Path:      r.URL.Path,
				Method:    r.Method,
			})
			respond.Fail(w, http.StatusBadRequest, "INVALID_UPLOAD", "File type or size not allowed.")
			return
		}
		respond.Fail(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "This route is not served by the gateway.")
	})
}

func runServer(serverCfg config.ServerConfig, c *serverComponents, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := auth.Middleware(c.verifier, logger)(setupRoutes(serverCfg, c, logger))

	server := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sweeper := httphandler.NewSweeper(c.limiters, c.monitor, serverCfg.SweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			slog.String("addr", serverCfg.Addr),
			slog.String("version", version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
