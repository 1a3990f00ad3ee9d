package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

type sessionBackend struct {
	store scs.Store
	close func() error
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after in-flight requests are done
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// csrfSecret decodes AUTH_SESSION_SECRET, or generates a secret that lives
// as long as the process.
func csrfSecret(cfg config.Auth) ([]byte, error) {
	if !cfg.CSRFEnabled {
		return nil, nil
	}
	if cfg.SessionSecret != "" {
		secret, err := hex.DecodeString(cfg.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(cfg.SessionSecret)
		}
		return secret, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library v%s", version)

	app, err := NewApp(cfg, true)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	backend, err := app.sessionStore(backgroundCtx)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	sessionManager := auth.NewSessionManager(backend.store, cfg.Auth)

	tokens := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry)
	if tokens == nil {
		log.Printf("Bearer tokens disabled (set AUTH_TOKEN_SECRET to enable)")
	}

	secret, err := csrfSecret(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}

	rateLimiter := auth.NewRateLimiter(cfg.Auth)

	if hasUsers, _ := app.Auth.HasUsers(); !hasUsers {
		log.Printf("No users found. Run `library create-admin` to create an administrator account.")
	}

	var queue scheduler.Enqueuer
	if app.Tasks != nil {
		queue = app.Tasks
		go app.Tasks.Start(backgroundCtx)
	}

	maintenance := scheduler.NewMaintenanceScheduler(cfg.DelaySweep, cfg.Audit, scheduler.Jobs{
		Delays: app.Library,
		Audit:  app.Audit,
	}, queue)
	if err := maintenance.Start(backgroundCtx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Library:        app.Library,
		Database:       app.DB,
		SessionManager: sessionManager,
		AuthMiddleware: auth.NewMiddleware(app.Auth, sessionManager, tokens),
		Tokens:         tokens,
		RateLimiter:    rateLimiter,
		CSRFSecret:     secret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		if app.Tasks != nil {
			app.Tasks.Stop(ctx)
		}
		cancelBackground()
		rateLimiter.Stop()
		if backend.close != nil {
			if err := backend.close(); err != nil {
				log.Printf("Error closing session store: %v", err)
			}
		}
	}

	Serve(router, cfg, onShutdown)
}
