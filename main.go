package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/authenticator"
	"github.com/blogem/social-auth-dropbox/controllers"
	"github.com/blogem/social-auth-dropbox/database"
	authmiddleware "github.com/blogem/social-auth-dropbox/middleware"
	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/repositories"
	"github.com/blogem/social-auth-dropbox/services"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load the env vars: %v", err)
	}

	logger, err := newLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	dbPath := getenv("DB_PATH", "social_auth_dropbox.db")
	if err := database.InitializeDatabase(dbPath, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.CloseDB()

	repos := repositories.NewRepositories(database.GetDB())

	site := services.SiteSettings{
		BaseURL:  os.Getenv("BASE_URL"),
		ProxyURL: os.Getenv("HTTP_PROXY_URL"),
	}
	srvs := services.NewServices(repos, site, authenticator.NewDropboxFactory(logger), logger)

	if err := seedSettings(srvs.Settings); err != nil {
		logger.Fatal("Failed to seed settings", zap.Error(err))
	}

	ctrl := controllers.NewControllers(srvs, logger)

	adminEmails := authmiddleware.ParseAdminEmails(os.Getenv("ADMIN_EMAILS"))
	if len(adminEmails) == 0 {
		logger.Warn("ADMIN_EMAILS is empty, the Dropbox settings page is closed to everyone")
	}

	r, err := setupRouter(ctrl, repos, adminEmails, logger)
	if err != nil {
		logger.Fatal("Failed to setup router", zap.Error(err))
	}

	port := getenv("PORT", "8080")
	logger.Info("Dropbox login starting",
		zap.String("port", port),
		zap.String("database", dbPath),
	)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// newLogger builds a production logger, or a development one for LOG_LEVEL=debug
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// seedSettings stores environment provided credentials the first time the service starts
func seedSettings(settings services.SettingsService) error {
	openID, _ := strconv.ParseBool(os.Getenv("DROPBOX_OPENID"))

	return settings.Seed(context.Background(), &models.SettingsForm{
		AppKey:    os.Getenv("DROPBOX_APP_KEY"),
		AppSecret: os.Getenv("DROPBOX_APP_SECRET"),
		Endpoints: os.Getenv("DROPBOX_ENDPOINTS"),
		OpenID:    openID,
	})
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, repos *repositories.Repositories, adminEmails []string, logger *zap.Logger) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // 60 second timeout for OAuth callbacks

	// Determine if we should use secure cookies (HTTPS)
	useSecureCookies := os.Getenv("USE_HTTPS") == "true"

	// Session middleware
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     "dropbox_login_session",
		Secure:         useSecureCookies, // Set to true when USE_HTTPS=true (production)
		Gclifetime:     3600,             // Session lifetime in seconds
		Maxlifetime:    3600,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.Use(sessionHandler)

	// PUBLIC ROUTES (no authentication required)
	r.Get("/", ctrl.Dashboard.Index)
	r.Get(controllers.LoginPath, ctrl.Auth.LoginPage)
	r.Get("/user/login/dropbox", ctrl.Auth.Login)
	r.Get(models.CallbackPath, ctrl.Auth.Callback)
	r.Get("/user/logout", ctrl.Auth.Logout)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "social-auth-dropbox"}`)
	})

	// ADMIN ROUTES (signed in user on the ADMIN_EMAILS allow-list)
	r.Group(func(r chi.Router) {
		r.Use(authmiddleware.RequireAuth)
		r.Use(authmiddleware.RequireAdmin(adminEmails, logger))
		r.Use(authmiddleware.RequireFormToken)
		r.Use(authmiddleware.AuditLogger(repos.Audit, logger))

		r.Get(controllers.SettingsPath, ctrl.Settings.Index)
		r.Post(controllers.SettingsPath, ctrl.Settings.Update)
	})

	return r, nil
}
