package router

import (
	"net/http"
	"strings"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "siteadmin/docs" // registra a especificação gerada pelo swag
	"siteadmin/internal/api/banner"
	"siteadmin/internal/api/configuracion"
	"siteadmin/internal/api/user"
	"siteadmin/internal/domain"
	"siteadmin/internal/pkg/cache"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/middleware"
)

// Options reúne as dependências do roteador, já inicializadas por injeção de dependências.
type Options struct {
	ConfigHandler *configuracion.Handler
	BannerHandler *banner.Handler
	UserHandler   *user.Handler

	TokenSvc middleware.TokenValidator
	Revoked  middleware.RevocationChecker
	Cache    cache.Client // nil desativa o rate limiting

	RateLimit       int
	RateLimitWindow time.Duration
	AllowedOrigins  []string

	// StaticDir é servido em /assets/ quando os arquivos ficam no disco local.
	StaticDir string

	Logger logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(opts.TokenSvc, opts.Revoked, opts.Logger)
	panelOnly := middleware.PermissionMiddleware(domain.PanelRoles...)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	authenticated := func(h http.HandlerFunc) http.HandlerFunc { return auth(h) }
	panel := func(h http.HandlerFunc) http.HandlerFunc { return auth(panelOnly(h)) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return auth(adminOnly(h)) }

	public := func(h http.HandlerFunc) http.Handler { return h }
	if opts.Cache != nil && opts.RateLimit > 0 {
		limiter := middleware.RateLimiter(opts.Cache, opts.RateLimit, opts.RateLimitWindow, opts.Logger)
		public = func(h http.HandlerFunc) http.Handler { return limiter(h) }
	}

	// --- 1. Health check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if opts.StaticDir != "" {
		mux.Handle("GET /assets/", noDirListing(http.FileServer(http.Dir(opts.StaticDir))))
	}

	// --- 2. Autenticação ---
	uh := opts.UserHandler
	mux.Handle("POST /auth/register", public(uh.RegisterUserHandler))
	mux.Handle("POST /auth/login", public(uh.LoginUserHandler))
	mux.Handle("POST /auth/forgot-password", public(uh.ForgotPasswordHandler))
	mux.Handle("POST /auth/validate-reset-token", public(uh.ValidateResetTokenHandler))
	mux.Handle("POST /auth/reset-password", public(uh.ResetPasswordHandler))
	mux.HandleFunc("GET /auth/profile", authenticated(uh.ProfileHandler))
	mux.HandleFunc("PUT /auth/profile", authenticated(uh.UpdateProfileHandler))
	mux.HandleFunc("PUT /auth/change-password", authenticated(uh.ChangePasswordHandler))
	mux.HandleFunc("POST /auth/refresh", authenticated(uh.RefreshHandler))
	mux.HandleFunc("POST /auth/logout", authenticated(uh.LogoutHandler))
	mux.HandleFunc("GET /auth/check-admin-access", authenticated(uh.CheckAdminAccessHandler))
	mux.HandleFunc("POST /auth/profile-image", authenticated(uh.UploadProfileImageHandler))

	// --- 3. Conta do próprio usuário e imagem de perfil ---
	mux.HandleFunc("PUT /users/profile", authenticated(uh.UpdateProfileHandler))
	mux.HandleFunc("PUT /users/password", authenticated(uh.ChangePasswordHandler))
	mux.HandleFunc("POST /users/profile-image", authenticated(uh.UploadProfileImageHandler))
	mux.Handle("GET /users/profile-image/{userId}", public(uh.ProfileImageHandler))

	// --- 4. Usuários (somente administradores) ---
	mux.HandleFunc("GET /users", admin(uh.ListUsersHandler))
	mux.HandleFunc("POST /users", admin(uh.CreateUserHandler))
	mux.HandleFunc("GET /users/{id}", admin(uh.GetUserHandler))
	mux.HandleFunc("PUT /users/{id}", admin(uh.UpdateUserHandler))
	mux.HandleFunc("DELETE /users/{id}", admin(uh.DeleteUserHandler))

	// --- 5. Configurações ---
	ch := opts.ConfigHandler
	mux.Handle("GET /configuraciones/todas", public(ch.SnapshotHandler))
	mux.Handle("GET /configuraciones/imagen/{clave}", public(ch.ImageHandler))
	mux.HandleFunc("GET /configuraciones", panel(ch.ListHandler))
	mux.HandleFunc("GET /configuraciones/grupos", panel(ch.GroupsHandler))
	mux.HandleFunc("GET /configuraciones/{clave}", panel(ch.ShowHandler))
	mux.HandleFunc("PUT /configuraciones/{id}", panel(ch.UpdateHandler))
	mux.HandleFunc("POST /configuraciones/{id}/imagen", panel(ch.UploadImageHandler))
	mux.HandleFunc("POST /configuraciones/actualizar-multiple", panel(ch.BulkUpdateHandler))

	// --- 6. Banners ---
	bh := opts.BannerHandler
	mux.Handle("GET /banners", public(bh.IndexHandler))
	mux.Handle("GET /banners/{id}", public(bh.ShowHandler))
	mux.HandleFunc("POST /banners", panel(bh.StoreHandler))
	mux.HandleFunc("DELETE /banners/{id}", panel(bh.DeleteHandler))
	mux.HandleFunc("GET /admin/banners", panel(bh.AdminHandler))
	mux.HandleFunc("POST /admin/banners/{id}", panel(bh.UpdateHandler))

	// --- 7. Middlewares globais ---
	return middleware.RequestLogger(opts.Logger)(middleware.CORS(opts.AllowedOrigins)(mux))
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// noDirListing responde 404 para diretórios em vez de listar o conteúdo.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
