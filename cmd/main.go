package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"siteadmin/config"
	"siteadmin/internal/pkg/assets"
	"siteadmin/internal/pkg/cache"
	"siteadmin/internal/pkg/database"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/mailer"
	"siteadmin/internal/pkg/token"
	"siteadmin/internal/pkg/validation"

	// Camadas para Injeção de Dependências
	"siteadmin/internal/api/banner"
	"siteadmin/internal/api/configuracion"
	"siteadmin/internal/api/router"
	"siteadmin/internal/api/user"
	"siteadmin/internal/repository/bannerrepo"
	"siteadmin/internal/repository/configrepo"
	"siteadmin/internal/repository/resetrepo"
	"siteadmin/internal/repository/userrepo"
	"siteadmin/internal/service/bannerservice"
	"siteadmin/internal/service/configservice"
	"siteadmin/internal/service/userservice"
)

// @title SiteAdmin API
// @version 1.0
// @description API de administração do site: configurações tipadas, banners e usuários.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço SiteAdmin...")
	if err := godotenv.Load(); err != nil {
		// As variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "asset_backend": cfg.AssetBackend})

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL, cfg.DBTimeout)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis). Sem Redis a API continua: snapshot sem cache,
	// rate limiting e revogação de tokens liberados.
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Warn("Redis indisponível; seguindo sem cache.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		log.Info("Conexão Redis estabelecida.", nil)
	}
	defer cacheClient.Close()

	// C. Armazenamento de assets (disco local ou S3)
	var backend assets.Backend
	staticDir := ""
	switch cfg.AssetBackend {
	case "s3":
		s3Backend, err := assets.NewS3Backend(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			log.Fatal("Falha ao configurar o backend S3.", err)
		}
		backend = s3Backend
	default:
		local, err := assets.NewLocalBackend(cfg.PublicDir)
		if err != nil {
			log.Fatal("Falha ao preparar o diretório público.", err)
		}
		backend = local
		staticDir = local.Root()
	}
	assetManager := assets.NewManager(backend, log)

	// D. Serviço de Tokens (JWT) e lista de revogação
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	revocations := token.NewRevocationList(cacheClient)
	validator := validation.New()

	// E. E-mail (recuperação de senha)
	mail := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFromAddress,
		FromName: cfg.MailFromName,
	}, log)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	configRepo := configrepo.NewConfigRepository(db, cfg.DBTimeout, log)
	bannerRepo := bannerrepo.NewBannerRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	resetRepo := resetrepo.NewResetRepository(db, cfg.DBTimeout, log)

	configSvc := configservice.NewService(configRepo, assetManager, cacheClient, cfg.CacheTTL, log)
	bannerSvc := bannerservice.NewService(bannerRepo, assetManager, validator, log)
	userSvc := userservice.NewService(userRepo, tokenSvc, revocations, validator, log).
		WithPasswordReset(resetRepo, mail, cfg.FrontendURL).
		WithProfileImages(assetManager)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 2*cfg.DBTimeout)
	if err := userSvc.EnsureAdmin(bootCtx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("Falha ao garantir a conta administradora.", err)
	}
	cancelBoot()

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Options{
		ConfigHandler:   configuracion.NewHandler(configSvc, log),
		BannerHandler:   banner.NewHandler(bannerSvc, log),
		UserHandler:     user.NewHandler(userSvc, log),
		TokenSvc:        tokenSvc,
		Revoked:         revocations,
		Cache:           cacheClient,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitWindow: cfg.RateLimitPeriod,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		StaticDir:       staticDir,
		Logger:          log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second, // uploads de até 10 MB
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor SiteAdmin ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
