package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShevArtV/miniShop2/internal/config"
	"github.com/ShevArtV/miniShop2/internal/handler"
	"github.com/ShevArtV/miniShop2/internal/hook"
	"github.com/ShevArtV/miniShop2/internal/infra/db"
	infraRepo "github.com/ShevArtV/miniShop2/internal/infra/repository"
	"github.com/ShevArtV/miniShop2/internal/infra/session"
	"github.com/ShevArtV/miniShop2/internal/logger"
	repo "github.com/ShevArtV/miniShop2/internal/repository"
	"github.com/ShevArtV/miniShop2/internal/server"
	"github.com/ShevArtV/miniShop2/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 設定に応じて持ち主ごとの保存先を返す
type cartStorageProvider struct {
	kind  config.StorageKind
	db    *gorm.DB
	store session.Store
}

func (p *cartStorageProvider) StorageFor(owner usecase.CartOwner) repo.CartStorage {
	//DB保存はログイン中のみ。未ログインはセッション
	if p.kind == config.StorageDB && owner.UserID > 0 {
		return infraRepo.NewCartGormStorage(p.db, owner.Key())
	}
	return session.NewCartStorage(p.store, owner.Key())
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// .env は任意
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lg, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	//セッションの置き場
	var store session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		store = session.NewRedisStore(client, cfg.SessionTTL)
		lg.Info("session store: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		store = session.NewMemoryStore()
		lg.Warn("session store: memory (REDIS_ADDR not set)")
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//フック
	hooks := hook.NewPipeline(lg)
	hook.NewStockGuard(productRepo, repo.ProductFilter{
		ExcludeDeleted:     !cfg.Cart.AllowDeleted,
		ExcludeUnpublished: !cfg.Cart.AllowUnpublished,
	}, lg).Register(hooks)
	hook.NewAuditTrail(auditRepo, lg).Register(hooks)

	//Usecase生成
	factory := usecase.NewCartFactory(cfg.Cart, &cartStorageProvider{
		kind:  cfg.Cart.Storage,
		db:    gormDB,
		store: store,
	}, productRepo, hooks, lg)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	cartH := handler.NewCartHandler(factory, lg)
	auditH := handler.NewAuditLogHandler(auditUC)

	//Server起動
	e := server.New(lg)
	server.RegisterRoutes(e, cfg, cartH, auditH)

	return server.Start(ctx, e, cfg.Addr(), lg)
}
