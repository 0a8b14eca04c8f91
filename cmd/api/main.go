package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inventory/internal/config"
	"inventory/internal/handler"
	"inventory/internal/infra/db"
	"inventory/internal/infra/lock"
	infraRepo "inventory/internal/infra/repository"
	"inventory/internal/logger"
	"inventory/internal/metrics"
	"inventory/internal/middleware"
	"inventory/internal/server"
	"inventory/internal/usecase"
	auth "inventory/internal/usecase/auth_usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "inventory-api", Level: logger.ParseLevel("info")})

	if err := run(ctx, logg); err != nil {
		logg.Error(ctx, "server stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "inventory-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.GoEnv, "db_driver": cfg.DB.Driver})

	//DB接続
	gormDB, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close(gormDB)) }()

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	switch {
	case cfg.DB.Driver == config.DriverSQLite:
		//sqliteはモデルから作る
		if err := db.AutoMigrate(gormDB); err != nil {
			return err
		}
	case cfg.DB.AutoMigrate:
		logg.Info(ctx, "running goose migrations (auto)")
		if err := db.RunMigrations(ctx, sqlDB, "up"); err != nil {
			return err
		}
	}

	//商品ロック（REDIS_URLがあれば分散ロック）
	var locker usecase.Locker
	if cfg.Redis.URL != "" {
		var rdb *redis.Client
		rdb, err = lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { err = multierr.Append(err, rdb.Close()) }()

		locker, err = lock.NewRedisLocker(rdb, lock.RedisOptions{
			TTL:           cfg.Lock.TTL,
			Wait:          cfg.Lock.Wait,
			RetryInterval: cfg.Lock.RetryInterval,
		})
		if err != nil {
			return err
		}
		logg.Info(ctx, "product lock: redis")
	} else {
		locker = lock.NewMemoryLocker(cfg.Lock.Wait)
		logg.Info(ctx, "product lock: in-process")
	}

	//metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	discountRepo := infraRepo.NewDiscountGormRepository(gormDB)
	purchaseRepo := infraRepo.NewPurchaseGormRepository(gormDB)
	returnRepo := infraRepo.NewReturnRequestGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(cfg.App.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, auditRepo, hasher, verifier, issuer, clock, logg)
	productUC := usecase.NewProductUsecase(productRepo, txm, locker, clock, logg)
	discountUC := usecase.NewDiscountUsecase(discountRepo, txm, clock, logg)
	purchaseUC := usecase.NewPurchaseUsecase(txm, purchaseRepo, discountRepo, locker, clock, logg, m)
	returnUC := usecase.NewReturnUsecase(txm, productRepo, returnRepo, locker, clock, logg, m)
	auditUC := usecase.NewAuditLogUsecase(auditRepo, logg)

	if cfg.Admin.Enabled() {
		if err := authUC.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	//Handler生成
	e := server.New(server.Deps{
		Handlers: server.Handlers{
			Auth:          handler.NewAuthHandler(authUC),
			Product:       handler.NewProductHandler(productUC),
			AdminProduct:  handler.NewAdminProductHandler(productUC),
			Discount:      handler.NewDiscountHandler(discountUC),
			AdminDiscount: handler.NewAdminDiscountHandler(discountUC),
			Purchase:      handler.NewPurchaseHandler(purchaseUC),
			Return:        handler.NewReturnHandler(returnUC),
			AdminUser:     handler.NewAdminUserHandler(authUC),
			AuditLog:      handler.NewAdminAuditLogHandler(auditUC),
			Health:        handler.NewHealthHandler(sqlDB),
		},
		Guards:   middleware.NewGuards(issuer, userRepo),
		Logger:   logg,
		Metrics:  m,
		Gatherer: reg,
	})

	//Server起動
	return server.Start(ctx, e, cfg.App, logg)
}
