package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Remitos-api/internal/application/events"
	"github.com/jhoicas/Remitos-api/internal/application/logistics"
	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/application/purchasing"
	"github.com/jhoicas/Remitos-api/internal/application/sales"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/lock"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/Remitos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Remitos-api/internal/interfaces/http"
	"github.com/jhoicas/Remitos-api/pkg/config"
	"github.com/jhoicas/Remitos-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")
	zl := log.Zerolog()

	ctx := context.Background()

	var repos repository.Repos
	var txRunner ports.TxRunner
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		// sin catálogo precargado: solo para desarrollo local y demos
		store := memory.NewStore()
		repos, txRunner = store.Repos(), store
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, zl); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		repos, txRunner = postgres.NewRepos(pool), postgres.NewTxRunner(pool)
	}

	// Notificaciones y lock de importación: Redis si está configurado, si no solo log.
	var notifier ports.Notifier = notify.NewLogNotifier(zl)
	var locker ports.Locker = ports.NopLocker{}
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis no responde, se reintentará en cada envío")
		}
		cancel()
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.Channel)
		locker = lock.NewRedisLocker(rdb)
	}
	dispatcher := events.NewDispatcher(notifier, zl)

	purchaseUC := purchasing.NewPurchaseUseCase(repos, txRunner, zl)
	deliveryNoteUC := purchasing.NewDeliveryNoteUseCase(repos, txRunner, dispatcher, zl)
	orderUC := sales.NewOrderUseCase(repos, txRunner, dispatcher, sales.OrderConfig{
		AutoReserveOnApproval: cfg.Workflow.AutoReserveOnApproval,
	}, zl).WithLocker(locker)
	remitoUC := logistics.NewRemitoUseCase(repos, txRunner, dispatcher,
		infrapdf.NewMarotoRemitoPDFGenerator(cfg.App.Name), zl)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(zl))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Remitos API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	if cfg.Webhook.Secret == "" {
		log.Warn().Msg("WEBHOOK_SECRET vacío: /webhooks/orders queda deshabilitado")
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		PurchaseUC:     purchaseUC,
		DeliveryNoteUC: deliveryNoteUC,
		OrderUC:        orderUC,
		RemitoUC:       remitoUC,
		JWTSecret:      cfg.JWT.Secret,
		WebhookSecret:  cfg.Webhook.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// notificaciones pendientes antes de cerrar Redis
	dispatcher.Wait()

	log.Info().Msg("aplicación detenida")
}
