package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tokenmart/tokenmart/internal/account"
	"github.com/tokenmart/tokenmart/internal/cashout"
	"github.com/tokenmart/tokenmart/internal/chain"
	"github.com/tokenmart/tokenmart/internal/config"
	"github.com/tokenmart/tokenmart/internal/listing"
	"github.com/tokenmart/tokenmart/internal/middleware"
	"github.com/tokenmart/tokenmart/internal/notification"
	"github.com/tokenmart/tokenmart/internal/order"
	"github.com/tokenmart/tokenmart/internal/purchase"
	"github.com/tokenmart/tokenmart/internal/seedvault"
)

// Deps aggregates shared dependencies required to wire routes. Tokens and
// Notifier may be nil, in which case Setup builds the RPC-backed client and
// the configured notifier itself.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Tokens   chain.TokenClient
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	vault, err := seedvault.New(d.Cfg.EncryptionSecret)
	if err != nil {
		return err
	}

	tokens := d.Tokens
	if tokens == nil {
		tokens, err = chain.NewRPCClient(d.Cfg.SolanaRPCURL, d.Cfg.TokenMint)
		if err != nil {
			return err
		}
	}

	notifier := d.Notifier
	if notifier == nil {
		if d.Cfg.SMTP.Host != "" {
			mailer, err := notification.NewMailNotifier(d.Cfg.SMTP)
			if err != nil {
				return err
			}
			notifier = mailer
		} else {
			notifier = notification.NewLoggerNotifier(d.Logger)
		}
	}

	var platformKey solana.PrivateKey
	if d.Cfg.PlatformMnemonic != "" {
		platformKey, err = chain.KeypairFromMnemonic(d.Cfg.PlatformMnemonic)
		if err != nil {
			return fmt.Errorf("derive platform keypair: %w", err)
		}
	} else {
		d.Logger.Warn("PLATFORM_MNEMONIC not set; cash-out settlement is unavailable")
	}

	var issuerKey solana.PrivateKey
	if d.Cfg.IssuerSecretKey != "" {
		issuerKey, err = solana.PrivateKeyFromBase58(d.Cfg.IssuerSecretKey)
		if err != nil {
			return fmt.Errorf("parse issuer secret key: %w", err)
		}
	} else {
		d.Logger.Warn("ISSUER_SECRET_KEY not set; token issuance is unavailable")
	}

	// Repositories: Postgres in normal operation, in-memory in dev without a DB.
	var accountRepo account.Repository
	var listingRepo listing.Repository
	var orderRepo order.Repository
	var cashoutRepo cashout.Repository
	var purchaseRepo purchase.Repository
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
		listingRepo = listing.NewPostgresRepository(d.DB)
		orderRepo = order.NewPostgresRepository(d.DB)
		cashoutRepo = cashout.NewPostgresRepository(d.DB)
		purchaseRepo = purchase.NewPostgresRepository(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
		listingRepo = listing.NewMemoryRepository()
		orderRepo = order.NewMemoryRepository(accountRepo, listingRepo)
		cashoutRepo = cashout.NewMemoryRepository()
		purchaseRepo = purchase.NewMemoryRepository()
	}

	// Services and handlers
	accountSvc := account.NewService(accountRepo, vault)
	listingSvc := listing.NewService(listingRepo, accountRepo)
	orderSvc := order.NewService(orderRepo, accountRepo, listingRepo, vault, tokens, d.Logger)
	cashoutSvc := cashout.NewService(cashoutRepo, accountRepo, vault, tokens, notifier,
		platformKey, d.Cfg.CommissionRate, d.Logger)
	purchaseSvc := purchase.NewService(purchaseRepo, accountRepo, tokens, nil, notifier,
		issuerKey, d.Logger)

	accountHandler := account.NewHandler(accountSvc)
	listingHandler := listing.NewHandler(listingSvc)
	orderHandler := order.NewHandler(orderSvc)
	cashoutHandler := cashout.NewHandler(cashoutSvc)
	purchaseHandler := purchase.NewHandler(purchaseSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler)
	RegisterListingRoutes(api, listingHandler)
	RegisterOrderRoutes(api, orderHandler)
	RegisterCashoutRoutes(api, cashoutHandler)
	RegisterPurchaseRoutes(api, purchaseHandler)

	return nil
}
