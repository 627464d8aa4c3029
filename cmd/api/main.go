package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/db"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/storage"
	"storefront/internal/events"
	"storefront/internal/idempotency"
	"storefront/internal/mailer"
	"storefront/internal/media"
	"storefront/internal/payments"
	"storefront/internal/ratelimiter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig(logger *zap.SugaredLogger) ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: envInt(logger, "RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            5 * time.Second,
		Enabled:              envBool(logger, "RATE_LIMITER_ENABLED", false),
	}
}

func envString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func envInt(logger *zap.SugaredLogger, key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnw("invalid integer env, using default", "key", key, "value", val, "default", fallback)
		return fallback
	}
	return parsed
}

func envBool(logger *zap.SugaredLogger, key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		logger.Warnw("invalid boolean env, using default", "key", key, "value", val, "default", fallback)
		return fallback
	}
	return parsed
}

func envDuration(logger *zap.SugaredLogger, key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		logger.Warnw("invalid duration env, using default", "key", key, "value", val, "default", fallback)
		return fallback
	}
	return parsed
}

// envCSV splits a comma separated value, dropping empty items.
func envCSV(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)
	logger := zap.New(core)

	return logger.Sugar(), nil
}

func loadConfig(logger *zap.SugaredLogger) config {
	return config{
		addr:        envString("ADDR", ":8080"),
		env:         envString("ENV", "development"),
		frontendURL: envString("FRONTEND_URL", ""),
		apiURL:      envString("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			uri:            envString("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			name:           envString("MONGO_DB", "storefront"),
			maxPoolSize:    uint64(envInt(logger, "MONGO_MAX_POOL_SIZE", 50)),
			connectTimeout: envDuration(logger, "MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		mail: mailConfig{
			host:      envString("SMTP_HOST", ""),
			port:      envInt(logger, "SMTP_PORT", 587),
			username:  envString("SMTP_USER", ""),
			password:  envString("SMTP_PASS", ""),
			fromEmail: envString("MAIL_FROM", ""),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				aud:    envString("AUTH_TOKEN_AUD", ""),
				iss:    envString("AUTH_TOKEN_ISS", ""),
			},
		},
		stripe: stripeConfig{
			secretKey:        os.Getenv("STRIPE_SECRET_KEY"),
			webhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
			allowedCountries: envCSV("STRIPE_SHIPPING_COUNTRIES"),
			shippingRates:    envCSV("STRIPE_SHIPPING_RATES"),
		},
		cloudinary: cloudinaryConfig{
			url:    os.Getenv("CLOUDINARY_URL"),
			folder: envString("CLOUDINARY_FOLDER", "storefront"),
		},
		kafka: kafkaConfig{
			brokers: envCSV("KAFKA_BROKERS"),
			topic:   envString("KAFKA_ORDER_TOPIC", "orders"),
		},
		redis: redisConfig{
			addr: envString("REDIS_ADDR", ""),
		},
		rateLimiter:       LoadRateLimiterConfig(logger),
		orderNumberSecret: envString("ORDER_NUMBER_SECRET", "change-me"),
	}
}

var version = "1.0.0"

func main() {
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Infow("no .env file loaded, using process environment", "error", err.Error())
	}

	cfg := loadConfig(logger)
	if cfg.auth.token.secret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET is required")
	}

	// Database
	client, err := db.New(cfg.db.uri, cfg.db.maxPoolSize, cfg.db.connectTimeout)
	if err != nil {
		logger.Fatal(err)
	}
	defer client.Disconnect(context.Background())
	logger.Infow("database connection pool established", "db", cfg.db.name)

	store := storage.NewContainer(client, cfg.db.name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureIndexes(ctx); err != nil {
		cancel()
		logger.Fatal(err)
	}
	cancel()

	// Media host
	cld, err := media.NewCloudinary(cfg.cloudinary.url, cfg.cloudinary.folder)
	if err != nil {
		logger.Fatal(err)
	}

	// Payments
	paymentManager := payments.NewPaymentManager()
	paymentManager.RegisterGateway(paymentProvider, payments.NewStripeAdapter(
		cfg.stripe.secretKey,
		cfg.stripe.webhookSecret,
		cfg.stripe.allowedCountries,
		cfg.stripe.shippingRates,
	))

	// Mail, optional
	var mail mailer.Client = mailer.NopClient{}
	if cfg.mail.host != "" {
		smtp, err := mailer.NewSMTPClient(cfg.mail.host, cfg.mail.port, cfg.mail.username, cfg.mail.password, cfg.mail.fromEmail)
		if err != nil {
			logger.Fatal(err)
		}
		mail = smtp
	} else {
		logger.Warn("SMTP_HOST not set, order mails are disabled")
	}

	// Events, optional
	var publisher events.Publisher = events.Nop{}
	if len(cfg.kafka.brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.kafka.brokers, cfg.kafka.topic)
		logger.Infow("publishing order events", "brokers", cfg.kafka.brokers, "topic", cfg.kafka.topic)
	}
	defer publisher.Close()

	// Webhook dedup, Redis when available
	var dedup idempotency.Store = idempotency.NewMemoryStore()
	if cfg.redis.addr != "" {
		rdb := idempotency.NewRedisClient(cfg.redis.addr)
		defer rdb.Close()
		dedup = idempotency.NewRedisStore(rdb)
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	defer rateLimiter.Stop()

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		media:         cld,
		mailer:        mail,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		payments:      paymentManager,
		events:        publisher,
		dedup:         dedup,
		orderNumbers:  orders.NewOrderNumberGenerator("ORD", cfg.orderNumberSecret),
		metrics:       newHTTPMetrics(),
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
