package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/storage"
	"storefront/internal/events"
	"storefront/internal/idempotency"
	"storefront/internal/mailer"
	"storefront/internal/media"
	"storefront/internal/payments"
	"storefront/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	media         media.Uploader
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	payments      *payments.PaymentManager
	events        events.Publisher
	dedup         idempotency.Store
	orderNumbers  *orders.OrderNumberGenerator
	metrics       *httpMetrics
	wg            sync.WaitGroup
}

type config struct {
	addr              string
	db                dbConfig
	env               string
	apiURL            string
	frontendURL       string
	mail              mailConfig
	auth              authConfig
	stripe            stripeConfig
	cloudinary        cloudinaryConfig
	kafka             kafkaConfig
	redis             redisConfig
	rateLimiter       ratelimiter.Config
	orderNumberSecret string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	secret string
	aud    string
	iss    string
}
type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type dbConfig struct {
	uri            string
	name           string
	maxPoolSize    uint64
	connectTimeout time.Duration
}

type stripeConfig struct {
	secretKey        string
	webhookSecret    string
	allowedCountries []string
	shippingRates    []string
}

type cloudinaryConfig struct {
	url    string
	folder string
}

type kafkaConfig struct {
	brokers []string
	topic   string
}

type redisConfig struct {
	addr string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.MetricsMiddleware)

	origins := []string{"https://*", "http://*"}
	if app.config.frontendURL != "" {
		origins = []string{app.config.frontendURL}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(app.RateLimiterMiddleware)

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", app.metrics.handler())

		// Public storefront routes
		r.Route("/store", func(r chi.Router) {
			r.Get("/products", app.listStoreProductsHandler)
			r.Get("/products/{slug}", app.getStoreProductHandler)
			r.Get("/categories", app.listCategoriesHandler)
			r.Get("/categories/{slug}", app.getStoreCategoryHandler)
			r.Get("/collections", app.listCollectionsHandler)
			r.Get("/collections/{collectionID}", app.getCollectionHandler)
		})

		r.With(app.AuthTokenMiddleware).Post("/checkout", app.createCheckoutHandler)
		r.With(app.AuthTokenMiddleware).Get("/orders/customers/{customerID}", app.listCustomerOrdersHandler)

		// Signature verified in the handler; no bearer token.
		r.Post("/webhooks/stripe", app.stripeWebhookHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/dashboard", app.adminOverviewHandler)
			r.Post("/pricing/preview", app.pricingPreviewHandler)
			r.Post("/media", app.uploadMediaHandler)
			r.Delete("/media", app.deleteMediaHandler)

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", app.createCategoryHandler)
				r.Get("/", app.listCategoriesHandler)
				r.Route("/{categoryID}", func(r chi.Router) {
					r.Get("/", app.getCategoryHandler)
					r.Patch("/", app.updateCategoryHandler)
					r.Delete("/", app.deleteCategoryHandler)

					r.Post("/subcategories", app.createSubcategoryHandler)
					r.Get("/subcategories", app.listSubcategoriesHandler)
				})
			})

			r.Route("/subcategories/{subcategoryID}", func(r chi.Router) {
				r.Get("/", app.getSubcategoryHandler)
				r.Patch("/", app.updateSubcategoryHandler)
				r.Delete("/", app.deleteSubcategoryHandler)
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", app.createProductHandler)
				r.Get("/", app.listProductsHandler)
				r.Route("/{productID}", func(r chi.Router) {
					r.Get("/", app.getProductHandler)
					r.Put("/", app.updateProductHandler)
					r.Delete("/", app.deleteProductHandler)
				})
			})

			r.Route("/collections", func(r chi.Router) {
				r.Post("/", app.createCollectionHandler)
				r.Get("/", app.listCollectionsHandler)
				r.Route("/{collectionID}", func(r chi.Router) {
					r.Get("/", app.getCollectionHandler)
					r.Patch("/", app.updateCollectionHandler)
					r.Delete("/", app.deleteCollectionHandler)
				})
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", app.listCustomersHandler)
				r.Get("/{customerID}", app.getCustomerHandler)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", app.adminListOrdersHandler)
				r.Get("/{orderID}", app.adminGetOrderHandler)
				r.Patch("/{orderID}/status", app.adminUpdateOrderStatusHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("completing background tasks", "addr", app.config.addr)
	app.wg.Wait()

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
