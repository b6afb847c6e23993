package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/assets"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/auth"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/authoring"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/cache"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/docstore"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/events"
	authoringhandler "github.com/Millionpixels-tech/marketplace-sub001/internal/handlers/authoring"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/handlers/catalog"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/idempotency"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/registry"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/storage"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/taxonomy"
)

type application struct {
	config        config
	conn          *pgxpool.Pool
	cache         *cache.RedisClient
	authenticator *auth.Authenticator
	storage       storage.Provider
	eventBus      events.Bus
	logger        *slog.Logger
	stopSweep     context.CancelFunc
}

type config struct {
	events     *events.EventConfig
	frontend   string
	addr       string
	sessionTTL time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontend},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	slog.Info("Allowed origins", "origin", app.config.frontend)

	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	idempotencyStore := idempotency.NewStore(app.cache)

	documents := docstore.NewPostgresStore(app.conn)
	shops := registry.NewShops(documents, app.cache)
	banks := registry.NewBankAccounts(documents)

	notifier := events.NewNotifier(app.eventBus, app.config.events, app.logger)
	uploader := assets.NewUploader(app.storage, storage.BucketListingImages, app.logger)
	composer := authoring.NewComposer(documents, notifier, app.logger)

	manager := authoring.NewManager(authoring.Deps{
		Uploader:      uploader,
		Banks:         banks,
		Composer:      composer,
		Publisher:     notifier,
		TaxonomyValid: taxonomy.Valid,
		Logger:        app.logger,
	}, app.config.sessionTTL)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	app.stopSweep = stopSweep
	go manager.Sweep(sweepCtx, 5*time.Minute, app.logger)

	sessionHandler := authoringhandler.NewSessionHandler(manager, shops)
	catalogHandler := catalog.NewCatalogHandler(shops, banks)

	r.Group(func(r chi.Router) {
		// Public routes
		r.Use(middleware.Recoverer)

		r.Get("/taxonomy", catalogHandler.GetTaxonomy)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)

		// Authenticated routes
		r.Use(app.authenticator.Middleware)

		r.Get("/shops", catalogHandler.GetShops)
		r.Get("/bank-accounts", catalogHandler.GetBankAccounts)

		r.Post("/authoring/sessions", sessionHandler.StartSession)
		r.Route("/authoring/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Delete("/", sessionHandler.DiscardSession)

			r.Post("/advance", sessionHandler.Advance)
			r.Post("/retreat", sessionHandler.Retreat)
			r.Post("/goto", sessionHandler.GoTo)

			r.Put("/draft", sessionHandler.UpdateDraft)

			r.Post("/variations/begin-add", sessionHandler.BeginAddVariation)
			r.Post("/variations/begin-edit", sessionHandler.BeginEditVariation)
			r.Post("/variations/commit", sessionHandler.CommitVariation)
			r.Post("/variations/cancel", sessionHandler.CancelVariation)
			r.Delete("/variations/{variationID}", sessionHandler.RemoveVariation)

			r.Post("/images", sessionHandler.AddImages)
			r.Delete("/images/{slotID}", sessionHandler.RemoveImage)
			r.Get("/images/{slotID}/preview", sessionHandler.PreviewImage)

			r.Put("/delivery", sessionHandler.SetDelivery)
			r.Put("/payment", sessionHandler.SetPayment)

			// Publishing is the one side-effecting write; retries must not
			// create two listings
			r.With(idempotency.Idempotency(idempotencyStore)).
				Post("/submit", sessionHandler.Submit)
		})
	})

	return r
}

func (app *application) run(h http.Handler) error {
	svr := &http.Server{
		Addr:         app.config.addr,
		Handler:      h,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute * 1,
	}

	slog.Info("Starting server on " + app.config.addr)
	go func() {
		if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// Wait for Interrupt Signal (Ctrl+C or Docker Stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Create a deadline to wait for active requests (e.g. 10 seconds)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP
	if err := svr.Shutdown(ctx); err != nil {
		log.Fatal("Server Forced to Shutdown:", err)
		return err
	}

	// Stop the session janitor
	if app.stopSweep != nil {
		app.stopSweep()
	}

	// Shutdown NATS (Drain is better than Close)
	// Drain allows in-flight messages to finish processing
	if err := app.eventBus.Drain(); err != nil {
		log.Fatal("NATS Drain failed:", err)
		return err
	}

	// Close DB Connection Pool
	app.conn.Close()

	// Close Redis Client
	if err := app.cache.Close(); err != nil {
		log.Fatal("Redis Close failed:", err)
		return err
	}

	log.Println("Server Exited Properly")
	return nil
}
