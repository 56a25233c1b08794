package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"autorent/internal/api"
	"autorent/internal/auth"
	"autorent/internal/config"
	"autorent/internal/repository"
	"autorent/internal/service"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	vehicleRepo := repository.NewVehicleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	draftStore := repository.NewRedisDraftStore(redisClient, cfg.DraftTTL, cfg.PendingTTL)

	tokens := auth.NewTokenService(cfg.JWTSecret, 24*time.Hour)
	stripeSvc := service.NewStripeService(cfg.Stripe.APIKey)
	mpesaSvc := service.NewMpesaService(cfg.Mpesa)
	paypalSvc := service.NewPayPalService(cfg.PayPal)
	sender := service.NewSenderService()

	checkoutSvc := service.NewCheckoutService(draftStore, vehicleRepo, stripeSvc, mpesaSvc, paypalSvc, cfg.Currency)
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, checkoutSvc, stripeSvc, sender, cfg.CancelCutoff)
	authSvc := service.NewAuthService(userRepo, tokens)
	jobSvc := service.NewJobService(jobRepo)

	authHandler := api.NewAuthHandler(authSvc)
	vehicleHandler := api.NewVehicleHandler(vehicleRepo)
	checkoutHandler := api.NewCheckoutHandler(checkoutSvc, bookingSvc)
	webhookHandler := api.NewStripeWebhookHandler(cfg.Stripe.WebhookSecret, bookingSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/vehicles", vehicleHandler.ListVehicles).Methods("GET")
	r.HandleFunc("/api/vehicles/{id}", vehicleHandler.GetVehicle).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", webhookHandler.HandleWebhook).Methods("POST")

	// Checkout endpoints (protected)
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(auth.Middleware(tokens))
	protected.HandleFunc("/drafts", checkoutHandler.CreateDraft).Methods("PUT")
	protected.HandleFunc("/drafts", checkoutHandler.GetDraft).Methods("GET")
	protected.HandleFunc("/drafts", checkoutHandler.CancelDraft).Methods("DELETE")
	protected.HandleFunc("/payments/create-intent", checkoutHandler.CreateIntent).Methods("POST")
	protected.HandleFunc("/payments/confirm", checkoutHandler.ConfirmPayment).Methods("POST")
	protected.HandleFunc("/payments/mpesa", checkoutHandler.MpesaPayment).Methods("POST")
	protected.HandleFunc("/payments/paypal", checkoutHandler.PaypalPayment).Methods("POST")
	protected.HandleFunc("/bookings/{code}", checkoutHandler.GetBooking).Methods("GET")
	protected.HandleFunc("/bookings/{code}/cancel", checkoutHandler.CancelBooking).Methods("POST")
	protected.HandleFunc("/vehicles/{id}/availability", vehicleHandler.SetAvailability).Methods("PUT")

	c := cron.New()
	c.AddFunc("@every 10m", func() {
		if err := jobSvc.FinishEndedBookings(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("@hourly", func() {
		if err := jobSvc.DeleteStalePendingBookings(cfg.PendingMaxAge); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.Start()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, cors(r)))
}
