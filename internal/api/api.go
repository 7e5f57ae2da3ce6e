package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/oauth2"

	"github.com/GK-FY/buybot/internal/catalog"
	"github.com/GK-FY/buybot/internal/config"
	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
)

// API serves the status surface and the admin dashboard endpoints. It
// exposes read-only views; all mutation happens through the chat side.
type API struct {
	router      *mux.Router
	config      *config.Config
	orders      order.Ledger
	referrals   referral.Ledger
	catalog     *catalog.Store
	ready       func() bool
	oauthConfig *oauth2.Config
	jwtSecret   []byte
}

func New(cfg *config.Config, orders order.Ledger, referrals referral.Ledger, cat *catalog.Store, ready func() bool) *API {
	api := &API{
		router:    mux.NewRouter(),
		config:    cfg,
		orders:    orders,
		referrals: referrals,
		catalog:   cat,
		ready:     ready,
		jwtSecret: []byte(cfg.JWTSecret),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/api/status", a.handleStatus).Methods("GET")

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Admin endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)
	protected.Use(a.requireAdmin)

	protected.HandleFunc("/orders", a.handleListOrders).Methods("GET")
	protected.HandleFunc("/referrals", a.handleListReferrals).Methods("GET")
	protected.HandleFunc("/catalog", a.handleCatalog).Methods("GET")
}

func (a *API) Start() error {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}

	handler := cors.New(corsOptions).Handler(a.router)

	log.Printf("API server listening on http://%s", a.config.WebBind)
	return http.ListenAndServe(a.config.WebBind, handler)
}
