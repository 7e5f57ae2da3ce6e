package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GK-FY/buybot/internal/admin"
	"github.com/GK-FY/buybot/internal/api"
	"github.com/GK-FY/buybot/internal/bot"
	"github.com/GK-FY/buybot/internal/catalog"
	"github.com/GK-FY/buybot/internal/config"
	"github.com/GK-FY/buybot/internal/db"
	"github.com/GK-FY/buybot/internal/dialogue"
	"github.com/GK-FY/buybot/internal/order"
	"github.com/GK-FY/buybot/internal/referral"
	"github.com/GK-FY/buybot/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ledgers default to process memory; DATABASE_URL switches on the
	// durable Postgres implementations.
	var orders order.Ledger = order.NewMemoryLedger()
	var referrals referral.Ledger = referral.NewMemoryLedger()
	if cfg.DatabaseURL != "" {
		database, err := db.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.RunMigrations(context.Background()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		orders = db.NewOrderLedger(database)
		referrals = db.NewReferralLedger(database)
	}

	cat := catalog.NewDefaultStore()
	withdraw := referral.NewSettings(cfg.MinWithdrawal, cfg.MaxWithdrawal)
	payment := dialogue.NewPaymentInfo(cfg.PaymentInfo)

	engine := dialogue.New(dialogue.Deps{
		Catalog:   cat,
		Orders:    orders,
		Referrals: referrals,
		Sessions:  session.NewStore(),
		Withdraw:  withdraw,
		Payment:   payment,
		AdminIDs:  cfg.AdminIDs,
	})
	interpreter := admin.New(admin.Deps{
		Catalog:      cat,
		Orders:       orders,
		Referrals:    referrals,
		Withdraw:     withdraw,
		Payment:      payment,
		BonusPercent: cfg.ReferralBonusPercent,
	})
	router := bot.NewRouter(engine, interpreter, cfg.IsAdmin)

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, router)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	// Initialize API server
	apiServer := api.New(cfg, orders, referrals, cat, discordBot.Ready)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
