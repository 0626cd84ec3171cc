package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"github.com/finworks/accrual-engine-go/internal/config"
	"github.com/finworks/accrual-engine-go/internal/database"
)

func main() {
	fmt.Println("🔧 Validating environment configuration...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Configuration loaded (environment: %s)\n", cfg.Environment)

	if cfg.Server.AdminAPIKey == "" {
		fmt.Println("⚠️  ADMIN_API_KEY is not configured; admin routes will reject every request")
	} else {
		fmt.Printf("✅ ADMIN_API_KEY is configured (length: %d)\n", len(cfg.Server.AdminAPIKey))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Check database connectivity
	fmt.Println("🔍 Testing database connection...")
	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx); err != nil {
		fmt.Printf("❌ Database health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Database connection successful (%s:%d/%s)\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Check Redis connectivity
	fmt.Println("🔍 Testing Redis connection...")
	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer redis.Close()

	if err := redis.HealthCheck(ctx); err != nil {
		fmt.Printf("❌ Redis health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Redis connection successful (%s:%d)\n", cfg.Redis.Host, cfg.Redis.Port)

	// Check the optional Telegram notifier
	if cfg.Telegram.BotToken == "" {
		fmt.Println("⚠️  TELEGRAM_BOT_TOKEN is not configured; ops notifications are disabled")
	} else {
		fmt.Printf("✅ TELEGRAM_BOT_TOKEN is configured (length: %d)\n", len(cfg.Telegram.BotToken))

		b, err := bot.New(cfg.Telegram.BotToken)
		if err != nil {
			fmt.Printf("❌ Failed to create Telegram bot: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("🔍 Testing bot API connection...")
		botInfo, err := b.GetMe(ctx)
		if err != nil {
			fmt.Printf("❌ Failed to get bot info: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Bot API connection successful (@%s)\n", botInfo.Username)

		if cfg.Telegram.ChatID == 0 {
			fmt.Println("⚠️  TELEGRAM_CHAT_ID is not configured; alerts have nowhere to go")
		} else {
			fmt.Printf("✅ TELEGRAM_CHAT_ID is configured: %d\n", cfg.Telegram.ChatID)
		}
	}

	fmt.Println("\n🎉 Environment validation passed!")
}
