package main

import (
	"context"
	"database/sql"
	"embed"
	"os"

	"gamelink/internal/application"
	"gamelink/internal/delivery/discord"
	"gamelink/internal/delivery/telegram"
	"gamelink/internal/feed"
	"gamelink/internal/repository"
	"gamelink/pkg/config"
	"gamelink/pkg/logger"
	service "gamelink/pkg/services"
	"gamelink/pkg/sheets"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func main() {
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.ReadEnvConfig(&cfg); err != nil {
		panic(err)
	}

	log := logger.NewLogger(&logger.Config{Level: cfg.LogLevel})

	repos, db, err := openRepository(&cfg.Repo, log)
	if err != nil {
		log.Error("failed to init repository: %s", err.Error())
		return
	}
	if db != nil {
		defer db.Close()
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Error("failed to create discord session: %s", err.Error())
		return
	}

	feedClient := feed.NewClient(cfg.Feed, log)

	services := application.NewService(application.Deps{
		Repos:    repos,
		Feed:     feedClient,
		Notifier: discord.NewNotifier(session),
		Alerter:  newAlerter(&cfg, log),
		Sheets:   newSheetsClient(&cfg, log),
	}, &cfg, log)

	bot := discord.NewBot(session, &cfg, services, log)

	manager := service.NewManager(log)
	manager.AddService(feedClient, services.Engine, services.Sweeper, bot)

	if err := manager.Run(context.Background()); err != nil {
		log.Error("failed to run services: %s", err.Error())
		return
	}
	log.Info("Stopped")
}

func openRepository(cfg *repository.Config, log *logger.Logger) (*repository.Repository, *sql.DB, error) {
	if cfg.Driver == repository.DriverMemory {
		log.Warn("Using in-memory storage, links are lost on restart")
		return repository.NewMemoryRepository(), nil, nil
	}

	db, err := repository.NewPostgresDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Running migrations...")
	if err := repository.RunMigrations(db, migrationFS); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("Migrations applied successfully")

	return repository.NewRepository(cfg, db), db, nil
}

func newAlerter(cfg *config.Config, log *logger.Logger) application.Alerter {
	if cfg.Telegram.Token == "" || len(cfg.Telegram.AdminChatIDs) == 0 {
		return application.LogAlerter{Logger: log}
	}

	hostname, _ := os.Hostname()
	alerter, err := telegram.NewAlerter(cfg.Telegram.Token, cfg.Telegram.AdminChatIDs, hostname, log)
	if err != nil {
		log.Warn("Telegram alerts disabled: %s", err.Error())
		return application.LogAlerter{Logger: log}
	}
	return alerter
}

func newSheetsClient(cfg *config.Config, log *logger.Logger) sheets.Client {
	if cfg.Sheets.CredentialsFile == "" {
		return nil
	}

	client, err := sheets.NewGoogleSheetsClient(context.Background(), cfg.Sheets.CredentialsFile)
	if err != nil {
		log.Warn("Google Sheets disabled: %s", err.Error())
		return nil
	}
	return client
}
