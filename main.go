package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"healthwatch/config"
	"healthwatch/internal/geocode"
	"healthwatch/internal/handler"
	"healthwatch/internal/logger"
	"healthwatch/internal/mailer"
	"healthwatch/internal/model"
	"healthwatch/internal/service"
	"healthwatch/internal/store"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// collections bundles the per-entity stores built once at startup.
type collections struct {
	users   store.Collection[*model.User]
	reports store.Collection[*model.Report]
	alerts  store.Collection[*model.Alert]
	groups  store.Collection[*model.ContactGroup]
	tickets store.Collection[*model.SupportTicket]
}

func main() {
	cfg, err := config.LoadConfig("config/config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Pick the storage backend once. A reachable database wins; otherwise
	// every collection falls back to the JSON-file store.
	cols, err := openCollections(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to open storage", zap.Error(err))
	}

	populator := store.NewPopulator()
	populator.Register(model.UserCollection, cols.users)
	populator.Register(model.ContactGroupCollection, cols.groups)

	mail := mailer.NewSMTP(mailer.Config{
		Enabled:  cfg.SMTP.Enabled,
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, zlog)

	geocoder := geocode.NewClient(
		cfg.Geocode.BaseURL,
		time.Duration(cfg.Geocode.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Geocode.CacheTTLMin)*time.Minute,
		zlog,
	)

	broadcaster := service.NewBroadcaster(cols.users, cols.groups, mail, zlog)

	authService := service.NewAuthService(cols.users, cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	reportService := service.NewReportService(cols.reports, populator, zlog)
	alertService := service.NewAlertService(cols.alerts, cols.reports, broadcaster, populator, zlog)
	contactService := service.NewContactService(cols.groups)
	supportService := service.NewSupportService(cols.tickets, populator)
	statsService := service.NewStatsService(cols.reports, cols.alerts)

	r := handler.NewRouter(handler.Handlers{
		Auth:    handler.NewAuthHandler(authService, zlog),
		Report:  handler.NewReportHandler(reportService, zlog),
		Alert:   handler.NewAlertHandler(alertService, zlog),
		Contact: handler.NewContactHandler(contactService, zlog),
		Support: handler.NewSupportHandler(supportService, zlog),
		Stats:   handler.NewStatsHandler(statsService, geocoder, zlog),
	}, cfg.JWT.Secret)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zlog.Fatal("server failed", zap.Error(err))
	}
}

// openCollections connects to Postgres when configured and reachable,
// otherwise returns file-backed collections under the data directory.
func openCollections(cfg *config.Config, zlog *zap.Logger) (*collections, error) {
	if cfg.Database.Host != "" {
		db, err := openDatabase(cfg.Database)
		if err != nil {
			zlog.Warn("database unreachable, falling back to local JSON store", zap.Error(err))
		} else {
			zlog.Info("connected to database", zap.String("host", cfg.Database.Host))
			return postgresCollections(db)
		}
	} else {
		zlog.Info("no database configured, using local JSON store",
			zap.String("dataDir", cfg.Storage.DataDir))
	}
	return fileCollections(cfg.Storage.DataDir, zlog)
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func postgresCollections(db *sql.DB) (*collections, error) {
	users, err := store.NewPostgres[*model.User](db, model.UserCollection)
	if err != nil {
		return nil, err
	}
	reports, err := store.NewPostgres[*model.Report](db, model.ReportCollection)
	if err != nil {
		return nil, err
	}
	alerts, err := store.NewPostgres[*model.Alert](db, model.AlertCollection)
	if err != nil {
		return nil, err
	}
	groups, err := store.NewPostgres[*model.ContactGroup](db, model.ContactGroupCollection)
	if err != nil {
		return nil, err
	}
	tickets, err := store.NewPostgres[*model.SupportTicket](db, model.SupportTicketCollection)
	if err != nil {
		return nil, err
	}
	return &collections{users: users, reports: reports, alerts: alerts, groups: groups, tickets: tickets}, nil
}

func fileCollections(dataDir string, zlog *zap.Logger) (*collections, error) {
	users, err := store.NewFile[*model.User](dataDir, model.UserCollection, zlog)
	if err != nil {
		return nil, err
	}
	reports, err := store.NewFile[*model.Report](dataDir, model.ReportCollection, zlog)
	if err != nil {
		return nil, err
	}
	alerts, err := store.NewFile[*model.Alert](dataDir, model.AlertCollection, zlog)
	if err != nil {
		return nil, err
	}
	groups, err := store.NewFile[*model.ContactGroup](dataDir, model.ContactGroupCollection, zlog)
	if err != nil {
		return nil, err
	}
	tickets, err := store.NewFile[*model.SupportTicket](dataDir, model.SupportTicketCollection, zlog)
	if err != nil {
		return nil, err
	}
	return &collections{users: users, reports: reports, alerts: alerts, groups: groups, tickets: tickets}, nil
}
