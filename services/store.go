package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/services/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StoreDriverCSV      = "csv"
	StoreDriverPostgres = "postgres"
	StoreDriverSqlite   = "sqlite"
)

// StoreService owns the record store shared by the game and the distribution
// services. Every mutation goes through the store's single write lock.
type StoreService struct {
	context.DefaultService
	store repositories.RecordStore

	driver       string
	database     string
	sessionsPath string
	dataDir      string
}

const STORE_SVC = "store_svc"

func (ds StoreService) Id() string {
	return STORE_SVC
}

// Store returns the configured record store.
func (ds *StoreService) Store() repositories.RecordStore {
	return ds.store
}

// NewStoreServiceWith wraps an already opened store. Used by tests and the seed CLI.
func NewStoreServiceWith(store repositories.RecordStore) *StoreService {
	return &StoreService{store: store}
}

func (ds *StoreService) Configure(ctx *context.Context) error {
	ds.driver = strings.ToLower(os.Getenv("STORE_DRIVER"))
	if ds.driver == "" {
		ds.driver = StoreDriverCSV
	}

	ds.sessionsPath = os.Getenv("GAME_OUTPUT")
	if ds.sessionsPath == "" {
		ds.sessionsPath = filepath.Join("data", "resultats.csv")
	}
	ds.dataDir = os.Getenv("DATA_DIR")
	if ds.dataDir == "" {
		ds.dataDir = "data"
	}

	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		switch ds.driver {
		case StoreDriverSqlite:
			ds.database = filepath.Join(ds.dataDir, "guessword.db")
		case StoreDriverPostgres:
			host := os.Getenv("DB_HOST")
			if host == "" {
				host = "localhost"
			}
			port := os.Getenv("DB_PORT")
			if port == "" {
				port = "5432"
			}
			user := os.Getenv("DB_USER")
			if user == "" {
				user = "postgres"
			}
			password := os.Getenv("DB_PASSWORD")
			if password == "" {
				password = "postgres"
			}
			dbname := os.Getenv("DB_NAME")
			if dbname == "" {
				dbname = "guessword"
			}
			ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				host, user, password, dbname, port)
		}
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *StoreService) Start() (err error) {
	if ds.store != nil {
		return nil
	}

	switch ds.driver {
	case StoreDriverCSV:
		ds.store, err = repositories.NewCSVStore(ds.sessionsPath, ds.dataDir)
	case StoreDriverSqlite:
		ds.store, err = ds.openSqlite()
	case StoreDriverPostgres:
		ds.store, err = ds.openPostgres()
	default:
		err = fmt.Errorf("unknown STORE_DRIVER %q", ds.driver)
	}
	if err != nil {
		log.WithField("driver", ds.driver).Errorf("Failed to open record store: %v", err)
		return err
	}

	log.WithField("driver", ds.driver).Info("Record store ready")
	return nil
}

func (ds *StoreService) openSqlite() (*repositories.GormStore, error) {
	if err := os.MkdirAll(filepath.Dir(ds.database), 0o750); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(ds.database), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	return repositories.NewGormStore(db)
}

func (ds *StoreService) openPostgres() (*repositories.GormStore, error) {
	maxRetries := 10
	retryDelay := time.Second

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			return nil, fmt.Errorf("connect after %d attempts: %w", maxRetries, err)
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	return repositories.NewGormStore(db)
}

func (ds *StoreService) Shutdown() {
	if ds.store == nil {
		return
	}
	if err := ds.store.Close(); err != nil {
		log.Errorf("Failed to close record store: %v", err)
	}
}

// HandleError logs a store failure with its classification and wraps it as a
// StoreIO error for the caller. Store failures are never retried.
func (ds *StoreService) HandleError(err error, operation string) error {
	if err == nil {
		return nil
	}

	errorType := "IO_ERROR"
	switch {
	case errors.Is(err, gorm.ErrInvalidTransaction):
		errorType = "TRANSACTION_ERROR"
	case errors.Is(err, os.ErrPermission):
		errorType = "PERMISSION_DENIED"
	case strings.Contains(err.Error(), "no such table"):
		errorType = "SCHEMA_ERROR"
	}

	log.WithFields(log.Fields{
		"operation":  operation,
		"driver":     ds.driver,
		"error_type": errorType,
		"error":      err.Error(),
	}).Error("Record store error occurred")

	return fmt.Errorf("%s: %w", errorType, err)
}

// logParseFailures reports rows that were skipped while reading a table.
func logParseFailures(failures []repositories.RowError) {
	for _, failure := range failures {
		log.WithFields(log.Fields{
			"table": failure.Table,
			"line":  failure.Line,
		}).Warnf("Skipping malformed row: %v", failure.Err)
	}
}
