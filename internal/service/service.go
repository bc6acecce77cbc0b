// Package service предоставляет основной функционал сервера приёма временных рядов.
// Пакет управляет жизненным циклом HTTP-сервера, периодическими снапшотами рядов
// и корректным завершением работы при получении системных сигналов.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/levinOo/go-statistics-project/internal/auth"
	"github.com/levinOo/go-statistics-project/internal/config"
	"github.com/levinOo/go-statistics-project/internal/config/db"
	"github.com/levinOo/go-statistics-project/internal/handler"
	"github.com/levinOo/go-statistics-project/internal/logger"
	"github.com/levinOo/go-statistics-project/internal/models"
	"github.com/levinOo/go-statistics-project/internal/repository"
	"github.com/levinOo/go-statistics-project/migrations"
	"go.uber.org/zap"
)

// ServerComponents содержит все компоненты, необходимые для работы сервера.
type ServerComponents struct {
	server *http.Server
	store  repository.Storage
	logger *zap.SugaredLogger
	dbConn *sql.DB
}

// PeriodicSaver управляет автоматическим периодическим сохранением рядов на диск.
// Запускает фоновую горутину, которая делает снапшот через заданные интервалы времени.
type PeriodicSaver struct {
	store    repository.Storage
	interval time.Duration
	filePath string
	logger   *zap.SugaredLogger
	stopCh   chan struct{}
	done     chan struct{}
}

// Serve инициализирует и запускает сервер с указанной конфигурацией.
// Настраивает хранилище (в памяти или база данных), аутентификатор,
// периодические снапшоты и обрабатывает корректное завершение работы по SIGINT/SIGTERM.
//
// Возвращает ошибку, если запуск или завершение сервера завершились неудачей.
func Serve(cfg config.Config) error {
	sugar := logger.NewLogger()

	server, err := setupServer(cfg, sugar)
	if err != nil {
		return err
	}

	saver := setupPeriodicSaver(cfg, server.store, sugar)

	return runServerWithGracefulShutdown(server, saver, cfg)
}

func setupServer(cfg config.Config, sugar *zap.SugaredLogger) (*ServerComponents, error) {
	sugar.Infow("Starting server with config",
		"address", cfg.Addr,
		"storeInterval", cfg.StoreInterval,
		"fileStorage", cfg.FileStorage,
		"restore", cfg.Restore,
		"addressDB", cfg.AddrDB,
		"authURL", cfg.AuthURL,
	)

	var storage repository.Storage
	var dbConn *sql.DB

	if cfg.AddrDB != "" {
		conn, err := db.ConnectDB(cfg.AddrDB, sugar)
		if err != nil {
			sugar.Errorw("Failed to connect to DB", "error", err)
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}

		if err := migrations.RunMigrations(cfg.AddrDB, "migrations"); err != nil {
			sugar.Errorw("Failed to run migrations", "error", err)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		dbConn = conn
		storage = repository.NewDBStorage(conn)
	} else {
		storage = repository.NewMemStorage()
	}

	if cfg.Restore {
		if err := loadFromFile(storage, cfg.FileStorage, sugar); err != nil {
			sugar.Errorw("Failed to load series from file", "error", err)
		}
	}

	var authenticator auth.Authenticator
	if cfg.AuthURL != "" {
		authenticator = auth.NewRESTAuthenticator(cfg.AuthURL, 5*time.Second)
	} else {
		authenticator = auth.NewStaticAuthenticator(auth.ParseStaticUsers(cfg.Users))
	}

	router := handler.NewRouter(storage, authenticator, sugar, cfg)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	return &ServerComponents{
		server: srv,
		store:  storage,
		logger: sugar,
		dbConn: dbConn,
	}, nil
}

func setupPeriodicSaver(cfg config.Config, storage repository.Storage, sugar *zap.SugaredLogger) *PeriodicSaver {
	if cfg.StoreInterval <= 0 {
		sugar.Infow("Periodic save disabled", "storeInterval", cfg.StoreInterval)
		return nil
	}

	saver := NewPeriodicSaver(storage, cfg.FileStorage, time.Duration(cfg.StoreInterval)*time.Second, sugar)
	saver.Start()

	return saver
}

// NewPeriodicSaver создает новый экземпляр PeriodicSaver, который будет сохранять ряды
// в указанный файл с заданным интервалом. Сохранение необходимо запустить методом Start
// и остановить методом Stop когда оно больше не требуется.
func NewPeriodicSaver(store repository.Storage, filePath string, interval time.Duration, logger *zap.SugaredLogger) *PeriodicSaver {
	return &PeriodicSaver{
		store:    store,
		interval: interval,
		filePath: filePath,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает операцию периодического сохранения в фоновой горутине.
func (ps *PeriodicSaver) Start() {
	go func() {
		defer close(ps.done)
		ticker := time.NewTicker(ps.interval)
		defer ticker.Stop()

		ps.logger.Infow("Starting periodic save", "interval", ps.interval, "file", ps.filePath)

		for {
			select {
			case <-ticker.C:
				ps.logger.Debugw("Periodic save triggered")
				if err := saveToFile(ps.store, ps.filePath, ps.logger); err != nil {
					ps.logger.Errorw("Failed to save series", "error", err)
				} else {
					ps.logger.Debugw("Series saved successfully", "file", ps.filePath)
				}
			case <-ps.stopCh:
				ps.logger.Debugw("Stopping periodic save")
				return
			}
		}
	}()
}

// Stop корректно останавливает операцию периодического сохранения и ожидает
// завершения фоновой горутины.
func (ps *PeriodicSaver) Stop() {
	if ps.stopCh != nil {
		close(ps.stopCh)
		<-ps.done
	}
}

func runServerWithGracefulShutdown(components *ServerComponents, saver *PeriodicSaver, cfg config.Config) error {
	server := components.server
	storage := components.store
	sugar := components.logger

	serverErr := make(chan error, 1)

	go func() {
		sugar.Infow("HTTP server started", "address", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			sugar.Errorw("Server error", "error", err)
			if saver != nil {
				saver.Stop()
			}
			return fmt.Errorf("server error: %w", err)
		}
	case <-quit:
		sugar.Infoln("Shutting down server...")
	}

	return gracefulShutdown(cfg, sugar, storage, server, saver, components.dbConn)
}

func gracefulShutdown(cfg config.Config, sugar *zap.SugaredLogger, store repository.Storage, srv *http.Server, saver *PeriodicSaver, dbConn *sql.DB) error {
	if saver != nil {
		saver.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("Server shutdown error", "error", err)
	}

	sugar.Infow("Performing final save on shutdown", "file", cfg.FileStorage)
	if err := saveToFile(store, cfg.FileStorage, sugar); err != nil {
		return fmt.Errorf("failed to save series on shutdown: %w", err)
	}

	if dbConn != nil {
		sugar.Infow("Closing database connection")
		if err := dbConn.Close(); err != nil {
			sugar.Errorw("Error closing database connection", "error", err)
		}
	}

	sugar.Infoln("Series saved and server stopped gracefully")
	return nil
}

func saveToFile(store repository.Storage, fileName string, sugar *zap.SugaredLogger) error {
	if fileName == "" {
		sugar.Debugw("Save skipped - no filename specified")
		return nil
	}

	sugar.Debugw("Starting save to file", "file", fileName)

	allSeries, err := store.GetAll()
	if err != nil {
		return fmt.Errorf("failed to get all series: %w", err)
	}
	sugar.Debugw("Retrieved series from storage", "count", len(allSeries))

	data, err := json.MarshalIndent(allSeries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize series: %w", err)
	}

	if err := writeFile(fileName, data); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fileName, err)
	}

	sugar.Debugw("Successfully saved series", "file", fileName, "size", len(data))
	return nil
}

func loadFromFile(store repository.Storage, fileName string, sugar *zap.SugaredLogger) error {
	if fileName == "" {
		return nil
	}

	data, err := readFile(fileName, sugar)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		sugar.Infow("Snapshot file is empty, starting with empty storage", "file", fileName)
		return nil
	}

	var allSeries []models.SeriesData
	if err := json.Unmarshal(data, &allSeries); err != nil {
		return fmt.Errorf("failed to unmarshal series from %s: %w", fileName, err)
	}

	count := 0
	for _, series := range allSeries {
		for _, point := range series.Points {
			// Восстановление идёт через insert-if-absent, поэтому рестарт
			// поверх живой базы не дублирует точки.
			err := store.InsertPoint(series.Definition, point)
			if err != nil {
				if errors.Is(err, repository.ErrPointExists) {
					continue
				}
				sugar.Warnw("Failed to restore point", "series", series.Definition.Name, "error", err)
				continue
			}
			count++
		}
	}

	sugar.Infow("Series loaded successfully", "file", fileName, "points", count)
	return nil
}

func readFile(fileName string, sugar *zap.SugaredLogger) ([]byte, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			sugar.Infow("Snapshot file does not exist, starting with empty storage", "file", fileName)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file %s: %w", fileName, err)
	}
	return data, nil
}

func writeFile(fileName string, data []byte) error {
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}
