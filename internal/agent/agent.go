package agent

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/levinOo/go-statistics-project/pkg/client"
)

type Config struct {
	Addr        string `env:"ADDRESS"`
	Owner       string `env:"OWNER"`
	Identity    string `env:"IDENTITY"`
	Secret      string `env:"SECRET"`
	SpoolFile   string `env:"SPOOL_FILE"`
	ReqInterval int    `env:"REPORT_INTERVAL"`
}

// SpoolEntry описывает одну отложенную пакетную запись: ряд и его точки.
// Файл очереди содержит JSON-массив таких записей.
type SpoolEntry struct {
	Series   string                     `json:"series"`
	Distance client.MeasurementDistance `json:"distance"`
	Points   []client.TimeSeriesPoint   `json:"points"`
}

func LoadSpool(path string) ([]SpoolEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read spool file %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var entries []SpoolEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spool file %s: %w", path, err)
	}

	return entries, nil
}

func SaveSpool(path string, entries []SpoolEntry) error {
	if entries == nil {
		entries = []SpoolEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal spool: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write spool file %s: %w", path, err)
	}

	return nil
}

// ProcessSpool отправляет накопленные записи очереди на сервер.
// Конфликт трактуется как уже доставленные точки, и запись удаляется из очереди.
// При транспортном сбое оставшиеся записи сохраняются до следующего тика.
func ProcessSpool(c *client.Client, path string) error {
	entries, err := LoadSpool(path)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	remaining := make([]SpoolEntry, 0, len(entries))
	var lastErr error

	for i, entry := range entries {
		def := client.TimeSeriesDefinition{
			Name:     entry.Series,
			Distance: entry.Distance,
		}

		err := sendWithRetry(c, def, entry.Points)

		if errors.Is(err, client.ErrDataPointAlreadyExists) {
			log.Printf("Points for series %s already delivered, dropping spool entry", entry.Series)
			continue
		}

		if errors.Is(err, client.ErrConnectFailed) {
			remaining = append(remaining, entries[i:]...)
			lastErr = err
			break
		}

		if err != nil {
			log.Printf("Failed to deliver series %s: %v", entry.Series, err)
			remaining = append(remaining, entry)
			lastErr = err
			continue
		}
	}

	if err := SaveSpool(path, remaining); err != nil {
		return err
	}

	return lastErr
}

func sendWithRetry(c *client.Client, def client.TimeSeriesDefinition, points []client.TimeSeriesPoint) error {
	err := c.IngestMany(def, points)

	if errors.Is(err, client.ErrConnectFailed) {
		intervals := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

		for i := 0; i < 3; i++ {
			log.Printf("Retry attempt %d after error: %v", i+1, err)
			time.Sleep(intervals[i])

			err = c.IngestMany(def, points)
			if err == nil {
				log.Printf("Success after %d retries", i+1)
				break
			}

			if !errors.Is(err, client.ErrConnectFailed) {
				break
			}
		}
	}

	return err
}

func StartAgent() <-chan error {
	cfg := Config{}
	errCh := make(chan error)

	flag.StringVar(&cfg.Addr, "a", "localhost:8080", "Адрес сервера")
	flag.StringVar(&cfg.Owner, "o", "", "Владелец рядов")
	flag.StringVar(&cfg.Identity, "i", "", "Идентификатор для Basic-аутентификации")
	flag.StringVar(&cfg.Secret, "s", "", "Секрет для Basic-аутентификации")
	flag.StringVar(&cfg.SpoolFile, "f", "spool.json", "Путь к файлу очереди точек")
	flag.IntVar(&cfg.ReqInterval, "r", 10, "Значение интервала отправки в секундах")
	flag.Parse()

	err := env.Parse(&cfg)
	if err != nil {
		go func() { errCh <- fmt.Errorf("ошибка парсинга ENV: %w", err) }()
		return errCh
	}

	c, err := client.New(client.Config{
		BaseURL:  "http://" + cfg.Addr,
		Owner:    cfg.Owner,
		Identity: cfg.Identity,
		Secret:   cfg.Secret,
	})
	if err != nil {
		go func() { errCh <- fmt.Errorf("ошибка создания клиента: %w", err) }()
		return errCh
	}

	go func() {
		reqTicker := time.NewTicker(time.Second * time.Duration(cfg.ReqInterval))
		defer reqTicker.Stop()

		for range reqTicker.C {
			if err := ProcessSpool(c, cfg.SpoolFile); err != nil {
				log.Printf("Final sending points error: %v", err)
			}
		}
	}()

	return errCh
}
