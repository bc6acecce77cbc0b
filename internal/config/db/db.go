package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// ConnectDB открывает подключение к PostgreSQL и проверяет его доступность.
// При недоступной базе выполняет повторные попытки с интервалами 1с, 3с и 5с.
func ConnectDB(dsn string, sugar *zap.SugaredLogger) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	intervals := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = conn.PingContext(ctx)
		cancel()

		if err == nil {
			return conn, nil
		}

		if attempt >= len(intervals) {
			break
		}

		sugar.Infow("Database not ready, retrying", "attempt", attempt+1, "error", err)
		time.Sleep(intervals[attempt])
	}

	conn.Close()
	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
