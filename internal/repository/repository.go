package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/levinOo/go-statistics-project/internal/models"
)

// ErrPointExists возвращается при попытке записать точку с временной меткой,
// которая уже присутствует в данном ряду. Повторная запись не перезаписывает данные.
var ErrPointExists = errors.New("data point already exists")

type Storage interface {
	InsertPoint(def models.TimeSeriesDefinition, point models.TimeSeriesPoint) error
	InsertPointsBatch(def models.TimeSeriesDefinition, points []models.TimeSeriesPoint) error
	Last(def models.TimeSeriesDefinition) (*models.TimeSeriesPoint, error)
	GetAll() ([]models.SeriesData, error)
	Ping(ctx context.Context) error
}

// --------------------- DBStorage ---------------------

type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(db *sql.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (d *DBStorage) InsertPoint(def models.TimeSeriesDefinition, point models.TimeSeriesPoint) error {
	data, err := json.Marshal(point.Measurements)
	if err != nil {
		return fmt.Errorf("failed to marshal measurements: %w", err)
	}

	res, err := d.db.Exec(`
		INSERT INTO points (owner, series, distance, ts, measurements)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner, series, distance, ts) DO NOTHING
	`, def.Owner, def.Name, string(def.Distance), point.Timestamp, data)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPointExists
	}

	return nil
}

// InsertPointsBatch записывает пакет точек в одной транзакции.
// Любой конфликт временной метки откатывает весь пакет: после неудачной
// пакетной записи хранилище не содержит ни одной точки из пакета.
func (d *DBStorage) InsertPointsBatch(def models.TimeSeriesDefinition, points []models.TimeSeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}

	for _, point := range points {
		data, err := json.Marshal(point.Measurements)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal measurements: %w", err)
		}

		res, err := tx.Exec(`
			INSERT INTO points (owner, series, distance, ts, measurements)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (owner, series, distance, ts) DO NOTHING
		`, def.Owner, def.Name, string(def.Distance), point.Timestamp, data)
		if err != nil {
			tx.Rollback()
			log.Printf("Batch insert error: %v", err)
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return err
		}
		if affected == 0 {
			tx.Rollback()
			return ErrPointExists
		}
	}

	return tx.Commit()
}

func (d *DBStorage) Last(def models.TimeSeriesDefinition) (*models.TimeSeriesPoint, error) {
	var (
		ts  time.Time
		raw []byte
	)

	err := d.db.QueryRow(`
		SELECT ts, measurements FROM points
		WHERE owner=$1 AND series=$2 AND distance=$3
		ORDER BY ts DESC LIMIT 1
	`, def.Owner, def.Name, string(def.Distance)).Scan(&ts, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	measurements := make(map[string]int64)
	if err := json.Unmarshal(raw, &measurements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal measurements: %w", err)
	}

	return &models.TimeSeriesPoint{Timestamp: ts, Measurements: measurements}, nil
}

func (d *DBStorage) GetAll() ([]models.SeriesData, error) {
	rows, err := d.db.Query(`
		SELECT owner, series, distance, ts, measurements FROM points
		ORDER BY owner, series, distance, ts
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SeriesData

	for rows.Next() {
		var (
			owner    string
			series   string
			distance string
			ts       time.Time
			raw      []byte
		)

		if err := rows.Scan(&owner, &series, &distance, &ts, &raw); err != nil {
			return nil, err
		}

		measurements := make(map[string]int64)
		if err := json.Unmarshal(raw, &measurements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal measurements: %w", err)
		}

		def := models.TimeSeriesDefinition{
			Name:     series,
			Distance: models.MeasurementDistance(distance),
			Owner:    owner,
		}

		point := models.TimeSeriesPoint{Timestamp: ts, Measurements: measurements}

		if len(list) > 0 && list[len(list)-1].Definition == def {
			list[len(list)-1].Points = append(list[len(list)-1].Points, point)
		} else {
			list = append(list, models.SeriesData{
				Definition: def,
				Points:     []models.TimeSeriesPoint{point},
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DBStorage) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// --------------------- MemStorage ---------------------

type seriesKey struct {
	owner    string
	name     string
	distance models.MeasurementDistance
}

type MemStorage struct {
	mu     *sync.Mutex
	series map[seriesKey][]models.TimeSeriesPoint
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		mu:     &sync.Mutex{},
		series: make(map[seriesKey][]models.TimeSeriesPoint),
	}
}

func keyFor(def models.TimeSeriesDefinition) seriesKey {
	return seriesKey{owner: def.Owner, name: def.Name, distance: def.Distance}
}

func hasTimestamp(points []models.TimeSeriesPoint, ts time.Time) bool {
	for _, p := range points {
		if p.Timestamp.Equal(ts) {
			return true
		}
	}
	return false
}

func (m *MemStorage) InsertPoint(def models.TimeSeriesDefinition, point models.TimeSeriesPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyFor(def)
	if hasTimestamp(m.series[key], point.Timestamp) {
		return ErrPointExists
	}

	m.series[key] = append(m.series[key], point)
	return nil
}

// InsertPointsBatch проверяет все временные метки пакета до записи первой точки,
// поэтому частично конфликтующий пакет не сохраняет ничего.
func (m *MemStorage) InsertPointsBatch(def models.TimeSeriesDefinition, points []models.TimeSeriesPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyFor(def)
	existing := m.series[key]

	for i, point := range points {
		if hasTimestamp(existing, point.Timestamp) {
			return ErrPointExists
		}
		if hasTimestamp(points[:i], point.Timestamp) {
			return ErrPointExists
		}
	}

	m.series[key] = append(existing, points...)
	return nil
}

func (m *MemStorage) Last(def models.TimeSeriesDefinition) (*models.TimeSeriesPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	points := m.series[keyFor(def)]
	if len(points) == 0 {
		return nil, nil
	}

	last := points[0]
	for _, p := range points[1:] {
		if p.Timestamp.After(last.Timestamp) {
			last = p
		}
	}

	return &last, nil
}

func (m *MemStorage) GetAll() ([]models.SeriesData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []models.SeriesData

	for key, points := range m.series {
		if len(points) == 0 {
			continue
		}

		copied := make([]models.TimeSeriesPoint, len(points))
		copy(copied, points)

		list = append(list, models.SeriesData{
			Definition: models.TimeSeriesDefinition{
				Name:     key.name,
				Distance: key.distance,
				Owner:    key.owner,
			},
			Points: copied,
		})
	}

	return list, nil
}

func (m *MemStorage) Ping(ctx context.Context) error {
	return nil
}
