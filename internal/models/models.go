// Package models содержит структуры данных, описывающие основные сущности предметной области.
// Пакет не содержит бизнес-логику и используется для передачи данных между слоями приложения.
package models

import (
	"fmt"
	"time"
)

// MeasurementDistance определяет фиксированную гранулярность временного ряда.
// Гранулярность входит в идентичность ряда, а не отдельной точки.
type MeasurementDistance string

// Поддерживаемые значения гранулярности.
const (
	DistanceMinutes MeasurementDistance = "minutes"
	DistanceHours   MeasurementDistance = "hours"
	DistanceDays    MeasurementDistance = "days"
	DistanceMonths  MeasurementDistance = "months"
	DistanceYears   MeasurementDistance = "years"
)

// ParseDistance преобразует сегмент пути в MeasurementDistance.
// Возвращает ошибку для неизвестных значений.
func ParseDistance(s string) (MeasurementDistance, error) {
	switch MeasurementDistance(s) {
	case DistanceMinutes, DistanceHours, DistanceDays, DistanceMonths, DistanceYears:
		return MeasurementDistance(s), nil
	}
	return "", fmt.Errorf("unknown measurement distance %q", s)
}

// TimeSeriesPoint представляет одно наблюдение временного ряда:
// временную метку и набор именованных целочисленных измерений.
// Временная метка сериализуется в формате RFC3339 с явным смещением зоны.
type TimeSeriesPoint struct {
	// Timestamp содержит момент наблюдения с явной временной зоной.
	Timestamp time.Time `json:"timestamp"`

	// Measurements содержит отображение имени измерения в целочисленное значение.
	Measurements map[string]int64 `json:"measurements"`
}

// Equal сравнивает две точки структурно: по моменту времени и набору измерений.
func (p TimeSeriesPoint) Equal(other TimeSeriesPoint) bool {
	if !p.Timestamp.Equal(other.Timestamp) {
		return false
	}
	if len(p.Measurements) != len(other.Measurements) {
		return false
	}
	for name, value := range p.Measurements {
		v, ok := other.Measurements[name]
		if !ok || v != value {
			return false
		}
	}
	return true
}

// Valid проверяет, что точка корректно сформирована: метка времени задана
// и присутствует хотя бы одно измерение.
func (p TimeSeriesPoint) Valid() bool {
	return !p.Timestamp.IsZero() && len(p.Measurements) > 0
}

// TimeSeriesDefinition идентифицирует ровно один логический временной ряд.
// Определения создаются вызывающей стороной и используются только как ключ адресации.
type TimeSeriesDefinition struct {
	// Name содержит имя ряда.
	Name string `json:"name"`

	// Distance определяет гранулярность ряда.
	Distance MeasurementDistance `json:"distance"`

	// Owner содержит идентификатор владельца ряда. Запись в ряд разрешена
	// только аутентифицированному владельцу.
	Owner string `json:"owner"`
}

// Credential содержит пару идентификатор/секрет, передаваемую один раз на запрос.
// Протокольный слой никогда не сохраняет учётные данные.
type Credential struct {
	Identity string
	Secret   string
}

// SeriesData объединяет определение ряда с его точками.
// Используется для снапшотов хранилища на диск и восстановления при старте.
type SeriesData struct {
	Definition TimeSeriesDefinition `json:"definition"`
	Points     []TimeSeriesPoint    `json:"points"`
}

// Data представляет событие аудита с информацией об операции записи.
// Используется для логирования операций с временными рядами.
type Data struct {
	// TS содержит временную метку события в формате Unix timestamp.
	TS int64 `json:"ts"`

	// Owner содержит владельца ряда, в который выполнялась запись.
	Owner string `json:"owner"`

	// Series содержит имя ряда.
	Series string `json:"series"`

	// Count содержит количество принятых точек.
	Count int `json:"count"`

	// IP содержит IP-адрес клиента, выполнившего операцию.
	IP string `json:"ip_address"`
}

// DataList содержит накопленный журнал событий аудита.
type DataList struct {
	Events []Data `json:"events"`
}
