// Package client реализует клиентскую библиотеку протокола приёма временных рядов.
// Клиент строит аутентифицированные запросы одиночной и пакетной записи,
// а также чтения последней точки, и переводит HTTP-исходы в типизированные ошибки.
//
// Клиент не хранит изменяемого состояния между вызовами: только базовый адрес,
// владельца, учётные данные и таймауты. Безопасен для одновременного
// использования из нескольких горутин.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-statistics-project/internal/models"
	"github.com/levinOo/go-statistics-project/internal/pool"
)

// Типы протокола совпадают с серверной моделью; алиасы делают их доступными
// потребителям клиентской библиотеки без импорта внутренних пакетов.
type (
	TimeSeriesPoint      = models.TimeSeriesPoint
	TimeSeriesDefinition = models.TimeSeriesDefinition
	MeasurementDistance  = models.MeasurementDistance
)

// Поддерживаемые значения гранулярности.
const (
	DistanceMinutes = models.DistanceMinutes
	DistanceHours   = models.DistanceHours
	DistanceDays    = models.DistanceDays
	DistanceMonths  = models.DistanceMonths
	DistanceYears   = models.DistanceYears
)

// Типизированные ошибки клиента. Проверяются через errors.Is.
var (
	// ErrConnectFailed означает транспортный сбой (DNS, TCP, таймаут).
	// Не говорит ничего о том, получил ли сервер запрос.
	ErrConnectFailed = errors.New("connect failed")

	// ErrDataPointAlreadyExists означает конфликт: точка с такой временной
	// меткой уже записана. Ожидаемый сигнал идемпотентного повтора.
	ErrDataPointAlreadyExists = errors.New("data point already exists")

	// ErrUnauthorized означает отклонённые учётные данные или несовпадение владельца.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFailed означает любой другой неуспешный статус; текст содержит код.
	ErrFailed = errors.New("ingest failed")

	// ErrMalformedURL означает некорректный базовый адрес.
	// Обнаруживается при создании клиента, а не при вызове.
	ErrMalformedURL = errors.New("malformed base url")
)

// Config задаёт неизменяемые параметры подключения клиента.
type Config struct {
	// BaseURL содержит базовый адрес сервиса приёма, например "http://localhost:8080".
	BaseURL string

	// Owner содержит владельца рядов; подставляется в путь каждого запроса.
	Owner string

	// Identity и Secret образуют учётные данные Basic-аутентификации.
	Identity string
	Secret   string

	// ConnectTimeout ограничивает установление TCP-соединения. По умолчанию 5 секунд.
	ConnectTimeout time.Duration

	// ReadTimeout ограничивает весь запрос, включая чтение ответа. По умолчанию 10 секунд.
	ReadTimeout time.Duration
}

// Client выполняет операции протокола приёма. Создаётся через New.
type Client struct {
	http    *resty.Client
	baseURL *url.URL
	owner   string
	bufs    *pool.Pool[*bytes.Buffer]
}

// New создаёт клиента с проверкой базового адреса.
// Некорректный адрес возвращает ErrMalformedURL сразу, до первого вызова.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedURL, cfg.BaseURL)
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetTransport(&http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		}).
		SetTimeout(readTimeout).
		SetBasicAuth(cfg.Identity, cfg.Secret).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    httpClient,
		baseURL: base,
		owner:   cfg.Owner,
		bufs:    pool.New[*bytes.Buffer](func() *bytes.Buffer { return &bytes.Buffer{} }),
	}, nil
}

// IngestOne записывает одну точку в ряд. Успех не возвращает значения.
// Повтор с той же временной меткой возвращает ErrDataPointAlreadyExists.
func (c *Client) IngestOne(def TimeSeriesDefinition, point TimeSeriesPoint) error {
	buf := c.bufs.Get()
	defer c.bufs.Put(buf)

	if err := json.NewEncoder(buf).Encode(point); err != nil {
		return fmt.Errorf("%w: failed to encode point: %v", ErrFailed, err)
	}

	resp, err := c.http.R().
		SetBody(buf.Bytes()).
		Post(c.ingestURL(def))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	return handleStatus(resp.StatusCode())
}

// IngestMany записывает пакет точек одним запросом, сохраняя порядок списка.
// Конфликт любой точки пакета возвращает ErrDataPointAlreadyExists для всего запроса.
func (c *Client) IngestMany(def TimeSeriesDefinition, points []TimeSeriesPoint) error {
	buf := c.bufs.Get()
	defer c.bufs.Put(buf)

	if err := json.NewEncoder(buf).Encode(points); err != nil {
		return fmt.Errorf("%w: failed to encode points: %v", ErrFailed, err)
	}

	resp, err := c.http.R().
		SetBody(buf.Bytes()).
		SetQueryParam("bulk", "true").
		Post(c.ingestURL(def))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	return handleStatus(resp.StatusCode())
}

// Last возвращает последнюю точку ряда или nil, если ряд пуст.
// Пустой ряд — нормальный результат, а не ошибка.
func (c *Client) Last(def TimeSeriesDefinition) (*TimeSeriesPoint, error) {
	resp, err := c.http.R().Get(c.lastURL(def))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	switch resp.StatusCode() {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("%w: failed to get response from ingest service (%d)", ErrFailed, resp.StatusCode())
	}

	var point TimeSeriesPoint
	if err := json.Unmarshal(resp.Body(), &point); err != nil {
		return nil, fmt.Errorf("%w: failed to decode last point: %v", ErrFailed, err)
	}

	return &point, nil
}

func (c *Client) ingestURL(def TimeSeriesDefinition) string {
	return c.baseURL.JoinPath(c.owner, def.Name, string(def.Distance)).String()
}

func (c *Client) lastURL(def TimeSeriesDefinition) string {
	return c.baseURL.JoinPath(c.owner, def.Name, string(def.Distance), "last").String()
}

// handleStatus переводит код ответа в результат; таблица соответствия
// одна для всех операций записи.
func handleStatus(code int) error {
	switch code {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrDataPointAlreadyExists
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: failed to authorize ingest request (%d)", ErrUnauthorized, code)
	case http.StatusNotFound:
		return fmt.Errorf("%w: URL not found", ErrFailed)
	default:
		return fmt.Errorf("%w (%d)", ErrFailed, code)
	}
}
