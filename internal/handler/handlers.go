package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/levinOo/go-statistics-project/internal/audit"
	"github.com/levinOo/go-statistics-project/internal/auth"
	"github.com/levinOo/go-statistics-project/internal/config"
	"github.com/levinOo/go-statistics-project/internal/logger"
	"github.com/levinOo/go-statistics-project/internal/models"
	"github.com/levinOo/go-statistics-project/internal/repository"
	"go.uber.org/zap"
)

func NewRouter(storage repository.Storage, authenticator auth.Authenticator, sugar *zap.SugaredLogger, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/ping", LoggerFuncServer(PingHandler(storage), sugar))

	r.Route("/{owner}/{seriesName}/{distance}", func(r chi.Router) {
		r.Post("/", LoggerFuncServer(DecompressMiddleware(IngestHandler(storage, authenticator, cfg, sugar)), sugar))
		r.Get("/last", LoggerFuncServer(LastHandler(storage), sugar))
	})

	return r
}

func LoggerFuncServer(h http.Handler, sugar *zap.SugaredLogger) http.HandlerFunc {
	logFn := func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()

		responseData := &logger.ResponseData{
			Size:   0,
			Status: 0,
		}
		lw := logger.LoggingRW{
			ResponseWriter: rw,
			ResponseData:   responseData,
		}

		h.ServeHTTP(&lw, r)

		dur := time.Since(start)

		sugar.Infoln(
			"uri", r.RequestURI,
			"method", r.Method,
			"duration", dur,
			"status", responseData.Status,
			"size", responseData.Size,
		)
	}
	return http.HandlerFunc(logFn)
}

func DecompressMiddleware(h http.Handler) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(rw, "Failed to decompress gzip body", http.StatusBadRequest)
				return
			}
			defer gz.Close()

			body, err := io.ReadAll(gz)
			if err != nil {
				http.Error(rw, "Failed to read decompressed body", http.StatusInternalServerError)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
		}
		h.ServeHTTP(rw, r)
	}
}

func PingHandler(storage repository.Storage) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := storage.Ping(ctx); err != nil {
			http.Error(rw, "No connection with Database", http.StatusInternalServerError)
			return
		}

		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("Database is reachable"))
	}
}

func IngestHandler(storage repository.Storage, authenticator auth.Authenticator, cfg config.Config, sugar *zap.SugaredLogger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		seriesName := chi.URLParam(r, "seriesName")

		distance, err := models.ParseDistance(chi.URLParam(r, "distance"))
		if err != nil {
			http.Error(rw, "Unknown measurement distance", http.StatusBadRequest)
			return
		}

		identity, secret, ok := r.BasicAuth()
		if !ok {
			rw.Header().Set("WWW-Authenticate", `Basic realm="statistics"`)
			http.Error(rw, "Authentication required", http.StatusUnauthorized)
			return
		}

		// Проверка выполняется заново на каждый запрос, без кэширования.
		verdict, err := auth.Verify(authenticator, models.Credential{Identity: identity, Secret: secret}, owner)
		if err != nil {
			sugar.Errorw("Authentication check failed", "error", err)
			http.Error(rw, "Authentication service unavailable", http.StatusInternalServerError)
			return
		}

		switch verdict {
		case auth.Unauthorized:
			rw.Header().Set("WWW-Authenticate", `Basic realm="statistics"`)
			http.Error(rw, "Invalid credentials", http.StatusUnauthorized)
			return
		case auth.Forbidden:
			http.Error(rw, "Authenticated identity does not own this series", http.StatusForbidden)
			return
		}

		def := models.TimeSeriesDefinition{
			Name:     seriesName,
			Distance: distance,
			Owner:    owner,
		}

		if r.URL.Query().Get("bulk") == "true" {
			ingestBulk(rw, r, storage, def, cfg, sugar)
			return
		}

		ingestSingle(rw, r, storage, def, cfg, sugar)
	}
}

func ingestSingle(rw http.ResponseWriter, r *http.Request, storage repository.Storage, def models.TimeSeriesDefinition, cfg config.Config, sugar *zap.SugaredLogger) {
	var point models.TimeSeriesPoint

	if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
		http.Error(rw, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !point.Valid() {
		http.Error(rw, "Point must carry a timestamp and at least one measurement", http.StatusBadRequest)
		return
	}

	if err := storage.InsertPoint(def, point); err != nil {
		if errors.Is(err, repository.ErrPointExists) {
			http.Error(rw, "Data point already exists", http.StatusConflict)
			return
		}
		sugar.Errorw("Failed to insert point", "series", def.Name, "owner", def.Owner, "error", err)
		http.Error(rw, "Failed to store point", http.StatusInternalServerError)
		return
	}

	audit.NewIngestEvent(def, 1, cfg.AuditFile, cfg.AuditURL, clientIP(r))
	sugar.Debugw("Point ingested", "series", def.Name, "owner", def.Owner, "timestamp", point.Timestamp)

	rw.WriteHeader(http.StatusCreated)
	_, err := rw.Write([]byte("Created"))
	if err != nil {
		log.Printf("write status code error: %v", err)
	}
}

func ingestBulk(rw http.ResponseWriter, r *http.Request, storage repository.Storage, def models.TimeSeriesDefinition, cfg config.Config, sugar *zap.SugaredLogger) {
	var points []models.TimeSeriesPoint

	if err := json.NewDecoder(r.Body).Decode(&points); err != nil {
		http.Error(rw, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	for _, point := range points {
		if !point.Valid() {
			http.Error(rw, "Every point must carry a timestamp and at least one measurement", http.StatusBadRequest)
			return
		}
	}

	if err := storage.InsertPointsBatch(def, points); err != nil {
		if errors.Is(err, repository.ErrPointExists) {
			http.Error(rw, "Data point already exists", http.StatusConflict)
			return
		}
		sugar.Errorw("Failed to insert batch", "series", def.Name, "owner", def.Owner, "count", len(points), "error", err)
		http.Error(rw, "Failed to store points", http.StatusInternalServerError)
		return
	}

	audit.NewIngestEvent(def, len(points), cfg.AuditFile, cfg.AuditURL, clientIP(r))
	sugar.Debugw("Batch ingested", "series", def.Name, "owner", def.Owner, "count", len(points))

	rw.WriteHeader(http.StatusOK)
	_, err := rw.Write([]byte("OK"))
	if err != nil {
		log.Printf("write status code error: %v", err)
	}
}

func LastHandler(storage repository.Storage) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		seriesName := chi.URLParam(r, "seriesName")

		distance, err := models.ParseDistance(chi.URLParam(r, "distance"))
		if err != nil {
			http.Error(rw, "Unknown measurement distance", http.StatusBadRequest)
			return
		}

		def := models.TimeSeriesDefinition{
			Name:     seriesName,
			Distance: distance,
			Owner:    owner,
		}

		point, err := storage.Last(def)
		if err != nil {
			log.Printf("last point read error: %v", err)
			http.Error(rw, "Failed to read last point", http.StatusInternalServerError)
			return
		}

		// Пустой ряд — нормальное представимое состояние, а не ошибка.
		if point == nil {
			rw.WriteHeader(http.StatusNoContent)
			return
		}

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			rw.Header().Set("Content-Encoding", "gzip")
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(http.StatusOK)

			gz := gzip.NewWriter(rw)
			defer gz.Close()

			if err := json.NewEncoder(gz).Encode(point); err != nil {
				log.Printf("response gzip encode error: %v", err)
			}
		} else {
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(http.StatusOK)

			if err := json.NewEncoder(rw).Encode(point); err != nil {
				log.Printf("response encode error: %v", err)
			}
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
