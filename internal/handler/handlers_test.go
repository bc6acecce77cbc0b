package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/levinOo/go-statistics-project/internal/auth"
	"github.com/levinOo/go-statistics-project/internal/config"
	"github.com/levinOo/go-statistics-project/internal/models"
	"github.com/levinOo/go-statistics-project/internal/repository"
	"go.uber.org/zap"
)

func newTestRouter(storage repository.Storage) http.Handler {
	authenticator := auth.NewStaticAuthenticator(map[string]string{
		"aUser":       "aPassword",
		"anotherUser": "anotherPassword",
	})
	return NewRouter(storage, authenticator, zap.NewNop().Sugar(), config.Config{})
}

func pointJSON(t *testing.T, ts string) []byte {
	t.Helper()
	return []byte(`{"timestamp":"` + ts + `","measurements":{"antall":2,"feil":0}}`)
}

func TestIngestHandler(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		body       []byte
		identity   string
		secret     string
		noAuth     bool
		wantStatus int
	}{
		{
			name:       "valid point accepted",
			url:        "/aUser/aTimeSeries/minutes",
			body:       pointJSON(t, "2016-03-03T20:12:13+01:00"),
			identity:   "aUser",
			secret:     "aPassword",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing credentials",
			url:        "/aUser/aTimeSeries/minutes",
			body:       pointJSON(t, "2016-03-03T20:12:13+01:00"),
			noAuth:     true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			url:        "/aUser/aTimeSeries/minutes",
			body:       pointJSON(t, "2016-03-03T20:12:13+01:00"),
			identity:   "aUser",
			secret:     "wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "authenticated but not the owner",
			url:        "/aUser/aTimeSeries/minutes",
			body:       pointJSON(t, "2016-03-03T20:12:13+01:00"),
			identity:   "anotherUser",
			secret:     "anotherPassword",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown distance",
			url:        "/aUser/aTimeSeries/decades",
			body:       pointJSON(t, "2016-03-03T20:12:13+01:00"),
			identity:   "aUser",
			secret:     "aPassword",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			url:        "/aUser/aTimeSeries/minutes",
			body:       []byte(`{"timestamp":`),
			identity:   "aUser",
			secret:     "aPassword",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "point without measurements",
			url:        "/aUser/aTimeSeries/minutes",
			body:       []byte(`{"timestamp":"2016-03-03T20:12:13+01:00","measurements":{}}`),
			identity:   "aUser",
			secret:     "aPassword",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(repository.NewMemStorage())

			req := httptest.NewRequest(http.MethodPost, tt.url, bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noAuth {
				req.SetBasicAuth(tt.identity, tt.secret)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestIngestHandlerDuplicate(t *testing.T) {
	storage := repository.NewMemStorage()
	router := newTestRouter(storage)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/aUser/aTimeSeries/minutes",
			bytes.NewReader(pointJSON(t, "2016-03-03T20:12:13+01:00")))
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth("aUser", "aPassword")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusCreated {
		t.Fatalf("first ingest status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if rec := send(); rec.Code != http.StatusConflict {
		t.Errorf("duplicate ingest status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Повторная запись не должна ни перезаписать, ни задублировать точку.
	all, err := storage.GetAll()
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 1 || len(all[0].Points) != 1 {
		t.Errorf("storage holds %v, want exactly one point", all)
	}
}

func TestIngestHandlerForbiddenLeavesStorageUntouched(t *testing.T) {
	storage := repository.NewMemStorage()
	router := newTestRouter(storage)

	req := httptest.NewRequest(http.MethodPost, "/aUser/aTimeSeries/minutes",
		bytes.NewReader(pointJSON(t, "2016-03-03T20:12:13+01:00")))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("anotherUser", "anotherPassword")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	all, err := storage.GetAll()
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("storage holds %v after forbidden request, want empty", all)
	}
}

func TestIngestHandlerBulk(t *testing.T) {
	storage := repository.NewMemStorage()
	router := newTestRouter(storage)

	body := []byte(`[
		{"timestamp":"2016-03-03T20:12:13+01:00","measurements":{"antall":2}},
		{"timestamp":"2016-03-03T20:13:13+01:00","measurements":{"antall":3}}
	]`)

	req := httptest.NewRequest(http.MethodPost, "/aUser/aTimeSeries/minutes?bulk=true", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("aUser", "aPassword")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	all, err := storage.GetAll()
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 1 || len(all[0].Points) != 2 {
		t.Errorf("storage holds %v, want two points in one series", all)
	}
}

func TestIngestHandlerBulkConflict(t *testing.T) {
	storage := repository.NewMemStorage()
	router := newTestRouter(storage)

	def := models.TimeSeriesDefinition{
		Name:     "aTimeSeries",
		Distance: models.DistanceMinutes,
		Owner:    "aUser",
	}
	existing := models.TimeSeriesPoint{
		Timestamp:    time.Date(2016, 3, 3, 20, 12, 13, 0, time.FixedZone("", 3600)),
		Measurements: map[string]int64{"antall": 2},
	}
	if err := storage.InsertPoint(def, existing); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	body := []byte(`[
		{"timestamp":"2016-03-03T20:13:13+01:00","measurements":{"antall":3}},
		{"timestamp":"2016-03-03T20:12:13+01:00","measurements":{"antall":4}}
	]`)

	req := httptest.NewRequest(http.MethodPost, "/aUser/aTimeSeries/minutes?bulk=true", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("aUser", "aPassword")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Конфликтующий пакет отклоняется целиком.
	all, err := storage.GetAll()
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 1 || len(all[0].Points) != 1 {
		t.Errorf("storage holds %v, want only the seeded point", all)
	}
}

func TestLastHandler(t *testing.T) {
	storage := repository.NewMemStorage()
	router := newTestRouter(storage)

	def := models.TimeSeriesDefinition{
		Name:     "aTimeSeries",
		Distance: models.DistanceMinutes,
		Owner:    "aUser",
	}

	t1 := time.Date(2016, 3, 3, 20, 12, 13, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	for _, ts := range []time.Time{t2, t1} {
		err := storage.InsertPoint(def, models.TimeSeriesPoint{
			Timestamp:    ts,
			Measurements: map[string]int64{"antall": 2},
		})
		if err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	// Чтение последней точки не требует аутентификации.
	req := httptest.NewRequest(http.MethodGet, "/aUser/aTimeSeries/minutes/last", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got models.TimeSeriesPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !got.Timestamp.Equal(t2) {
		t.Errorf("last timestamp = %v, want %v", got.Timestamp, t2)
	}
}

func TestLastHandlerEmptySeries(t *testing.T) {
	router := newTestRouter(repository.NewMemStorage())

	req := httptest.NewRequest(http.MethodGet, "/aUser/aTimeSeries/minutes/last", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestLastHandlerUnknownDistance(t *testing.T) {
	router := newTestRouter(repository.NewMemStorage())

	req := httptest.NewRequest(http.MethodGet, "/aUser/aTimeSeries/decades/last", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPingHandler(t *testing.T) {
	router := newTestRouter(repository.NewMemStorage())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
