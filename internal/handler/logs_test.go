package handler_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/service"
)

// ---- POST /trips/{id}/generate_logs ----------------------------------------

func TestGenerateLogs_200(t *testing.T) {
	tripID := uuid.New()
	entry := logFixture(tripID)
	var got service.GenerateInput
	svc := &mockLogServicer{
		generate: func(_ context.Context, in service.GenerateInput) ([]domain.LogEntry, error) {
			got = in
			return []domain.LogEntry{entry}, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/trips/"+tripID.String()+"/generate_logs",
		strings.NewReader(`{"start_date":"2026-03-02","start_hour":6}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOwner, got.OwnerID)
	assert.Equal(t, tripID, got.TripID)
	assert.Equal(t, "2026-03-02", got.StartDate.Format(time.DateOnly))
	require.NotNil(t, got.StartHour)
	assert.Equal(t, 6, *got.StartHour)

	var resp struct {
		Data []struct {
			ID       uuid.UUID `json:"id"`
			Date     string    `json:"date"`
			Segments []struct {
				Status      string  `json:"status"`
				Date        string  `json:"date"`
				MilesDriven float64 `json:"miles_driven"`
			} `json:"segments"`
			DrivingHours float64 `json:"driving_hours"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, entry.ID, resp.Data[0].ID)
	assert.Equal(t, "2026-03-02", resp.Data[0].Date)
	assert.Equal(t, 4.0, resp.Data[0].DrivingHours)
	require.Len(t, resp.Data[0].Segments, 4)
	assert.Equal(t, "driving", resp.Data[0].Segments[1].Status)
	assert.Equal(t, 220.0, resp.Data[0].Segments[1].MilesDriven)
	assert.Equal(t, "2026-03-02", resp.Data[0].Segments[1].Date)
}

func TestGenerateLogs_DefaultHourLeftToService(t *testing.T) {
	var got service.GenerateInput
	svc := &mockLogServicer{
		generate: func(_ context.Context, in service.GenerateInput) ([]domain.LogEntry, error) {
			got = in
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/trips/"+uuid.NewString()+"/generate_logs", strings.NewReader(`{"start_date":"2026-03-02"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.StartHour)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestGenerateLogs_400(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing date", `{"start_hour":8}`},
		{"bad date", `{"start_date":"03/02/2026"}`},
		{"no body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHTTPHandler(nil, &mockLogServicer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				"/trips/"+uuid.NewString()+"/generate_logs", strings.NewReader(tt.body)))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", decodeError(t, rec.Body).Error.Code)
		})
	}
}

func TestGenerateLogs_409_ConcurrentRegeneration(t *testing.T) {
	svc := &mockLogServicer{
		generate: func(context.Context, service.GenerateInput) ([]domain.LogEntry, error) {
			return nil, fmt.Errorf("repo.LogRepo.Replace: %w", domain.ErrConflict)
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/trips/"+uuid.NewString()+"/generate_logs", strings.NewReader(`{"start_date":"2026-03-02"}`)))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	env := decodeError(t, rec.Body)
	assert.Equal(t, "conflict", env.Error.Code)
	assert.True(t, env.Error.Retryable)
}

func TestGenerateLogs_409_CompletedTrip(t *testing.T) {
	svc := &mockLogServicer{
		generate: func(context.Context, service.GenerateInput) ([]domain.LogEntry, error) {
			return nil, domain.ErrImmutable
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/trips/"+uuid.NewString()+"/generate_logs", strings.NewReader(`{"start_date":"2026-03-02"}`)))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "trip_immutable", decodeError(t, rec.Body).Error.Code)
}

// ---- GET /trips/{id}/logs --------------------------------------------------

func TestListLogs_JSON(t *testing.T) {
	tripID := uuid.New()
	svc := &mockLogServicer{
		list: func(_ context.Context, ownerID, id uuid.UUID) ([]domain.LogEntry, error) {
			assert.Equal(t, testOwner, ownerID)
			assert.Equal(t, tripID, id)
			return []domain.LogEntry{logFixture(tripID)}, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/logs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), `"remarks":"Pickup"`)
}

func TestListLogs_CSV(t *testing.T) {
	tripID := uuid.New()
	entry := logFixture(tripID)
	svc := &mockLogServicer{
		list: func(context.Context, uuid.UUID, uuid.UUID) ([]domain.LogEntry, error) {
			return []domain.LogEntry{entry}, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/logs?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trip-"+tripID.String()+"-logs.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5, "header plus one row per segment")
	assert.Equal(t, "log_id", records[0][0])

	driving := records[2]
	assert.Equal(t, entry.ID.String(), driving[0])
	assert.Equal(t, "2026-03-02", driving[1])
	assert.Equal(t, "driving", driving[2])
	assert.Equal(t, "2026-03-02T08:00:00Z", driving[3])
	assert.Equal(t, "4.00", driving[5])
	assert.Equal(t, "220.00", driving[7])
	assert.Equal(t, "", records[1][7], "miles are blank for non-driving rows")
	assert.Equal(t, "Pickup", records[3][8])
}

func TestListLogs_CSV_NoLogsIsHeaderOnly(t *testing.T) {
	svc := &mockLogServicer{
		list: func(context.Context, uuid.UUID, uuid.UUID) ([]domain.LogEntry, error) { return nil, nil },
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListLogs_400_UnknownFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	newHTTPHandler(nil, &mockLogServicer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs?format=xml", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec.Body).Error.Fields, "format")
}

func TestListLogs_404_UnknownTrip(t *testing.T) {
	svc := &mockLogServicer{
		list: func(context.Context, uuid.UUID, uuid.UUID) ([]domain.LogEntry, error) {
			return nil, fmt.Errorf("service.LogService.List: %w", domain.ErrNotFound)
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- /log-entries/{id} -----------------------------------------------------

func logGetter(entry domain.LogEntry) *mockLogServicer {
	return &mockLogServicer{
		get: func(_ context.Context, _ uuid.UUID, id uuid.UUID) (domain.LogEntry, error) {
			if id != entry.ID {
				return domain.LogEntry{}, domain.ErrNotFound
			}
			return entry, nil
		},
	}
}

func TestGetLog_200(t *testing.T) {
	entry := logFixture(uuid.New())

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, logGetter(entry)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log-entries/"+entry.ID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, entry.ID.String(), resp["id"])
	assert.Equal(t, 19.0, resp["off_duty_hours"])
	assert.Equal(t, "TRK-12 / TRL-40", resp["vehicle_numbers"])
}

func TestGetLog_404(t *testing.T) {
	entry := logFixture(uuid.New())

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, logGetter(entry)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log-entries/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "log entry not found", decodeError(t, rec.Body).Error.Message)
}

func TestDownloadPDF(t *testing.T) {
	entry := logFixture(uuid.New())

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, logGetter(entry)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log-entries/"+entry.ID.String()+"/download_pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="log-2026-03-02.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, fmt.Sprint(rec.Body.Len()), rec.Header().Get("Content-Length"))
}

func TestDownloadImage(t *testing.T) {
	entry := logFixture(uuid.New())

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, logGetter(entry)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log-entries/"+entry.ID.String()+"/download_image", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestDownloadPDF_404(t *testing.T) {
	entry := logFixture(uuid.New())

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, logGetter(entry)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log-entries/"+uuid.NewString()+"/download_pdf", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
