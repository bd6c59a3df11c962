package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/services/analytics-service/internal/reports"
)

type stubStore struct {
	from, to calendar.Date
}

func (s *stubStore) ByDoctor(_ context.Context, from, to calendar.Date) ([]reports.DoctorCount, error) {
	s.from, s.to = from, to
	return []reports.DoctorCount{{DoctorID: 101, DoctorName: "Dr. Meera Nair", DepartmentID: 1, Count: 4}}, nil
}

func (s *stubStore) ByDepartment(context.Context, calendar.Date, calendar.Date) ([]reports.DepartmentCount, error) {
	return []reports.DepartmentCount{{DepartmentID: 1, DepartmentName: "Cardiology", Count: 4}}, nil
}

func newTestMux(store reports.Store) *http.ServeMux {
	mux := http.NewServeMux()
	Register(mux, reports.NewService(store, time.UTC), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return mux
}

func TestMonthlyReport(t *testing.T) {
	store := &stubStore{}
	mux := newTestMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports?period=monthly&date=2024-06-12", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Period    string `json:"period"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		ByDoctor  []struct {
			DoctorName string `json:"doctorName"`
			Count      int    `json:"count"`
		} `json:"byDoctor"`
		ByDepartment []struct {
			DepartmentName string `json:"departmentName"`
		} `json:"byDepartment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Period != "monthly" || body.StartDate != "2024-06-01" || body.EndDate != "2024-06-30" {
		t.Fatalf("unexpected header fields: %+v", body)
	}
	if len(body.ByDoctor) != 1 || body.ByDoctor[0].Count != 4 || body.ByDepartment[0].DepartmentName != "Cardiology" {
		t.Fatalf("unexpected rows: %s", rec.Body.String())
	}
	if store.from.String() != "2024-06-01" || store.to.String() != "2024-06-30" {
		t.Fatalf("store queried %s..%s", store.from, store.to)
	}
}

func TestReportRejectsBadInput(t *testing.T) {
	mux := newTestMux(&stubStore{})
	cases := map[string]int{
		"/api/v1/admin/reports?period=yearly":                 http.StatusBadRequest,
		"/api/v1/admin/reports?period=weekly&date=2024-13-01": http.StatusBadRequest,
	}
	for url, want := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", url, want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reports?period=weekly", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
