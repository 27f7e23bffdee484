package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"complaint-service/internal/models"
	"complaint-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubService struct {
	complaints map[int64]*models.Complaint
	createErr  error
	lastIP     string
	lastFilter models.ComplaintFilter
}

func newStubService() *stubService {
	return &stubService{complaints: map[int64]*models.Complaint{
		1: {ID: 1, Text: "App crashes on login", Status: models.StatusOpen, Sentiment: models.SentimentNegative,
			Category: models.CategoryTechnical, Stage: models.StageClassified, Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}}
}

func (s *stubService) Create(_ context.Context, text, clientIP string) (*models.Complaint, error) {
	s.lastIP = clientIP
	if s.createErr != nil {
		return nil, s.createErr
	}
	c := &models.Complaint{ID: 2, Text: text, Status: models.StatusOpen, Sentiment: models.SentimentNeutral,
		Category: models.CategoryOther, Stage: models.StageClassified, Timestamp: time.Now().UTC()}
	s.complaints[c.ID] = c
	return c, nil
}

func (s *stubService) GetByID(_ context.Context, id int64) (*models.Complaint, error) {
	return s.complaints[id], nil
}

func (s *stubService) List(_ context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	s.lastFilter = filter
	out := []*models.Complaint{}
	for _, c := range s.complaints {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubService) UpdateStatus(_ context.Context, id int64, status models.Status) (*models.Complaint, error) {
	c, ok := s.complaints[id]
	if !ok {
		return nil, nil
	}
	c.Status = status
	return c, nil
}

func newTestRouter(svc ComplaintService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewComplaintHandler(svc, zap.NewNop())

	api := r.Group("/api/v1")
	api.POST("/complaints", h.CreateComplaint)
	api.GET("/complaints", h.ListComplaints)
	api.GET("/complaints/:id", h.GetComplaint)
	api.PATCH("/complaints/:id/status", h.UpdateComplaintStatus)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateComplaint(t *testing.T) {
	svc := newStubService()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/api/v1/complaints", `{"text":"Refund never arrived"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var got models.Complaint
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 2 || got.Text != "Refund never arrived" || got.Status != models.StatusOpen {
		t.Errorf("complaint = %+v", got)
	}
	if svc.lastIP != "203.0.113.9" {
		t.Errorf("client ip = %q", svc.lastIP)
	}
}

func TestCreateComplaint_Invalid(t *testing.T) {
	r := newTestRouter(newStubService())

	for _, body := range []string{`{}`, `{"text":"   "}`, `not json`} {
		w := do(r, http.MethodPost, "/api/v1/complaints", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestCreateComplaint_StoreErrors(t *testing.T) {
	svc := newStubService()
	r := newTestRouter(svc)

	svc.createErr = errors.New("db down")
	if w := do(r, http.MethodPost, "/api/v1/complaints", `{"text":"x"}`); w.Code != http.StatusInternalServerError {
		t.Errorf("store failure status = %d", w.Code)
	}

	svc.createErr = &service.DraftPersistedError{Draft: &models.Complaint{ID: 77}, Err: errors.New("patch failed")}
	w := do(r, http.MethodPost, "/api/v1/complaints", `{"text":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("draft failure status = %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["id"] != float64(77) {
		t.Errorf("body = %v, want draft id", body)
	}
}

func TestGetComplaint(t *testing.T) {
	r := newTestRouter(newStubService())

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/complaints/1", http.StatusOK},
		{"/api/v1/complaints/404", http.StatusNotFound},
		{"/api/v1/complaints/abc", http.StatusBadRequest},
		{"/api/v1/complaints/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(r, http.MethodGet, tt.path, ""); w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestListComplaints(t *testing.T) {
	svc := newStubService()
	r := newTestRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/complaints?status=open&since=2026-01-01T00:00:00Z", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Complaints []models.Complaint `json:"complaints"`
		Total      int                `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || len(body.Complaints) != 1 {
		t.Errorf("body = %+v", body)
	}
	if svc.lastFilter.Status == nil || *svc.lastFilter.Status != models.StatusOpen {
		t.Errorf("status filter = %v", svc.lastFilter.Status)
	}
	if svc.lastFilter.Since == nil || !svc.lastFilter.Since.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("since filter = %v", svc.lastFilter.Since)
	}

	for _, q := range []string{"?status=archived", "?since=yesterday"} {
		if w := do(r, http.MethodGet, "/api/v1/complaints"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", q, w.Code)
		}
	}
}

func TestUpdateComplaintStatus(t *testing.T) {
	r := newTestRouter(newStubService())

	w := do(r, http.MethodPatch, "/api/v1/complaints/1/status", `{"status":"closed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got models.Complaint
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Status != models.StatusClosed || got.Category != models.CategoryTechnical {
		t.Errorf("complaint = %+v", got)
	}

	tests := []struct {
		path, body string
		want       int
	}{
		{"/api/v1/complaints/1/status", `{"status":"archived"}`, http.StatusBadRequest},
		{"/api/v1/complaints/1/status", `{}`, http.StatusBadRequest},
		{"/api/v1/complaints/x/status", `{"status":"open"}`, http.StatusBadRequest},
		{"/api/v1/complaints/9/status", `{"status":"open"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(r, http.MethodPatch, tt.path, tt.body); w.Code != tt.want {
			t.Errorf("PATCH %s %s = %d, want %d", tt.path, tt.body, w.Code, tt.want)
		}
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tt := range []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{errors.New("down"), http.StatusServiceUnavailable},
	} {
		r := gin.New()
		h := NewHealthHandler(fakePinger{tt.err}, zap.NewNop())
		r.GET("/health", h.Health)
		r.GET("/ping", h.Ping)

		if w := do(r, http.MethodGet, "/health", ""); w.Code != tt.want {
			t.Errorf("health with err=%v = %d, want %d", tt.err, w.Code, tt.want)
		}
		if w := do(r, http.MethodGet, "/ping", ""); w.Code != http.StatusOK {
			t.Errorf("ping = %d", w.Code)
		}
	}
}
