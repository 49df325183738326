package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func postVisit(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_RecordVisit(t *testing.T) {
	repo := newMockRepo()
	resID := repo.addReservation("Ana Souza")
	h := NewHandler(newTestService(repo, time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)))
	e := echo.New()

	c, rec := postVisit(e, `{"reservation_id":"`+resID.String()+`","notes":"ok"}`)
	if err := h.RecordVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["visit_timestamp"] != "2024-01-15T14:00:00" {
		t.Errorf("unexpected visit_timestamp %v", got["visit_timestamp"])
	}

	c, _ = postVisit(e, `{"reservation_id":"`+resID.String()+`"}`)
	err := h.RecordVisit(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for a second visit, got %v", err)
	}
}

func TestHandler_RecordVisit_UnknownReservation(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()

	c, _ := postVisit(e, `{"reservation_id":"`+uuid.New().String()+`"}`)
	err := h.RecordVisit(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListVisits(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	if _, err := svc.Record(context.Background(), repo.addReservation("Ana Souza"), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/visits?date_from=2024-01-15&date_to=2024-01-16&patient=Ana%20Souza", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListVisits(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []VisitRecord `json:"data"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Total != 1 || len(body.Data) != 1 {
		t.Errorf("expected 1 visit, got %+v", body)
	}
}

func TestHandler_GetVisit_NotFound(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetVisit(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHTTPError_InternalHidesCause(t *testing.T) {
	cause := errors.New("relation \"visit_record\" does not exist")
	err := httpError(cause)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if he.Message != "internal error" {
		t.Errorf("expected generic message, got %v", he.Message)
	}
	if he.Internal != cause {
		t.Errorf("expected cause kept as internal error, got %v", he.Internal)
	}
}
