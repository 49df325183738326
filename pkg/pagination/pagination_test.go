package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?limit=50&offset=10")
	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_Clamping(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"/?limit=1000", MaxLimit, 0},
		{"/?limit=-5", DefaultLimit, 0},
		{"/?limit=abc&offset=-3", DefaultLimit, 0},
	}
	for _, tt := range tests {
		p := paramsFor(t, tt.query)
		if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
			t.Errorf("%s: got limit=%d offset=%d, want %d/%d", tt.query, p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestParams_SQL(t *testing.T) {
	if got := (Params{Limit: 10, Offset: 30}).SQL(); got != "LIMIT 10 OFFSET 30" {
		t.Errorf("unexpected SQL clause %q", got)
	}
}

func TestParams_Navigation(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if !p.HasNext(20) || p.HasNext(15) {
		t.Error("HasNext mismatch")
	}
	if !p.HasPrevious() {
		t.Error("expected previous page")
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous offset clamped to 0, got %d", p.PreviousOffset())
	}
	if p.NextOffset() != 15 {
		t.Errorf("expected next offset 15, got %d", p.NextOffset())
	}
}

func TestNewResponse_WithLinks(t *testing.T) {
	filters := url.Values{"patient": {"Ana Souza"}, "limit": {"10"}}
	resp := NewResponse([]string{"a"}, 25, Params{Limit: 10, Offset: 10}).WithLinks("/api/v1/reservations", filters)

	if !resp.HasMore {
		t.Error("expected has_more")
	}
	rels := map[string]string{}
	for _, l := range resp.Links {
		rels[l.Relation] = l.URL
	}
	if len(rels) != 3 {
		t.Fatalf("expected self, next and previous links, got %v", resp.Links)
	}
	if !strings.Contains(rels["next"], "offset=20") || !strings.Contains(rels["next"], "patient=Ana+Souza") {
		t.Errorf("unexpected next link %s", rels["next"])
	}
	if !strings.Contains(rels["previous"], "offset=0") {
		t.Errorf("unexpected previous link %s", rels["previous"])
	}
}
