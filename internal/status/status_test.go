package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/scheduler"
)

type fakeEntries map[string]models.DiaryEntry

func (f fakeEntries) All() []models.DiaryEntry {
	var out []models.DiaryEntry
	for _, date := range []string{"2025-07-18", "2025-07-19"} {
		if e, ok := f[date]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (f fakeEntries) Get(date string) (models.DiaryEntry, bool) {
	e, ok := f[date]
	return e, ok
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newServer(t *testing.T, entries fakeEntries, db, docs Pinger, sched func() scheduler.Status) *httptest.Server {
	t.Helper()
	h := NewHandler(entries, db, docs, func() string { return "2025-07-19" }, sched)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db, docs   Pinger
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{"healthy", pinger{}, pinger{}, http.StatusOK, "healthy", map[string]string{"database": "ok", "documents": "ok"}},
		{"no document check", pinger{}, nil, http.StatusOK, "healthy", map[string]string{"database": "ok"}},
		{"database down", pinger{errors.New("gone")}, pinger{}, http.StatusServiceUnavailable, "degraded", map[string]string{"database": "unreachable"}},
		{"documents down", pinger{}, pinger{errors.New("401")}, http.StatusOK, "degraded", map[string]string{"documents": "unreachable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, fakeEntries{}, tt.db, tt.docs, nil)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if code := get(t, srv.URL+"/health", &body); code != tt.wantCode {
				t.Errorf("status code = %d, want %d", code, tt.wantCode)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			for k, v := range tt.wantChecks {
				if body.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, body.Checks[k], v)
				}
			}
		})
	}
}

func TestEntries(t *testing.T) {
	entries := fakeEntries{
		"2025-07-18": {Date: "2025-07-18", DocumentID: "page-1"},
		"2025-07-19": {Date: "2025-07-19", DocumentID: "page-2", Icon: "🌙"},
	}
	srv := newServer(t, entries, pinger{}, nil, nil)

	var list []models.DiaryEntry
	if code := get(t, srv.URL+"/entries", &list); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if len(list) != 2 || list[0].Date != "2025-07-18" {
		t.Errorf("entries = %+v", list)
	}

	var today models.DiaryEntry
	if code := get(t, srv.URL+"/entries/today", &today); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if today.DocumentID != "page-2" || today.Icon != "🌙" {
		t.Errorf("today = %+v", today)
	}

	var byDate models.DiaryEntry
	if code := get(t, srv.URL+"/entries/2025-07-18", &byDate); code != http.StatusOK || byDate.DocumentID != "page-1" {
		t.Errorf("GET /entries/2025-07-18 = %d %+v", code, byDate)
	}

	if code := get(t, srv.URL+"/entries/2025-07-01", nil); code != http.StatusNotFound {
		t.Errorf("missing entry code = %d, want 404", code)
	}
	if code := get(t, srv.URL+"/entries/yesterday", nil); code != http.StatusBadRequest {
		t.Errorf("bad date code = %d, want 400", code)
	}
}

func TestEmptyEntriesIsArray(t *testing.T) {
	srv := newServer(t, fakeEntries{}, pinger{}, nil, nil)
	var list []models.DiaryEntry
	get(t, srv.URL+"/entries", &list)
	if list == nil {
		t.Error("expected an empty JSON array, got null")
	}

	if code := get(t, srv.URL+"/entries/today", nil); code != http.StatusNotFound {
		t.Errorf("today code = %d, want 404", code)
	}
}

func TestSchedulerStatus(t *testing.T) {
	next := time.Date(2025, 7, 19, 20, 0, 0, 0, time.UTC)
	srv := newServer(t, fakeEntries{}, pinger{}, nil, func() scheduler.Status {
		return scheduler.Status{NextPrompt: next}
	})

	var st scheduler.Status
	if code := get(t, srv.URL+"/scheduler", &st); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if !st.NextPrompt.Equal(next) {
		t.Errorf("NextPrompt = %v, want %v", st.NextPrompt, next)
	}

	bare := newServer(t, fakeEntries{}, pinger{}, nil, nil)
	if code := get(t, bare.URL+"/scheduler", nil); code != http.StatusNotFound {
		t.Errorf("code without scheduler = %d, want 404", code)
	}
}
