package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/filestreamhq/filestream/internal/config"
	"github.com/filestreamhq/filestream/internal/registry"
	"github.com/filestreamhq/filestream/internal/resolver"
)

type fakeResolver struct {
	delivery resolver.Delivery
	err      error
	ids      []string
}

func (f *fakeResolver) Resolve(_ context.Context, stableID string) (resolver.Delivery, error) {
	f.ids = append(f.ids, stableID)
	if f.err != nil {
		return resolver.Delivery{}, f.err
	}
	return f.delivery, nil
}

func serveWatch(t *testing.T, res Resolver, mode, stableID string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	h := NewWatchHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), res, mode, "StreamBot")
	h.Register(e)

	req := httptest.NewRequest(http.MethodGet, "/watch/"+stableID, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWatchRendersPlayer(t *testing.T) {
	res := &fakeResolver{delivery: resolver.Delivery{
		URL:      "https://files.example.com/video/abc?expires=60",
		MIMEType: "video/mp4",
		Title:    "clip.mp4",
	}}

	rec := serveWatch(t, res, config.ModePlayer, "abc123")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"https://files.example.com/video/abc?expires=60",
		`type="video/mp4"`,
		"<title>clip.mp4</title>",
		"@StreamBot",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("player page missing %q", want)
		}
	}
	if len(res.ids) != 1 || res.ids[0] != "abc123" {
		t.Errorf("resolved %v", res.ids)
	}
}

func TestWatchRedirectMode(t *testing.T) {
	res := &fakeResolver{delivery: resolver.Delivery{URL: "https://files.example.com/x"}}

	rec := serveWatch(t, res, config.ModeRedirect, "abc123")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	location := rec.Header().Get(echo.HeaderLocation)
	if location != "https://t.me/StreamBot?start=abc123" {
		t.Errorf("location = %q", location)
	}
}

func TestWatchUnknownIDIs404(t *testing.T) {
	res := &fakeResolver{err: fmt.Errorf("%w: nope", registry.ErrNotFound)}

	rec := serveWatch(t, res, config.ModePlayer, "nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("expected a human-readable body, got %q", rec.Body.String())
	}
}

func TestWatchUpstreamFailureIs502(t *testing.T) {
	res := &fakeResolver{err: fmt.Errorf("%w: getFile: wrong file_id", resolver.ErrUpstreamUnavailable)}

	rec := serveWatch(t, res, config.ModePlayer, "abc123")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "temporarily unavailable") {
		t.Errorf("expected a human-readable body, got %q", rec.Body.String())
	}
}

func TestWatchUnexpectedErrorIs500(t *testing.T) {
	res := &fakeResolver{err: errors.New("boom")}

	rec := serveWatch(t, res, config.ModePlayer, "abc123")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHomeHandler(t *testing.T) {
	e := echo.New()
	NewHomeHandler().Register(e)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a confirmation body")
	}
}
