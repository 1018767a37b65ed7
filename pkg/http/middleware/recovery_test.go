package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	applogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

func fileLogger(t *testing.T) (*applogger.Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.log")
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l, path
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	l, logPath := fileLogger(t)

	e := echo.New()
	e.Use(Recover(l))
	e.GET("/boom", func(echo.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal Server Error") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	out, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"handler panic", "kaboom", "/boom"} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}

func TestRecoverPassesThroughNormalRequests(t *testing.T) {
	l, _ := fileLogger(t)

	e := echo.New()
	e.Use(Recover(l))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestLoggingEmitsStructuredLine(t *testing.T) {
	l, logPath := fileLogger(t)

	e := echo.New()
	e.Use(RequestLogging(l))
	e.GET("/api/runs/latest", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	out, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"http request", `"method":"GET"`, "/api/runs/latest", `"status":200`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}
