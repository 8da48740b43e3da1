package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/service"

	"github.com/gin-gonic/gin"
)

func healthRequest(t *testing.T, hc *HealthController) (int, HealthStatus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", hc.HealthCheck)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body struct {
		Message string       `json:"message"`
		Data    HealthStatus `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w.Code, body.Data
}

func testTunables(t *testing.T) *service.Tunables {
	t.Helper()
	sched := scheduler.DefaultConfig()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	sched.Location = loc
	return service.NewTunables(sched, config.GateConfig{})
}

func up(name string) Dependency {
	return Dependency{Name: name, Ping: func(context.Context) error { return nil }}
}

func TestHealthCheckReportsComponents(t *testing.T) {
	code, status := healthRequest(t, NewHealthController(testTunables(t), "", up("database"), up("redis")))
	if code != http.StatusOK || status.Status != "ok" {
		t.Fatalf("health = %d %+v", code, status)
	}
	if status.Components["database"] != "up" || status.Components["redis"] != "up" {
		t.Errorf("components = %v", status.Components)
	}
	if status.LockBackend != "local" || status.Timezone != "Asia/Tokyo" || status.Date == "" {
		t.Errorf("status = %+v", status)
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	down := Dependency{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}
	code, status := healthRequest(t, NewHealthController(testTunables(t), "redis", up("database"), down))
	if code != http.StatusServiceUnavailable || status.Status != "degraded" {
		t.Fatalf("health = %d %+v, want 503 degraded", code, status)
	}
	if status.Components["database"] != "up" || status.Components["redis"] != "down" || status.LockBackend != "redis" {
		t.Errorf("status = %+v", status)
	}
}

func TestHealthCheckHonoursTimeout(t *testing.T) {
	slow := Dependency{Name: "database", Ping: func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("ping without deadline")
		}
		return nil
	}}
	if code, _ := healthRequest(t, NewHealthController(testTunables(t), "", slow)); code != http.StatusOK {
		t.Errorf("health = %d", code)
	}
}
