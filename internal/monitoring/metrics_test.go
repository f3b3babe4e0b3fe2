package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func setupTestRouter(c *Collector) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(c.Middleware())
	router.GET("/metrics", c.Handler())
	router.GET("/tasks/:id", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"id": ctx.Param("id")})
	})
	return router
}

func scrape(t *testing.T, router *gin.Engine) string {
	t.Helper()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want %d", w.Code, http.StatusOK)
	}
	return w.Body.String()
}

func TestMiddlewareCountsRequests(t *testing.T) {
	c := NewCollector()
	router := setupTestRouter(c)

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("GET", "/tasks/42", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET /tasks/42 = %d, want %d", w.Code, http.StatusOK)
		}
	}

	got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/tasks/:id", "200"))
	if got != 3 {
		t.Errorf("requests_total{GET,/tasks/:id,200} = %v, want 3", got)
	}
}

func TestMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	c := NewCollector()
	router := setupTestRouter(c)

	req, _ := http.NewRequest("GET", "/no/such/route", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "unmatched", "404"))
	if got != 1 {
		t.Errorf("requests_total{GET,unmatched,404} = %v, want 1", got)
	}
}

func TestMiddlewareActiveRequestsSettles(t *testing.T) {
	c := NewCollector()
	router := setupTestRouter(c)

	req, _ := http.NewRequest("GET", "/tasks/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := testutil.ToFloat64(c.activeRequests); got != 0 {
		t.Errorf("active_requests after request = %v, want 0", got)
	}
}

func TestInviteCounters(t *testing.T) {
	c := NewCollector()

	c.RecordInviteIssued()
	c.RecordInviteIssued()
	c.RecordInviteRedeemed()
	c.RecordInvitesSwept(5)
	c.RecordInvitesSwept(0)

	if got := testutil.ToFloat64(c.invitesIssued); got != 2 {
		t.Errorf("invites_issued_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.invitesRedeemed); got != 1 {
		t.Errorf("invites_redeemed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.invitesSwept); got != 5 {
		t.Errorf("invites_swept_total = %v, want 5", got)
	}
}

func TestHandlerExposesAllSeries(t *testing.T) {
	c := NewCollector()
	router := setupTestRouter(c)

	req, _ := http.NewRequest("GET", "/tasks/7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	c.RecordInviteIssued()

	body := scrape(t, router)

	for _, name := range []string{
		"teamtasks_http_requests_total",
		"teamtasks_http_request_duration_seconds",
		"teamtasks_http_active_requests",
		"teamtasks_invites_issued_total",
		"teamtasks_invites_redeemed_total",
		"teamtasks_invites_swept_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing series %q", name)
		}
	}
}
