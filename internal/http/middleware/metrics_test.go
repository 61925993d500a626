package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/things/:id", "200"))

	for _, path := range []string{"/things/1", "/things/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
	}

	// Both requests land on the same low-cardinality route label.
	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/things/:id", "200"))
	if after-before != 2 {
		t.Fatalf("want counter +2, got %v", after-before)
	}
}

func TestMetrics_InflightReturnsToZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if v := testutil.ToFloat64(httpInflight); v != 0 {
		t.Fatalf("inflight gauge stuck at %v", v)
	}
}
