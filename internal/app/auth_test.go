package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMetricsAuth(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		password   string
		authHeader string
		user, pass string
		wantStatus int
	}{
		{name: "no password passes through", wantStatus: http.StatusOK},
		{name: "valid credentials", password: "secret123", user: "prometheus", pass: "secret123", wantStatus: http.StatusOK},
		{name: "wrong username", password: "secret123", user: "scraper", pass: "secret123", wantStatus: http.StatusUnauthorized},
		{name: "wrong password", password: "secret123", user: "prometheus", pass: "nope", wantStatus: http.StatusUnauthorized},
		{name: "no header", password: "secret123", wantStatus: http.StatusUnauthorized},
		{name: "bearer token", password: "secret123", authHeader: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "bad base64", password: "secret123", authHeader: "Basic !!!", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := gin.New()
			router.GET("/metrics", metricsAuth("prometheus", tt.password), func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			switch {
			case tt.authHeader != "":
				req.Header.Set("Authorization", tt.authHeader)
			case tt.user != "":
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="campus metrics"`, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
