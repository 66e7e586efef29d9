package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWith(t *testing.T, inbound string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestMiddlewareMintsIDWhenAbsent(t *testing.T) {
	w, seen := requestWith(t, "")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(Header))
}

func TestMiddlewareReusesInboundID(t *testing.T) {
	w, seen := requestWith(t, "dash-42")
	assert.Equal(t, "dash-42", seen)
	assert.Equal(t, "dash-42", w.Header().Get(Header))
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'x'
	}
	_, seen := requestWith(t, string(long))
	assert.NotEqual(t, string(long), seen)
	assert.NotEmpty(t, seen)
}
