package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.Observe("grpc", "ListSessions", "OK", 10*time.Millisecond)
	m.Observe("grpc", "ListSessions", "OK", 20*time.Millisecond)
	m.ListFailures.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("grpc", "ListSessions", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListFailures))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	m := New()
	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/apps/{app}/users/{user}/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for _, id := range []string{"s1", "s2"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apps/a/users/u/sessions/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("http", "GET /apps/{app}/users/{user}/sessions/{id}", "404"))
	assert.Equal(t, 2.0, got)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ListFailures.Inc()

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "sessiontab_list_failures_total 1"))
}
