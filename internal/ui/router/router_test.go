package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/internal/testutil"
	"github.com/leapstack-labs/leapviz/internal/ui/features/dashboard"
	"github.com/leapstack-labs/leapviz/internal/ui/notifier"
	"github.com/leapstack-labs/leapviz/pkg/chart"
)

func newRouter(t *testing.T, dev bool) chi.Router {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, dashboard.Deps{
		Ctx:      t.Context(),
		Sessions: session.NewStore(session.Options{Logger: logger}),
		Cookies:  sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")),
		Notifier: notifier.New(),
		Logger:   logger,
		IsDev:    dev,
	}))
	return r
}

func TestHealthz(t *testing.T) {
	r := newRouter(t, false)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var h Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 0, h.Sessions)
	assert.Equal(t, len(chart.Selectable()), h.Charts)
	assert.False(t, h.Dev)
}

func TestReloadRoutesOnlyInDev(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hotreload", nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(t, true).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hotreload", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reloaded": 0}`, rec.Body.String())
}

func TestReloadPushesScript(t *testing.T) {
	reloads := notifier.New()
	r := chi.NewRouter()
	setupReload(r, reloads)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reload", nil))
		done <- rec
	}()

	require.Eventually(t, func() bool { return reloads.Listeners(reloadTopic) == 1 }, 2*time.Second, 5*time.Millisecond)

	trigger := httptest.NewRecorder()
	r.ServeHTTP(trigger, httptest.NewRequest(http.MethodPost, "/hotreload", nil))
	assert.JSONEq(t, `{"reloaded": 1}`, trigger.Body.String())

	select {
	case rec := <-done:
		assert.Contains(t, rec.Body.String(), "window.location.reload()")
	case <-time.After(2 * time.Second):
		t.Fatal("reload stream did not finish")
	}
	assert.Equal(t, 0, reloads.Listeners(reloadTopic))
}
