package router

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func developmentRouter(t *testing.T, target string, timeout time.Duration, api http.Handler) *Router {
	t.Helper()
	u, err := url.Parse(target)
	require.NoError(t, err)
	rt, err := New(ServingContext{
		Mode:         ModeDevelopment,
		Table:        DefaultTable([]string{"/api"}),
		APIHandler:   api,
		ProxyTarget:  u,
		ProxyTimeout: timeout,
	})
	require.NoError(t, err)
	return rt
}

func TestRouter_DevelopmentProxiesVerbatim(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Dev-Server", "vite")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, "dev:%s:%s:%s", r.URL.Path, r.Header.Get("X-Request-Id"), body)
	}))
	defer backend.Close()
	rt := developmentRouter(t, backend.URL, time.Second, nil)

	req := httptest.NewRequest(http.MethodPost, "/src/components/App.vue", strings.NewReader("module source"))
	req.Header.Set("X-Request-Id", "req-7")
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "vite", rec.Header().Get("X-Dev-Server"))
	require.Equal(t, "dev:/src/components/App.vue:req-7:module source", rec.Body.String())
}

func TestRouter_DevelopmentProxiesEveryNonAPIPath(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "dev:%s", r.URL.Path)
	}))
	defer backend.Close()
	rt := developmentRouter(t, backend.URL, time.Second, nil)

	for _, path := range []string{"/", "/about", "/@vite/client", "/assets/app.js"} {
		rec := get(rt, path)
		require.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
		require.Equal(t, "dev:"+path, rec.Body.String(), "GET %s", path)
	}
}

func TestRouter_DevelopmentAPIBypassesProxy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("development server received api request %s", r.URL.Path)
	}))
	defer backend.Close()
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "from api handler")
	})
	rt := developmentRouter(t, backend.URL, time.Second, api)

	rec := get(rt, "/api/widgets")

	require.Equal(t, "from api handler", rec.Body.String())
}

func TestRouter_DevelopmentBackendUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := backend.URL
	backend.Close()
	rt := developmentRouter(t, target, time.Second, nil)

	rec := get(rt, "/about")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "development server unreachable")
}

func TestRouter_DevelopmentBackendTimeout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done(): // proxy gave up
		}
	}))
	defer backend.Close()
	rt := developmentRouter(t, backend.URL, 50*time.Millisecond, nil)

	rec := get(rt, "/about")

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Contains(t, rec.Body.String(), "development server timed out")
}

func TestRouter_DevelopmentRequiresProxyTarget(t *testing.T) {
	_, err := New(ServingContext{
		Mode:  ModeDevelopment,
		Table: DefaultTable([]string{"/api"}),
	})
	require.Error(t, err)
}

func TestRouter_DevelopmentNeedsNoStaticRoot(t *testing.T) {
	u, err := url.Parse("http://127.0.0.1:5173")
	require.NoError(t, err)

	_, err = New(ServingContext{
		Mode:        ModeDevelopment,
		Table:       DefaultTable([]string{"/api"}),
		ProxyTarget: u,
	})
	require.NoError(t, err)
}
