package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func echoParams(name string) HandlerFunc {
	return func(ctx *Context) *Response {
		id, _ := ctx.PathString("id")
		return Text(http.StatusOK, name+":"+id)
	}
}

func newTestRouter(t *testing.T, build func(*Registry)) *Router {
	t.Helper()
	reg := NewRegistry()
	build(reg)
	return NewRouter(reg, RouterConfig{})
}

func get(t *testing.T, rt *Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	return rec
}

func TestRouterStaticMatch(t *testing.T) {
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodGet}, "/login", echoParams("login"))
	})

	rec := get(t, rt, http.MethodGet, "/login")
	if rec.Code != http.StatusOK || rec.Body.String() != "login:" {
		t.Errorf("expected login handler, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouterDynamicMatchBindsParams(t *testing.T) {
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodGet}, "/users/{id}/edit", echoParams("edit"))
	})

	rec := get(t, rt, http.MethodGet, "/users/42/edit")
	if rec.Body.String() != "edit:42" {
		t.Errorf("expected id=42 bound, got %q", rec.Body.String())
	}
}

func TestRouterSegmentCountMismatch(t *testing.T) {
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodGet}, "/users/{id}/edit", echoParams("edit"))
	})

	if rec := get(t, rt, http.MethodGet, "/users/42/edit/extra"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for extra segment, got %d", rec.Code)
	}
	if rec := get(t, rt, http.MethodGet, "/users/42"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing segment, got %d", rec.Code)
	}
}

func TestRouterStaticBeatsDynamic(t *testing.T) {
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodGet}, "/users/{id}", echoParams("dynamic"))
		reg.Handle([]string{http.MethodGet}, "/users/me", echoParams("static"))
	})

	rec := get(t, rt, http.MethodGet, "/users/me")
	if !strings.HasPrefix(rec.Body.String(), "static") {
		t.Errorf("expected static route to win, got %q", rec.Body.String())
	}
}

func TestRouterMostSpecificDynamicWins(t *testing.T) {
	// Registered least-specific first; matching must still prefer the
	// pattern with more literal segments.
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodGet}, "/users/{id}/{action}", echoParams("generic"))
		reg.Handle([]string{http.MethodGet}, "/users/{id}/edit", echoParams("edit"))
	})

	rec := get(t, rt, http.MethodGet, "/users/42/edit")
	if !strings.HasPrefix(rec.Body.String(), "edit") {
		t.Errorf("expected most-specific pattern to win, got %q", rec.Body.String())
	}

	rec = get(t, rt, http.MethodGet, "/users/42/delete")
	if !strings.HasPrefix(rec.Body.String(), "generic") {
		t.Errorf("expected generic pattern for non-edit action, got %q", rec.Body.String())
	}
}

func TestRouterMethodScoping(t *testing.T) {
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodPost}, "/login", echoParams("post"))
	})

	if rec := get(t, rt, http.MethodGet, "/login"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unregistered method, got %d", rec.Code)
	}
}

func TestRouterPanicBecomesGeneric500(t *testing.T) {
	rt := newTestRouter(t, func(reg *Registry) {
		reg.Handle([]string{http.MethodGet}, "/boom", func(ctx *Context) *Response {
			panic("sensitive detail")
		})
	})

	rec := get(t, rt, http.MethodGet, "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sensitive") {
		t.Errorf("internal detail leaked to client: %q", rec.Body.String())
	}
}

func TestRegistryFrozenAfterRouterConstruction(t *testing.T) {
	reg := NewRegistry()
	reg.Handle([]string{http.MethodGet}, "/", echoParams("home"))
	NewRouter(reg, RouterConfig{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic when registering after construction")
		}
	}()
	reg.Handle([]string{http.MethodGet}, "/late", echoParams("late"))
}

func TestServeStatic(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "styles.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	rt := NewRouter(reg, RouterConfig{StaticPrefix: "/front/", StaticRoot: root})

	rec := get(t, rt, http.MethodGet, "/front/styles.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/css") {
		t.Errorf("expected css content type, got %q", ct)
	}
	if rec.Body.String() != "body{}" {
		t.Errorf("unexpected file body: %q", rec.Body.String())
	}
}

func TestServeStaticMissingFile(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter(reg, RouterConfig{StaticPrefix: "/front/", StaticRoot: t.TempDir()})

	if rec := get(t, rt, http.MethodGet, "/front/missing.css"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServeStaticRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(outside)

	reg := NewRegistry()
	rt := NewRouter(reg, RouterConfig{StaticPrefix: "/front/", StaticRoot: root})

	req := httptest.NewRequest(http.MethodGet, "/front/x", nil)
	req.URL.Path = "/front/../secret.txt"
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for traversal, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("traversal leaked file contents")
	}
}

func TestServeStaticRejectsNonGET(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter(reg, RouterConfig{StaticPrefix: "/front/", StaticRoot: t.TempDir()})

	if rec := get(t, rt, http.MethodPost, "/front/styles.css"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for POST under static prefix, got %d", rec.Code)
	}
}
