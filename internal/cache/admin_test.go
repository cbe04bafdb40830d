package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAttachAdminRoutes(t *testing.T) {
	store, _ := openTestStore(t)

	mux := http.NewServeMux()
	if err := AttachAdminRoutes(mux, store); err != nil {
		t.Fatalf("AttachAdminRoutes: %v", err)
	}

	// Routes may refuse non-local callers, but must be registered.
	for _, endpoint := range []string{"/debug/runs", "/debug/backup", "/debug/tailsql/"} {
		t.Run(endpoint, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, endpoint, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code == http.StatusNotFound {
				t.Errorf("Endpoint %s should be registered, got 404", endpoint)
			}
		})
	}
}
