// README: Tests for identity, request id, recovery and rate limit middleware.
package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"relay/internal/http/middleware"
)

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c), "rid": middleware.GetRequestID(c)})
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func do(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireCaller_MissingHeader(t *testing.T) {
	r := newTestRouter(middleware.Identity(), middleware.RequireCaller())
	w := do(r, "/test", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireCaller_BlankHeader(t *testing.T) {
	r := newTestRouter(middleware.Identity(), middleware.RequireCaller())
	w := do(r, "/test", map[string]string{middleware.UserIDHeader: "   "})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestIdentity_PopulatesCaller(t *testing.T) {
	r := newTestRouter(middleware.Identity(), middleware.RequireCaller())
	w := do(r, "/test", map[string]string{middleware.UserIDHeader: "user-42"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"uid":"user-42"`) {
		t.Errorf("expected uid in body, got %s", w.Body.String())
	}
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	r := newTestRouter(middleware.RequestID())
	w := do(r, "/test", nil)
	rid := w.Header().Get(middleware.RequestIDHeader)
	if rid == "" {
		t.Fatal("expected generated request id")
	}
	if !strings.Contains(w.Body.String(), rid) {
		t.Errorf("expected request id %s in body", rid)
	}

	w = do(r, "/test", map[string]string{middleware.RequestIDHeader: "abc"})
	if got := w.Header().Get(middleware.RequestIDHeader); got != "abc" {
		t.Errorf("expected inbound id to be kept, got %q", got)
	}
}

func TestRecovery_Returns500AndLogs(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := newTestRouter(middleware.RequestID(), middleware.Recovery(log))
	w := do(r, "/panic", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Errorf("expected an error log entry")
	}
}

func TestLogging_WritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	r := newTestRouter(middleware.RequestID(), middleware.Identity(), middleware.Logging(log))
	do(r, "/test", map[string]string{middleware.UserIDHeader: "u1"})
	out := buf.String()
	for _, want := range []string{`"route":"/test"`, `"status":200`, `"user_id":"u1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestRateLimiter_PerCaller(t *testing.T) {
	log, _ := test.NewNullLogger()
	rl := middleware.NewRateLimiter(0.001, 2, log)
	r := newTestRouter(middleware.Identity(), rl.Handler())

	alice := map[string]string{middleware.UserIDHeader: "alice"}
	for i := 0; i < 2; i++ {
		if w := do(r, "/test", alice); w.Code != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d", i, w.Code)
		}
	}
	w := do(r, "/test", alice)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Errorf("expected Retry-After header")
	}

	if w := do(r, "/test", map[string]string{middleware.UserIDHeader: "bob"}); w.Code != http.StatusOK {
		t.Errorf("other callers keep their own budget, got %d", w.Code)
	}
	if rl.Size() != 2 {
		t.Errorf("expected 2 tracked callers, got %d", rl.Size())
	}
	rl.Cleanup(-time.Second)
	if rl.Size() != 0 {
		t.Errorf("expected cleanup to drop idle callers, got %d", rl.Size())
	}
}
