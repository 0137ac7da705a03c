package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
)

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	return rec
}

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "api error", err: apierr.NotFound("goal_not_found", errors.New("goal not found")), status: 404, code: "goal_not_found"},
		{name: "wrapped api error", err: fmt.Errorf("save: %w", apierr.Unavailable("state_unavailable", errors.New("cache down"))), status: 503, code: "state_unavailable"},
		{name: "sentinel", err: fmt.Errorf("lookup: %w", pkgerrors.ErrNotFound), status: 404, code: "not_found"},
		{name: "lost transition", err: fmt.Errorf("advance: %w", pkgerrors.ErrConflict), status: 409, code: "conflict"},
		{name: "unreachable", err: pkgerrors.ErrUnavailable, status: 503, code: "unavailable"},
		{name: "unknown", err: errors.New("boom"), status: 500, code: "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, func(c *gin.Context) { RespondServiceError(c, tc.err) })
			if rec.Code != tc.status {
				t.Fatalf("status=%d want %d", rec.Code, tc.status)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.code || env.Error.Message == "" {
				t.Fatalf("envelope %+v", env)
			}
		})
	}
}

func TestRespondResultMarksFallback(t *testing.T) {
	cause := fetch.NewError("catalog", "list lessons", errors.New("db down"))
	rec := serve(t, func(c *gin.Context) { RespondResult(c, fetch.Fallback([]string{"budgeting"}, cause)) })

	var body struct {
		Data   []string `json:"data"`
		Source string   `json:"source"`
		Notice string   `json:"notice"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != "fallback" || len(body.Data) != 1 || body.Notice == "" {
		t.Fatalf("body %+v", body)
	}

	rec = serve(t, func(c *gin.Context) { RespondResult(c, fetch.Remote(3)) })
	if got := rec.Body.String(); got != `{"data":3,"source":"remote"}` {
		t.Fatalf("remote body=%s", got)
	}
}
