package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, incoming string) (string, string) {
		t.Helper()
		var fromCtx string
		handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = requestid.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set(requestid.Header, incoming)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return fromCtx, rr.Header().Get(requestid.Header)
	}

	t.Run("generates an id when none is provided", func(t *testing.T) {
		t.Parallel()
		fromCtx, echoed := run(t, "")
		require.NotEmpty(t, fromCtx)
		assert.Equal(t, fromCtx, echoed)
		_, err := uuid.Parse(fromCtx)
		assert.NoError(t, err)
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		t.Parallel()
		fromCtx, echoed := run(t, "trace-abc_123")
		assert.Equal(t, "trace-abc_123", fromCtx)
		assert.Equal(t, "trace-abc_123", echoed)
	})

	t.Run("replaces an invalid incoming id", func(t *testing.T) {
		t.Parallel()
		fromCtx, _ := run(t, "not valid!")
		assert.NotEqual(t, "not valid!", fromCtx)
		assert.NotEmpty(t, fromCtx)
	})

	t.Run("replaces an oversized incoming id", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 129)
		fromCtx, _ := run(t, long)
		assert.NotEqual(t, long, fromCtx)
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("empty without a stored id", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, requestid.FromContext(t.Context()))
	})
}
