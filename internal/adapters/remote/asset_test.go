package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeAsset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/images/007.jpg" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	ctx := context.Background()
	require.NoError(t, ProbeAsset(ctx, ts.URL+"/images/007.jpg", time.Second))

	var se *StatusError
	err := ProbeAsset(ctx, ts.URL+"/images/999.jpg", time.Second)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)

	assert.Error(t, ProbeAsset(ctx, "http://127.0.0.1:1/x.jpg", time.Second))
}
