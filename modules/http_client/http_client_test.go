package http_client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/testutil"
)

func TestInvoke_PostsJSON(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	var gotBody map[string]any
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sum": 5}`))
	}))
	defer srv.Close()

	inv := New(Options{Timeout: time.Second, Headers: map[string]string{"Authorization": "Bearer t"}})
	defer inv.Close()

	body, rtt, err := inv.Invoke(ctx, srv.URL+"/add", map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sum": 5}`, body)
	assert.GreaterOrEqual(t, rtt, int64(0))
	assert.Equal(t, map[string]any{"a": 2.0, "b": 3.0}, gotBody)
	assert.Equal(t, "Bearer t", gotHeader)
}

func TestInvoke_ErrorStatus(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	inv := New(Options{})
	defer inv.Close()

	_, _, err := inv.Invoke(ctx, srv.URL, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestInvoke_Cancelled(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	inv := New(Options{})
	defer inv.Close()

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, _, err := inv.Invoke(ctx, srv.URL, map[string]any{})
	assert.Error(t, err)
}
