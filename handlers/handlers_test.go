package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/phonginreallife/sentinel/docstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	store, err := docstore.NewBleveStore(docstore.BleveConfig{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// serve runs one request through r and returns the recorder.
func serve(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
