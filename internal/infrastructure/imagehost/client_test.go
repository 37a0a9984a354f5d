package imagehost

import (
	"context"
	"encoding/base64"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestUploadSendsBase64Form(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		decoded, err := base64.StdEncoding.DecodeString(r.FormValue("image"))
		assert.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(decoded))
		assert.Equal(t, "dawn.jpg", r.FormValue("name"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"status":200,"data":{"id":"abc","url":"https://i.example/abc.jpg","display_url":"https://i.example/abc-display.jpg","delete_url":"https://i.example/delete/abc"}}`)
	}))
	defer server.Close()

	client := New(server.URL+"/1/upload", "secret", time.Second, discardLogger())
	uploaded, err := client.Upload(context.Background(), []byte("jpeg-bytes"), "dawn.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/abc-display.jpg", uploaded.DisplayURL)
	assert.Equal(t, "https://i.example/delete/abc", uploaded.DeleteHandle)
}

func TestUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"status":400,"error":{"message":"Invalid API v1 key."}}`)
	}))
	defer server.Close()

	client := New(server.URL, "bad", time.Second, discardLogger())
	_, err := client.Upload(context.Background(), []byte("x"), "x.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API v1 key.")
}

func TestUploadRequiresConfiguration(t *testing.T) {
	_, err := New("", "", 0, discardLogger()).Upload(context.Background(), []byte("x"), "x.jpg")
	assert.Error(t, err)
}

func TestRelease(t *testing.T) {
	statuses := map[string]int{"/ok": http.StatusOK, "/gone": http.StatusNotFound, "/boom": http.StatusInternalServerError}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(statuses[r.URL.Path])
	}))
	defer server.Close()

	client := New(server.URL, "key", time.Second, discardLogger())
	assert.NoError(t, client.Release(context.Background(), server.URL+"/ok"))
	assert.NoError(t, client.Release(context.Background(), server.URL+"/gone"))
	assert.Error(t, client.Release(context.Background(), server.URL+"/boom"))
	assert.NoError(t, client.Release(context.Background(), ""))
}
