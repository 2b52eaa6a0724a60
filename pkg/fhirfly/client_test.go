package fhirfly

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientBaseURL(t *testing.T) {
	t.Setenv("FHIRFLY_API_URL", "")
	assert.Equal(t, DefaultBaseURL, NewClient("").baseURL)

	t.Setenv("FHIRFLY_API_URL", "http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", NewClient("").baseURL)
	assert.Equal(t, "http://api.local", NewClient("http://api.local/").baseURL)
}

func TestLoginKeepsToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "12345678901234", body["abhaId"])
			_, _ = w.Write([]byte(`{"token":"tok","expiresAt":1,"user":{"abhaId":"12345678901234","name":"User 1234"}}`))
		case "/api/terminology":
			auth = r.Header.Get("Authorization")
			assert.Equal(t, "jwara fever", r.URL.Query().Get("query"))
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Login(context.Background(), "12345678901234")
	require.NoError(t, err)
	assert.Equal(t, "User 1234", resp.User.Name)
	assert.Equal(t, "tok", c.Token())

	terms, err := c.SearchTerminology(context.Background(), "jwara fever")
	require.NoError(t, err)
	assert.Empty(t, terms)
	assert.Equal(t, "Bearer tok", auth)
}

func TestTranslateDiagnosis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","termName":"Jwara","namasteCode":"AAE-16","icd11Code":"SM2Z"}]`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL)

	got, err := c.TranslateDiagnosis(context.Background(), "aae-16")
	require.NoError(t, err)
	assert.Equal(t, "SM2Z", got.ICD11Code)
	assert.Equal(t, "Mapped successfully", got.Message)

	got, err = c.TranslateDiagnosis(context.Background(), "ZZZ-1")
	require.NoError(t, err)
	assert.Equal(t, &MappingResult{NamasteCode: "ZZZ-1", ICD11Code: Unknown, Message: "No mapping found"}, got)
}

func TestUploadBundle(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bundles", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Bundle uploaded successfully","key":"bundles/x/y.json"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, WithToken("tok")).UploadBundle(context.Background(), []byte(`{"resourceType":"Bundle"}`))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "bundles/x/y.json", resp.Key)
	assert.JSONEq(t, `{"resourceType":"Bundle"}`, received)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Source codesystem not found: siddha","type":"NOT_FOUND"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Translate(context.Background(), TranslationRequest{
		SourceCodeSystem: "siddha",
		TargetCodeSystem: "icd11",
		SourceCode:       "X",
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Source codesystem not found: siddha", apiErr.Message)
}
