package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		Endpoint:   server.URL + "/v1beta/",
		Model:      "gemini-test",
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		HTTPClient: server.Client(),
	}
}

func replyWith(text ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var parts []map[string]string
		for _, t := range text {
			parts = append(parts, map[string]string{"text": t})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content":      map[string]interface{}{"role": "model", "parts": parts},
					"finishReason": "STOP",
				},
			},
		})
	}
}

func TestClient_Generate(t *testing.T) {
	var gotReq generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&gotReq))

		replyWith("Hello, ", "world!")(w, r)
	})

	out, err := client.Generate(context.Background(), "say hi")
	require.Nil(t, err)
	assert.Equal(t, "Hello, world!", out)

	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	assert.Equal(t, []part{{Text: "say hi"}}, gotReq.Contents[0].Parts)
}

func TestClient_GenerateErrors(t *testing.T) {
	cases := map[string]struct {
		handler http.HandlerFunc
		wantErr error
		wantMsg string
	}{
		"api error": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`)
			},
			wantMsg: "service error (400 Bad Request): API key not valid.",
		},
		"opaque error": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, "<html>bad gateway</html>")
			},
			wantMsg: "service error (502 Bad Gateway)",
		},
		"no candidates": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"candidates":[]}`)
			},
			wantErr: ErrEmptyResponse,
		},
		"blank text": {
			handler: replyWith("  \n"),
			wantErr: ErrEmptyResponse,
		},
		"blocked": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
			},
			wantMsg: "prompt blocked: SAFETY",
		},
		"garbage": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"candidates":`)
			},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			client := newTestClient(t, tc.handler)

			_, err := client.Generate(context.Background(), "prompt")
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			}
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, err.Error())
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.Timeout = 50 * time.Millisecond

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestClient_RateLimit(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		replyWith("ok")(w, r)
	})
	client.Limiter = NewLimiter(1)

	_, err := client.Generate(context.Background(), "first")
	assert.Nil(t, err)

	_, err = client.Generate(context.Background(), "second")
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 1, calls)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-1))

	limiter := NewLimiter(3)
	require.NotNil(t, limiter)
	assert.Equal(t, int64(3), limiter.Capacity())
}

func TestCheckCredential(t *testing.T) {
	cases := map[string]error{
		"":                 ErrMissingCredential,
		"AIzaSyExample123": nil,
		"has space":        ErrMalformedCredential,
		"trailing\n":       ErrMalformedCredential,
	}

	for key, want := range cases {
		t.Run(fmt.Sprintf("%q", key), func(t *testing.T) {
			assert.Equal(t, want, CheckCredential(key))
		})
	}
}

func TestClient_NoCredentialSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	client.APIKey = ""

	_, err := client.Generate(context.Background(), "prompt")
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.False(t, called)
}
