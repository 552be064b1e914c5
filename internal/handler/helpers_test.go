package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, method, url, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	r, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	r.Header = authHeader(token)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	res, err := client.Do(r)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	if res.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	}
	return res.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
