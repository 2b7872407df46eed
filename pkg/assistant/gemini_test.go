package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(GeminiConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL + "/v1/models/",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(GeminiConfig{APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGeminiClient_Send(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"nmap -sV TARGET"}]},"finishReason":"STOP"}]}`))
	})

	reply, err := client.Send(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "nmap -sV TARGET", reply.Text)
	assert.Equal(t, "STOP", reply.FinishReason)
	assert.Equal(t, "/v1/models/test-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "hello", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     FailureKind
		contains string
	}{
		{"Service Error Body", http.StatusOK, `{"error":{"code":400,"message":"API key not valid"}}`, FailureService, "[API Error: API key not valid]"},
		{"Service Error Status", http.StatusForbidden, `{"error":{"code":403,"message":"permission denied"}}`, FailureService, "permission denied"},
		{"Bare Status", http.StatusBadGateway, `upstream down`, FailureNetwork, "[Network/Request Error]"},
		{"Malformed JSON", http.StatusOK, `{not json`, FailureMalformed, "[Parsing Error]"},
		{"No Candidates", http.StatusOK, `{"candidates":[]}`, FailureMalformed, "structure unexpected"},
		{"Blocked Prompt", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, FailureEmpty, "possible safety block"},
		{"Empty Text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"SAFETY"}]}`, FailureEmpty, "possible safety block"},
		{"No Parts", http.StatusOK, `{"candidates":[{"content":{}}]}`, FailureEmpty, "possible safety block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Send(context.Background(), "x")
			require.Error(t, err)

			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Contains(t, Describe(err), tt.contains)
		})
	}
}

func TestGeminiClient_NetworkErrorHidesKey(t *testing.T) {
	client, err := NewGeminiClient(GeminiConfig{
		APIKey:  "super-secret",
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, KindOf(err))
	assert.NotContains(t, Describe(err), "super-secret")
	assert.NotContains(t, err.Error(), "super-secret")
}

func TestGeminiClient_ContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Send(ctx, "x")
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompose(t *testing.T) {
	prompt := Compose("what is nmap?")
	assert.True(t, strings.HasPrefix(prompt, Preamble))
	assert.True(t, strings.HasSuffix(prompt, "User Query/Context:\nwhat is nmap?"))

	analysis := ComposeAnalysis("80/tcp open http")
	assert.Contains(t, analysis, AnalysisInstruction+"\n\n80/tcp open http")
	assert.True(t, strings.HasPrefix(analysis, Preamble))
}

func TestDescribe_PlainError(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Equal(t, "[Network/Request Error]: boom", Describe(errors.New("boom")))
	assert.Equal(t, FailureNetwork, KindOf(errors.New("boom")))
}
