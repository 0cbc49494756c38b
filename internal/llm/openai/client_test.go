package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/common"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

var testCandidates = []entity.ServiceCatalogEntry{
	{ID: "svc-1", Name: "이동지원", Summary: "이동 보조", Ministry: "보건복지부"},
	{ID: "svc-2", Name: "복지상담", Summary: "상담 제공", Ministry: "보건복지부"},
}

func TestGenerateParsesAndMergesServices(t *testing.T) {
	content := `{
  "summary": "요약",
  "risk": "위험",
  "advice": "조언",
  "mobility_services": [{"name": "이동지원", "reason": "이동 패턴 기반"}],
  "welfare_services": [{"name": "복지상담", "reason": "상담 필요"}]
}`
	srv := chatServer(t, content)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, discardLogger())
	draft, raw, err := c.Generate(context.Background(), entity.UserContext{RecipientType: constants.RecipientGeneral}, testCandidates)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "요약", draft.Summary)
	require.Len(t, draft.Services, 2)
	assert.Equal(t, constants.CategoryMobility, draft.Services[0].Category)
	assert.Equal(t, constants.CategoryWelfare, draft.Services[1].Category)
}

func TestGenerateMissingRequiredFields(t *testing.T) {
	srv := chatServer(t, `{"summary": "요약만"}`)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, discardLogger())
	_, _, err := c.Generate(context.Background(), entity.UserContext{}, testCandidates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamReasoning))
}

func TestGenerateNonJSONContent(t *testing.T) {
	srv := chatServer(t, `I cannot answer in JSON today.`)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, discardLogger())
	_, _, err := c.Generate(context.Background(), entity.UserContext{}, testCandidates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamReasoning))
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, discardLogger())
	_, _, err := c.Generate(context.Background(), entity.UserContext{}, testCandidates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamReasoning))
}

func TestGenerateHTTPErrorWrapsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, discardLogger())
	_, _, err := c.Generate(context.Background(), entity.UserContext{}, testCandidates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamReasoning))
}

func TestSystemPromptListsCandidateNames(t *testing.T) {
	prompt := buildSystemPrompt(testCandidates)
	assert.Contains(t, prompt, "이동지원")
	assert.Contains(t, prompt, "복지상담")
	assert.Contains(t, prompt, "Korean")
}
