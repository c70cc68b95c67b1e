package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexch/msg-triage/internal/adapters/feedback"
	"github.com/alexch/msg-triage/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	rules := core.NewRuleEngine(nil)
	dispatcher := core.NewDispatcher(rules, nil, time.Second, nil)
	service := core.NewTriageService(rules, dispatcher, 10, nil)
	store := feedback.NewMemoryStore(zap.NewNop(), 50)
	return NewServer(service, store, zap.NewNop(), "127.0.0.1:0")
}

func perform(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer()
	w := perform(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["rule_only"])
}

func TestClassifyEndpoint(t *testing.T) {
	s := newTestServer()

	body := `{"messages": [
		{"id": "1", "subject": "Please confirm attendance?", "sender": "teacher@school.edu", "preview": ""},
		{"id": "2", "subject": "50% off sale this week", "sender": "newsletter@deals.com", "preview": ""}
	]}`
	w := perform(s, http.MethodPost, "/classify", body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success     bool                  `json:"success"`
		Categorized core.CategorizedBatch `json:"categorized"`
		Total       int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Categorized.NeedsReply, 1)
	require.Len(t, resp.Categorized.Ignore, 1)
	assert.Equal(t, "1", resp.Categorized.NeedsReply[0].ID)
	assert.Equal(t, "2", resp.Categorized.Ignore[0].ID)
}

func TestClassifyEmptyGroupsSerializeAsLists(t *testing.T) {
	s := newTestServer()

	body := `{"messages": [
		{"id": "1", "subject": "hello", "sender": "someone@example.com"}
	]}`
	w := perform(s, http.MethodPost, "/classify", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"needs_reply":[]`)
	assert.Contains(t, w.Body.String(), `"ignore":[]`)
}

func TestClassifyValidation(t *testing.T) {
	s := newTestServer()

	longSubject := strings.Repeat("a", 501)
	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf(`{"id": "m%d", "subject": "s", "sender": "a@b.com"}`, i)
	}

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"empty batch", `{"messages": []}`},
		{"too many messages", `{"messages": [` + strings.Join(tooMany, ",") + `]}`},
		{"missing id", `{"messages": [{"subject": "s", "sender": "a@b.com"}]}`},
		{"blank subject", `{"messages": [{"id": "1", "subject": "   ", "sender": "a@b.com"}]}`},
		{"blank sender", `{"messages": [{"id": "1", "subject": "s", "sender": ""}]}`},
		{"oversized subject", `{"messages": [{"id": "1", "subject": "` + longSubject + `", "sender": "a@b.com"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(s, http.MethodPost, "/classify", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCorrectionEndpoint(t *testing.T) {
	s := newTestServer()

	body := `{
		"message_id": "1",
		"predicted_category": "ignore",
		"correct_category": "needs_reply",
		"message": {"subject": "Lunch?", "sender": "friend@gmail.com", "preview": "let me know"}
	}`
	w := perform(s, http.MethodPost, "/correction", body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["total_corrections"])
}

func TestCorrectionRejectsUnknownCategory(t *testing.T) {
	s := newTestServer()

	body := `{
		"message_id": "1",
		"predicted_category": "spam",
		"correct_category": "needs_reply",
		"message": {"subject": "s", "sender": "a@b.com"}
	}`
	w := perform(s, http.MethodPost, "/correction", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelStatsEndpoint(t *testing.T) {
	s := newTestServer()

	correction := `{
		"message_id": "1",
		"predicted_category": "ignore",
		"correct_category": "needs_reply",
		"message": {"subject": "Lunch?", "sender": "friend@gmail.com"}
	}`
	perform(s, http.MethodPost, "/correction", correction)

	w := perform(s, http.MethodGet, "/model-stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success  bool                  `json:"success"`
		Accuracy core.AccuracyReport   `json:"accuracy"`
		Mistakes []core.MistakePattern `json:"common_mistakes"`
		Stats    map[string]int        `json:"feedback_statistics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Accuracy.TotalCorrections)
	require.Len(t, resp.Mistakes, 1)
	assert.Equal(t, 1, resp.Stats["ignore_to_needs_reply"])
}
