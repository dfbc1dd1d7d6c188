package linkage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJiraTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *JiraResolver) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	resolver, err := NewJiraResolver(JiraConfig{
		BaseURL:    server.URL,
		Email:      "bot@example.com",
		APIToken:   "token",
		ProjectKey: "PROJ",
	})
	require.NoError(t, err)
	return server, resolver
}

func TestJiraConfigValidate(t *testing.T) {
	valid := JiraConfig{BaseURL: "https://x.atlassian.net", Email: "a@b.c", APIToken: "t", ProjectKey: "PROJ"}
	assert.NoError(t, valid.Validate())

	for _, mutate := range []func(*JiraConfig){
		func(c *JiraConfig) { c.BaseURL = "" },
		func(c *JiraConfig) { c.Email = "" },
		func(c *JiraConfig) { c.APIToken = "" },
		func(c *JiraConfig) { c.ProjectKey = "" },
	} {
		cfg := valid
		mutate(&cfg)
		assert.Error(t, cfg.Validate())
	}
}

func TestJiraResolverFindsMatch(t *testing.T) {
	var gotJQL string
	_, resolver := newJiraTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "token", pass)
		gotJQL = r.URL.Query().Get("jql")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issues": []map[string]interface{}{
				{
					"key": "PROJ-123",
					"fields": map[string]interface{}{
						"summary": "App crashes on iOS 17",
						"status":  map[string]string{"name": "In Progress"},
					},
				},
			},
		})
	})

	result, err := resolver.Resolve(context.Background(), "App crashes on iOS 17", "")
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.Equal(t, "PROJ-123", result.Key)
	assert.Equal(t, "In Progress", result.Status)
	assert.Contains(t, gotJQL, "project = PROJ")
	assert.Contains(t, gotJQL, "App crashes on iOS 17")
}

func TestJiraResolverNoMatch(t *testing.T) {
	_, resolver := newJiraTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"issues": []interface{}{}})
	})

	result, err := resolver.Resolve(context.Background(), "Never seen before", "")
	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.Empty(t, result.Key)
}

func TestJiraResolverServerError(t *testing.T) {
	_, resolver := newJiraTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := resolver.Resolve(context.Background(), "Crash", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestJiraResolverEscapesJQL(t *testing.T) {
	var gotJQL string
	_, resolver := newJiraTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotJQL = r.URL.Query().Get("jql")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"issues": []interface{}{}})
	})

	_, err := resolver.Resolve(context.Background(), `Crash in "parser" \ module`, "")
	require.NoError(t, err)
	assert.NotContains(t, gotJQL, `\"parser\"`)
	assert.Contains(t, gotJQL, "Crash in parser")
}

func TestStaticResolver(t *testing.T) {
	resolver := NewStaticResolver(map[string]Entry{
		"Payment processing errors": {Key: "PROJ-456", Status: "To Do"},
	})
	ctx := context.Background()

	result, err := resolver.Resolve(ctx, "Payment processing errors", "ignored")
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.Equal(t, "PROJ-456", result.Key)
	assert.Equal(t, "To Do", result.Status)

	result, err = resolver.Resolve(ctx, "Unknown title", "")
	require.NoError(t, err)
	assert.False(t, result.Exists)

	resolver.Set("New issue", Entry{Key: "PROJ-9", Status: "Backlog"})
	result, err = resolver.Resolve(ctx, "New issue", "")
	require.NoError(t, err)
	assert.True(t, result.Exists)
}
