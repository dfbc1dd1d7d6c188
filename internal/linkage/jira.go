package linkage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// JiraConfig holds connection settings for a Jira Cloud instance
type JiraConfig struct {
	// BaseURL is the instance root, e.g. "https://your-domain.atlassian.net"
	BaseURL string `yaml:"base_url"`

	// Email and APIToken form the basic-auth credential pair
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`

	// ProjectKey scopes searches to one project, e.g. "PROJ"
	ProjectKey string `yaml:"project_key"`

	// RequestsPerSecond caps outbound API calls. Zero means the default (5).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Validate checks if the config has the required fields
func (c *JiraConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Email == "" || c.APIToken == "" {
		return fmt.Errorf("email and api_token are required")
	}
	if c.ProjectKey == "" {
		return fmt.Errorf("project_key is required")
	}
	return nil
}

// JiraResolver looks issues up in Jira via the REST search API. Matching is
// a summary text search scoped to the configured project; the top-ranked hit
// wins.
type JiraResolver struct {
	config  JiraConfig
	client  *http.Client
	limiter *rate.Limiter
}

// Compile-time check that JiraResolver implements Resolver
var _ Resolver = (*JiraResolver)(nil)

// NewJiraResolver creates a Jira-backed resolver
func NewJiraResolver(config JiraConfig) (*JiraResolver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jira config: %w", err)
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &JiraResolver{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// jiraSearchResponse is the subset of the search payload we read
type jiraSearchResponse struct {
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
			Status  struct {
				Name string `json:"name"`
			} `json:"status"`
		} `json:"fields"`
	} `json:"issues"`
}

// Resolve searches Jira for an issue whose summary matches the title
func (r *JiraResolver) Resolve(ctx context.Context, title, description string) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	jql := fmt.Sprintf(`project = %s AND summary ~ %q ORDER BY updated DESC`, r.config.ProjectKey, escapeJQL(title))

	endpoint := fmt.Sprintf("%s/rest/api/3/search?%s", strings.TrimSuffix(r.config.BaseURL, "/"), url.Values{
		"jql":        {jql},
		"maxResults": {"1"},
		"fields":     {"summary,status"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.SetBasicAuth(r.config.Email, r.config.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jira search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var search jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("failed to decode jira response: %w", err)
	}

	if len(search.Issues) == 0 {
		return &Result{Exists: false}, nil
	}

	hit := search.Issues[0]
	return &Result{
		Exists: true,
		Key:    hit.Key,
		Status: hit.Fields.Status.Name,
	}, nil
}

// escapeJQL strips characters that would terminate or alter the quoted JQL
// text term
func escapeJQL(s string) string {
	s = strings.ReplaceAll(s, `"`, ``)
	s = strings.ReplaceAll(s, `\`, ``)
	return s
}
