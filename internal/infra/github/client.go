// Package github implements the credential provider and the paginated
// REST/GraphQL client for the GitHub API.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/secinv/ghsync/internal/metrics"
)

const defaultUserAgent = "ghsync-client/1.0"

// Config holds the configuration for a Client.
type Config struct {
	BaseURL           string
	GraphQLURL        string
	Token             string
	PerPage           int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client issues authenticated requests against the GitHub API. A client is
// bound to one installation token and lives for one sync pass.
type Client struct {
	httpClient *http.Client
	baseURL    string
	graphqlURL string
	token      string
	perPage    int
	limiter    *rate.Limiter
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	graphqlURL := cfg.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = strings.TrimSuffix(baseURL, "/") + "/graphql"
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		graphqlURL: graphqlURL,
		token:      cfg.Token,
		perPage:    perPage,
		limiter:    limiter,
	}
}

// PerPage returns the configured page size.
func (c *Client) PerPage() int {
	return c.perPage
}

// getJSON fetches a REST resource and decodes the body. A 404 maps to
// ErrNotFound, any other non-2xx to a *FetchError for that resource; a
// successfully fetched empty list is not an error and must be told apart
// from a failed page by the caller via the error value.
func (c *Client) getJSON(ctx context.Context, resource, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(resource, "error").Inc()
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound.Wrap(fmt.Errorf("%s", path))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

// ListOrgRepos returns one page of GET /orgs/{org}/repos. An empty page
// terminates pagination.
func (c *Client) ListOrgRepos(ctx context.Context, org string, page int) ([]Repo, error) {
	path := fmt.Sprintf("/orgs/%s/repos?page=%d&per_page=%d", url.PathEscape(org), page, c.perPage)
	var repos []Repo
	if err := c.getJSON(ctx, "repos", path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListTeams returns the teams of an organisation.
func (c *Client) ListTeams(ctx context.Context, org string) ([]Team, error) {
	path := fmt.Sprintf("/orgs/%s/teams", url.PathEscape(org))
	var teams []Team
	if err := c.getJSON(ctx, "teams", path, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// ListTeamMembers fetches a team's members from its members_url template.
func (c *Client) ListTeamMembers(ctx context.Context, membersURL string) ([]Member, error) {
	// members_url is a URI template like .../members{/member}
	if i := strings.Index(membersURL, "{"); i >= 0 {
		membersURL = membersURL[:i]
	}
	path := strings.TrimPrefix(membersURL, c.baseURL)

	var members []Member
	if err := c.getJSON(ctx, "team members", path, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListDependencyAlerts returns one page of dependabot alerts.
func (c *Client) ListDependencyAlerts(ctx context.Context, org, repo string, page int) ([]DependencyAlert, error) {
	path := fmt.Sprintf("/repos/%s/%s/dependabot/alerts?page=%d&per_page=%d",
		url.PathEscape(org), url.PathEscape(repo), page, c.perPage)
	var alerts []DependencyAlert
	if err := c.getJSON(ctx, "dependabot alerts", path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListCodeAlerts returns one page of code-scanning alerts.
func (c *Client) ListCodeAlerts(ctx context.Context, org, repo string, page int) ([]CodeAlert, error) {
	path := fmt.Sprintf("/repos/%s/%s/code-scanning/alerts?page=%d&per_page=%d",
		url.PathEscape(org), url.PathEscape(repo), page, c.perPage)
	var alerts []CodeAlert
	if err := c.getJSON(ctx, "code scanning alerts", path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListSecretAlerts returns one page of secret-scanning alerts.
func (c *Client) ListSecretAlerts(ctx context.Context, org, repo string, page int) ([]SecretAlert, error) {
	path := fmt.Sprintf("/repos/%s/%s/secret-scanning/alerts?page=%d&per_page=%d",
		url.PathEscape(org), url.PathEscape(repo), page, c.perPage)
	var alerts []SecretAlert
	if err := c.getJSON(ctx, "secret scanning alerts", path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// GetContents fetches a file through the contents API. Returns ErrNotFound
// when the path does not exist in the repository.
func (c *Client) GetContents(ctx context.Context, org, repo, filePath string) (*Contents, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(org), url.PathEscape(repo), filePath)
	var contents Contents
	if err := c.getJSON(ctx, "contents", path, &contents); err != nil {
		return nil, err
	}
	if contents.Name == "" {
		return nil, ErrNotFound.Wrap(fmt.Errorf("%s", filePath))
	}
	return &contents, nil
}

// DecodeContent decodes the base64 payload of a contents response. GitHub
// wraps the encoding with newlines, which the decoder does not accept.
func DecodeContent(contents *Contents) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, contents.Content)

	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("decode contents of %s: %w", contents.Name, err)
	}
	return string(raw), nil
}

// membersQuery fetches the first hundred organisation members with their
// verified domain emails. Single page: completeness for organisations with
// more than a hundred members is a known gap, deliberately not widened here.
const membersQuery = `
query ($login: String!) {
  organization(login: $login) {
    membersWithRole(first: 100) {
      edges {
        node {
          login
          name
          organizationVerifiedDomainEmails(login: $login)
        }
      }
    }
  }
}
`

// OrgMembers runs the membership query. Any non-2xx response or a missing
// organisation is a hard failure: a revoked token or a mistyped organisation
// must abort the users phase loudly, not drain it silently.
func (c *Client) OrgMembers(ctx context.Context, org string) ([]OrgMember, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"query":     membersQuery,
		"variables": map[string]string{"login": org},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal members query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("org members", "error").Inc()
		return nil, fmt.Errorf("fetch org members: %w", err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues("org members", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Resource: "org members", StatusCode: resp.StatusCode}
	}

	var body struct {
		Data struct {
			Organization *struct {
				MembersWithRole struct {
					Edges []struct {
						Node struct {
							Login                            string   `json:"login"`
							Name                             string   `json:"name"`
							OrganizationVerifiedDomainEmails []string `json:"organizationVerifiedDomainEmails"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"membersWithRole"`
			} `json:"organization"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode org members response: %w", err)
	}

	if body.Data.Organization == nil {
		return nil, ErrNotFound.Wrap(fmt.Errorf("organization %q", org))
	}

	edges := body.Data.Organization.MembersWithRole.Edges
	members := make([]OrgMember, 0, len(edges))
	for _, e := range edges {
		members = append(members, OrgMember{
			Login:          e.Node.Login,
			Name:           e.Node.Name,
			VerifiedEmails: e.Node.OrganizationVerifiedDomainEmails,
		})
	}
	return members, nil
}
