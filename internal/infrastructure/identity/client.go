// Package identity resolves user roles through the external identity service.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockflow/internal/core/security"
	"stockflow/internal/domain/access"
)

// Config configures the identity client.
type Config struct {
	URL string
	// Project is the project name whose role applies to this service
	Project string
	Timeout time.Duration
}

// Client queries the identity service.
type Client struct {
	baseURL string
	project string
	http    *http.Client
}

var _ access.RoleResolver = (*Client)(nil)

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("identity url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	project := cfg.Project
	if project == "" {
		project = "MintStock"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		project: project,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type userProjects struct {
	IsAdmin  bool `json:"is_admin"`
	Projects []struct {
		ProjectName string `json:"project_name"`
		Role        string `json:"role"`
	} `json:"projects"`
}

// ResolveRole returns ADMIN for identity administrators, the project role when
// the user has a recognised one, and SUPERVISOR otherwise.
func (c *Client) ResolveRole(ctx context.Context, username string) (security.Role, error) {
	endpoint := c.baseURL + "/auth/user-projects?username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity lookup for %s: %w", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("identity lookup for %s: status %d", username, resp.StatusCode)
	}

	var data userProjects
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return "", fmt.Errorf("identity lookup for %s: decode: %w", username, err)
	}

	if data.IsAdmin {
		return security.RoleAdmin, nil
	}
	for _, p := range data.Projects {
		if p.ProjectName != c.project {
			continue
		}
		if role, ok := security.ParseRole(p.Role); ok {
			return role, nil
		}
	}
	return security.RoleSupervisor, nil
}
