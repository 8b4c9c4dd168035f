package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// GitHub contributes star/fork-count metrics and a canonical repo title for
// `github` namespace aliases of the form "owner/repo".
type GitHub struct {
	base
	Client  provider.HTTPClient
	BaseURL string
}

func NewGitHub() *GitHub {
	return &GitHub{
		base:    base{name: "github", maxRetries: 3, baseSleep: time.Second},
		Client:  provider.NewCachingHTTPClient(http.DefaultClient),
		BaseURL: "https://api.github.com/repos",
	}
}

func (g *GitHub) ProvidesAliases() bool { return false }
func (g *GitHub) ProvidesBiblio() bool  { return true }
func (g *GitHub) ProvidesMetrics() bool { return true }

func (g *GitHub) IsRelevantAlias(a item.Alias) bool {
	if item.CanonicalNamespace(a.Namespace) == "github" {
		return true
	}
	return item.CanonicalNamespace(a.Namespace) == "url" && strings.Contains(a.ID, "github.com/")
}

type githubRepoResponse struct {
	FullName        string `json:"full_name"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	Description     string `json:"description"`
}

func (g *GitHub) fetch(ctx context.Context, slug string) (*githubRepoResponse, string, error) {
	u := fmt.Sprintf("%s/%s", g.BaseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, u, provider.NewError(provider.KindUnknown, g.name, "fetch", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, u, provider.NewError(provider.KindTimeout, g.name, "fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, u, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), g.name, "fetch", fmt.Errorf("status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, u, provider.NewError(provider.KindContentMalformed, g.name, "fetch", err)
	}
	var parsed githubRepoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, u, provider.NewError(provider.KindContentMalformed, g.name, "fetch", err)
	}
	return &parsed, u, nil
}

func (g *GitHub) slugFor(a item.Alias) string {
	if item.CanonicalNamespace(a.Namespace) == "github" {
		return a.ID
	}
	idx := strings.Index(a.ID, "github.com/")
	return strings.TrimSuffix(strings.Trim(a.ID[idx+len("github.com/"):], "/"), ".git")
}

func (g *GitHub) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	return nil, provider.ErrNotImplemented(g.name, "aliases")
}

func (g *GitHub) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	for _, a := range aliases {
		if !g.IsRelevantAlias(a) {
			continue
		}
		repo, _, err := g.fetch(ctx, g.slugFor(a))
		if err != nil {
			return nil, err
		}
		out := map[string]any{"title": repo.FullName}
		if repo.Description != "" {
			out["description"] = repo.Description
		}
		return out, nil
	}
	return nil, provider.ErrNotImplemented(g.name, "biblio")
}

// MemberItems expands a GitHub organization or user name (the raw query
// body, trimmed) into one github-namespace alias per repository, for the
// member-items job.
func (g *GitHub) MemberItems(ctx context.Context, query io.Reader) ([]item.Alias, error) {
	raw, err := io.ReadAll(query)
	if err != nil {
		return nil, provider.NewError(provider.KindUnknown, g.name, "memberitems", err)
	}
	org := strings.TrimSpace(string(raw))
	if org == "" {
		return nil, provider.NewError(provider.KindClientError, g.name, "memberitems", fmt.Errorf("empty org/user"))
	}

	u := fmt.Sprintf("https://api.github.com/users/%s/repos", org)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.NewError(provider.KindUnknown, g.name, "memberitems", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.KindTimeout, g.name, "memberitems", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), g.name, "memberitems", fmt.Errorf("status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.KindContentMalformed, g.name, "memberitems", err)
	}
	var repos []githubRepoResponse
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, provider.NewError(provider.KindContentMalformed, g.name, "memberitems", err)
	}

	out := make([]item.Alias, 0, len(repos))
	for _, r := range repos {
		if r.FullName != "" {
			out = append(out, item.Alias{Namespace: "github", ID: r.FullName})
		}
	}
	return out, nil
}

func (g *GitHub) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	for _, a := range aliases {
		if !g.IsRelevantAlias(a) {
			continue
		}
		repo, u, err := g.fetch(ctx, g.slugFor(a))
		if err != nil {
			return nil, err
		}
		out := map[string]item.MetricSample{}
		if repo.StargazersCount > 0 {
			out["stars"] = item.MetricSample{Value: float64(repo.StargazersCount), ProvenanceURL: u}
		}
		if repo.ForksCount > 0 {
			out["forks"] = item.MetricSample{Value: float64(repo.ForksCount), ProvenanceURL: u}
		}
		return out, nil
	}
	return map[string]item.MetricSample{}, nil
}
