package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client читает статистику репозиториев через GitHub REST API
type Client struct {
	api *gh.Client
	log *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	api := gh.NewClient(&http.Client{Timeout: cfg.Timeout})
	if cfg.Token != "" {
		api = api.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		api.BaseURL = u
	}

	return &Client{api: api, log: log}, nil
}

func (c *Client) FetchRepoStats(ctx context.Context, owner, repo string) (*result.RepoStats, error) {
	r, resp, err := c.api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}

	if resp != nil && resp.Rate.Limit > 0 {
		c.log.Debug("github rate limit",
			zap.Int("remaining", resp.Rate.Remaining),
			zap.Int("limit", resp.Rate.Limit),
		)
	}

	return &result.RepoStats{
		Stars:      r.GetStargazersCount(),
		Forks:      r.GetForksCount(),
		OpenIssues: r.GetOpenIssuesCount(),
	}, nil
}
