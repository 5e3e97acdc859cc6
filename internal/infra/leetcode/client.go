package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"codeduel/internal/domain"
)

const DefaultEndpoint = "https://leetcode.com/graphql"

const profileQuery = `query getUserProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile {
      userAvatar
      countryName
      ranking
      realName
    }
  }
}`

// Client queries the LeetCode GraphQL API for public profiles.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type profileResponse struct {
	Data struct {
		MatchedUser *struct {
			Username string `json:"username"`
			Profile  struct {
				UserAvatar  string `json:"userAvatar"`
				CountryName string `json:"countryName"`
				Ranking     int    `json:"ranking"`
				RealName    string `json:"realName"`
			} `json:"profile"`
		} `json:"matchedUser"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// LoadProfile implements the profile loader used by the caches.
func (c *Client) LoadProfile(ctx context.Context, username string) (domain.Profile, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:     profileQuery,
		Variables: map[string]any{"username": username},
	})
	if err != nil {
		return domain.Profile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Profile{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("leetcode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("leetcode request: unexpected status %d", resp.StatusCode)
	}

	var decoded profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Profile{}, fmt.Errorf("decode leetcode response: %w", err)
	}
	if decoded.Data.MatchedUser == nil {
		if len(decoded.Errors) > 0 {
			return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, decoded.Errors[0].Message)
		}
		return domain.Profile{}, domain.ErrProfileNotFound
	}

	u := decoded.Data.MatchedUser
	return domain.Profile{
		Username:   u.Username,
		UserAvatar: u.Profile.UserAvatar,
		Country:    u.Profile.CountryName,
		Ranking:    u.Profile.Ranking,
		RealName:   u.Profile.RealName,
	}, nil
}
