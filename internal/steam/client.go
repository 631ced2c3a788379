// Package steam is the gateway to the Steam Web API.
//
// Every method issues one GET to a query-parameterized endpoint, decodes the
// JSON envelope, and classifies the outcome:
//
//	200 + well-formed body → decoded record
//	403                    → apperror.ErrRateLimited (bad key or throttled)
//	any other status       → apperror.ErrUnavailable
//	empty body             → apperror.ErrUnavailable
//	decode failure         → apperror.ErrUnavailable
//	transport failure      → apperror.ErrUnavailable
//
// Each call is raced against a fixed wall-clock budget via internal/await;
// a budget overrun surfaces as apperror.ErrTimeout. All of these are soft
// failures — the calling orchestrator substitutes synthetic data, the
// gateway itself never retries.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/await"
	"github.com/sakif/playmate/internal/model"
)

// DefaultBaseURL is the public Steam Web API host.
const DefaultBaseURL = "https://api.steampowered.com"

// DefaultTimeout is the per-call budget.
const DefaultTimeout = 15 * time.Second

// statusProbeID is a well-known public profile used by ServerStatus to
// probe API health without depending on any user input.
const statusProbeID = "76561197960435530"

// Config carries the client's construction parameters. APIKey is the only
// required field; zero values for the rest fall back to defaults.
type Config struct {
	APIKey     string
	BaseURL    string        // override for tests
	Timeout    time.Duration // per-call budget
	HTTPClient *http.Client
}

// Client talks to the Steam Web API. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client from cfg, applying defaults for unset fields.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		logger:  logger,
	}
}

// PlayerSummary fetches the profile summary for a canonical numeric id.
// Returns apperror.ErrNotFound when the player list comes back empty, which
// Steam sends both for unknown and for private profiles.
func (c *Client) PlayerSummary(ctx context.Context, steamID string) (*model.Profile, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamids", steamID)

	var env playerSummariesResponse
	if err := c.getJSON(ctx, "profile fetch", "/ISteamUser/GetPlayerSummaries/v0002/", q, &env); err != nil {
		return nil, err
	}

	if len(env.Response.Players) == 0 {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "profile not found or is private",
		}
	}

	profile := env.Response.Players[0]
	return &profile, nil
}

// RecentlyPlayed fetches up to count recently played games.
func (c *Client) RecentlyPlayed(ctx context.Context, steamID string, count int) ([]model.Game, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)
	if count > 0 {
		q.Set("count", fmt.Sprintf("%d", count))
	}

	var env recentGamesResponse
	if err := c.getJSON(ctx, "recent games fetch", "/IPlayerService/GetRecentlyPlayedGames/v0001/", q, &env); err != nil {
		return nil, err
	}

	return env.Response.Games, nil
}

// OwnedGames fetches the full library with app info, including free games
// the player has launched.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]model.Game, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)
	q.Set("include_appinfo", "1")
	q.Set("include_played_free_games", "1")

	var env ownedGamesResponse
	if err := c.getJSON(ctx, "owned games fetch", "/IPlayerService/GetOwnedGames/v0001/", q, &env); err != nil {
		return nil, err
	}

	games := make([]model.Game, 0, len(env.Response.Games))
	for _, og := range env.Response.Games {
		games = append(games, og.toGame())
	}
	return games, nil
}

// Achievements fetches the player's achievement list for one title.
func (c *Client) Achievements(ctx context.Context, appID int, steamID string) ([]Achievement, error) {
	q := url.Values{}
	q.Set("appid", fmt.Sprintf("%d", appID))
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)

	var env achievementsResponse
	if err := c.getJSON(ctx, "achievements fetch", "/ISteamUserStats/GetPlayerAchievements/v1/", q, &env); err != nil {
		return nil, err
	}

	return env.PlayerStats.Achievements, nil
}

// GameStats fetches the loosely-typed per-title stat list and projects the
// known keys. Keys Steam does not send stay at their zero value; the caller
// applies the field-level fallback from the recency call.
func (c *Client) GameStats(ctx context.Context, appID int, steamID string) (GameStats, error) {
	q := url.Values{}
	q.Set("appid", fmt.Sprintf("%d", appID))
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)

	var env userStatsResponse
	if err := c.getJSON(ctx, "game stats fetch", "/ISteamUserStats/GetUserStatsForGame/v2/", q, &env); err != nil {
		return GameStats{}, err
	}

	var gs GameStats
	for _, stat := range env.PlayerStats.Stats {
		switch stat.Name {
		case "total_time_played":
			gs.TotalTimePlayed = stat.Value
		case "time_played_2weeks":
			gs.TimePlayed2Weeks = stat.Value
		case "last_played":
			gs.LastPlayed = int64(stat.Value)
		}
	}
	return gs, nil
}

// MatchHistory fetches recent matches. mode may be empty; limit <= 0 leaves
// the endpoint default.
func (c *Client) MatchHistory(ctx context.Context, steamID, mode string, limit int) ([]model.MatchRecord, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)
	if mode != "" {
		q.Set("mode", mode)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}

	var env matchHistoryResponse
	if err := c.getJSON(ctx, "match history fetch", "/ICSGOServers_730/GetMatchHistory/v1/", q, &env); err != nil {
		return nil, err
	}

	return env.Matches, nil
}

// ServerStatus probes API health with a summary request for a well-known
// profile and maps the status code: 200 online, 403 issues, anything else
// offline, transport failure issues. It never returns an error.
func (c *Client) ServerStatus(ctx context.Context) model.ServerStatus {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamids", statusProbeID)

	code, err := await.Do(ctx, "status probe", c.timeout, func(ctx context.Context) (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/ISteamUser/GetPlayerSummaries/v0002/", q), nil)
		if err != nil {
			return 0, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	})
	if err != nil {
		return model.StatusIssues
	}

	switch code {
	case http.StatusOK:
		return model.StatusOnline
	case http.StatusForbidden:
		return model.StatusIssues
	default:
		return model.StatusOffline
	}
}

func (c *Client) endpoint(path string, q url.Values) string {
	return c.baseURL + path + "?" + q.Encode()
}

// getJSON performs the GET under the per-call budget and decodes the body
// into v, classifying every failure mode as a soft apperror.
func (c *Client) getJSON(ctx context.Context, operation, path string, q url.Values, v any) error {
	body, err := await.Do(ctx, operation, c.timeout, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, path, q)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		c.logger.Warn("steam response decode failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return apperror.Unavailable(fmt.Sprintf("decoding %s response", operation))
	}

	return nil
}

func (c *Client) fetch(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Sprintf("steam: building request: %v", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Unavailable("network error reaching the Steam API")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, apperror.RateLimited("invalid Steam API key or rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Unavailable(fmt.Sprintf("steam api returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Unavailable("reading steam api response")
	}
	if len(body) == 0 {
		return nil, apperror.Unavailable("empty response body from steam api")
	}

	return body, nil
}
