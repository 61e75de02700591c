package clashroyale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"royalwager/domain/entities"
	"royalwager/domain/services"
	"royalwager/domain/wagererr"
	"royalwager/infrastructure/observability"
)

// DefaultBaseURL is the public RoyaleAPI proxy in front of the official API
const DefaultBaseURL = "https://proxy.royaleapi.dev/v1"

// battleTimeLayout is the compact ISO-8601 form the API uses for battleTime
const battleTimeLayout = "20060102T150405.000Z"

// maxErrorBody bounds how much of an error response is read for logging
const maxErrorBody = 4 << 10

// Client is the match oracle backed by the Clash Royale HTTP API.
// It is stateless apart from in-flight request collapsing.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *observability.MetricsProvider
	group      singleflight.Group
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records call latency and failures
func WithMetrics(m *observability.MetricsProvider) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates an oracle client. Every request is bounded by timeout.
func NewClient(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiParticipant struct {
	Tag    string `json:"tag"`
	Name   string `json:"name"`
	Crowns int    `json:"crowns"`
}

type apiBattle struct {
	Type       string           `json:"type"`
	BattleTime string           `json:"battleTime"`
	Team       []apiParticipant `json:"team"`
	Opponent   []apiParticipant `json:"opponent"`
}

type apiPlayer struct {
	Tag                   string `json:"tag"`
	Name                  string `json:"name"`
	ExpLevel              int    `json:"expLevel"`
	Trophies              int    `json:"trophies"`
	BestTrophies          int    `json:"bestTrophies"`
	Wins                  int    `json:"wins"`
	Losses                int    `json:"losses"`
	BattleCount           int    `json:"battleCount"`
	ThreeCrownWins        int    `json:"threeCrownWins"`
	ChallengeMaxWins      int    `json:"challengeMaxWins"`
	TournamentBattleCount int    `json:"tournamentBattleCount"`
	Arena                 *struct {
		Name string `json:"name"`
	} `json:"arena"`
	Clan *struct {
		Name string `json:"name"`
	} `json:"clan"`
}

// FetchRecentMatches returns the player's recent battles, newest first
func (c *Client) FetchRecentMatches(ctx context.Context, tag string) ([]entities.MatchRecord, error) {
	normalized, err := services.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}

	v, err, _ := c.group.Do("battlelog:"+normalized, func() (interface{}, error) {
		var battles []apiBattle
		if err := c.get(ctx, "battlelog", "/players/"+url.PathEscape(normalized)+"/battlelog", &battles); err != nil {
			return nil, err
		}
		return toMatchRecords(normalized, battles), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entities.MatchRecord), nil
}

// FetchPlayerSummary returns display-only player statistics
func (c *Client) FetchPlayerSummary(ctx context.Context, tag string) (*entities.PlayerSummary, error) {
	normalized, err := services.NormalizeTag(tag)
	if err != nil {
		return nil, err
	}

	v, err, _ := c.group.Do("player:"+normalized, func() (interface{}, error) {
		var p apiPlayer
		if err := c.get(ctx, "player", "/players/"+url.PathEscape(normalized), &p); err != nil {
			return nil, err
		}
		summary := &entities.PlayerSummary{
			Tag:                   p.Tag,
			Name:                  p.Name,
			ExpLevel:              p.ExpLevel,
			Trophies:              p.Trophies,
			BestTrophies:          p.BestTrophies,
			Wins:                  p.Wins,
			Losses:                p.Losses,
			BattleCount:           p.BattleCount,
			ThreeCrownWins:        p.ThreeCrownWins,
			ChallengeMaxWins:      p.ChallengeMaxWins,
			TournamentBattleCount: p.TournamentBattleCount,
		}
		if summary.Tag == "" {
			summary.Tag = normalized
		}
		if p.Arena != nil {
			summary.Arena = p.Arena.Name
		}
		if p.Clan != nil {
			summary.Clan = p.Clan.Name
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers may mutate the summary; hand each one its own copy
	summary := *v.(*entities.PlayerSummary)
	return &summary, nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordOracleCall(ctx, op, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return wagererr.Wrap(wagererr.CodeOracleUnavailable, err, "failed to build %s request", op)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wagererr.Wrap(wagererr.CodeOracleUnavailable, err, "%s request failed", op)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return wagererr.New(wagererr.CodePlayerNotFound, "player not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.WithFields(log.Fields{
			"operation": op,
			"status":    resp.StatusCode,
			"body":      string(body),
		}).Warn("Clash Royale API returned an error")
		return wagererr.New(wagererr.CodeOracleUnavailable, "%s request returned status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wagererr.Wrap(wagererr.CodeOracleUnavailable, err, "failed to decode %s response", op)
	}
	return nil
}

// toMatchRecords maps raw battles to records from the requested player's side.
// Entries that cannot be interpreted are skipped.
func toMatchRecords(selfTag string, battles []apiBattle) []entities.MatchRecord {
	records := make([]entities.MatchRecord, 0, len(battles))
	for i, b := range battles {
		record, err := toMatchRecord(selfTag, b)
		if err != nil {
			log.WithFields(log.Fields{
				"tag":        selfTag,
				"index":      i,
				"battleTime": b.BattleTime,
				"error":      err,
			}).Warn("Skipping unreadable battle log entry")
			continue
		}
		records = append(records, record)
	}
	return records
}

func toMatchRecord(selfTag string, b apiBattle) (entities.MatchRecord, error) {
	occurredAt, err := time.Parse(battleTimeLayout, b.BattleTime)
	if err != nil {
		return entities.MatchRecord{}, fmt.Errorf("invalid battleTime: %w", err)
	}
	if len(b.Team) == 0 || len(b.Opponent) == 0 {
		return entities.MatchRecord{}, errors.New("battle is missing a side")
	}

	self, other := b.Team, b.Opponent
	if !containsTag(b.Team, selfTag) && containsTag(b.Opponent, selfTag) {
		self, other = b.Opponent, b.Team
	}

	return entities.MatchRecord{
		OccurredAt:    occurredAt.UTC(),
		SelfTag:       sideTag(self, selfTag),
		OpponentTags:  sideTags(other),
		SelfScore:     crowns(self),
		OpponentScore: crowns(other),
	}, nil
}

func containsTag(side []apiParticipant, tag string) bool {
	for _, p := range side {
		if services.TagsEqual(p.Tag, tag) {
			return true
		}
	}
	return false
}

func sideTag(side []apiParticipant, tag string) string {
	if containsTag(side, tag) {
		return tag
	}
	return side[0].Tag
}

func sideTags(side []apiParticipant) []string {
	tags := make([]string, 0, len(side))
	for _, p := range side {
		tags = append(tags, p.Tag)
	}
	return tags
}

// crowns sums a side so 2v2 modes compare team totals
func crowns(side []apiParticipant) int {
	total := 0
	for _, p := range side {
		total += p.Crowns
	}
	return total
}
