package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"deadlock-tracker/internal/domain"
)

const (
	EndpointHeroStats        = "hero-stats"
	EndpointItemStats        = "item-stats"
	EndpointLeaderboard      = "leaderboard"
	EndpointPlayerHeroStats  = "player-hero-stats"
	EndpointPlayerMMR        = "player-mmr"
	EndpointPlayerMMRHistory = "player-mmr-history"
	EndpointRankDistribution = "rank-distribution"
)

func dateParams(r domain.DateRange) Params {
	return Params{
		"min_unix_timestamp": r.MinUnixTimestamp,
		"max_unix_timestamp": r.MaxUnixTimestamp,
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params Params) (json.RawMessage, error) {
	res, err := c.Execute(ctx, path, params, WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}
	if !res.IsJSON() {
		return nil, &ValidationError{
			Endpoint: endpoint,
			Index:    -1,
			Err:      fmt.Errorf("expected JSON body, got content type %q", res.ContentType),
		}
	}
	return res.JSON, nil
}

func (c *Client) HeroStats(ctx context.Context, filters domain.DateRange) ([]HeroStatsEntry, error) {
	raw, err := c.getJSON(ctx, EndpointHeroStats, "/v1/analytics/hero-stats", dateParams(filters))
	if err != nil {
		return nil, err
	}
	return parseList(EndpointHeroStats, raw, normalizeHeroStats)
}

func (c *Client) ItemStats(ctx context.Context, filters domain.DateRange) ([]AggregateEntry, error) {
	raw, err := c.getJSON(ctx, EndpointItemStats, "/v1/analytics/item-stats", dateParams(filters))
	if err != nil {
		return nil, err
	}
	return parseList(EndpointItemStats, raw, normalizeItemStats)
}

func (c *Client) Leaderboard(ctx context.Context, region string) ([]LeaderboardEntry, error) {
	raw, err := c.getJSON(ctx, EndpointLeaderboard, "/v1/leaderboard/"+url.PathEscape(region), nil)
	if err != nil {
		return nil, err
	}
	return parseList(EndpointLeaderboard, raw, normalizeLeaderboard)
}

func (c *Client) PlayerHeroStats(ctx context.Context, accountID int64) ([]PlayerHeroStat, error) {
	raw, err := c.getJSON(ctx, EndpointPlayerHeroStats, "/v1/players/hero-stats", Params{"account_ids": accountID})
	if err != nil {
		return nil, err
	}
	return parseList(EndpointPlayerHeroStats, raw, normalizePlayerHeroStat)
}

// PlayerMMR returns the account's current MMR sample, nil when the upstream has none.
func (c *Client) PlayerMMR(ctx context.Context, accountID int64) (*MMREntry, error) {
	raw, err := c.getJSON(ctx, EndpointPlayerMMR, "/v1/players/mmr", Params{"account_ids": accountID})
	if err != nil {
		return nil, err
	}
	entries, err := parseList(EndpointPlayerMMR, raw, normalizeMMR)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// PlayerMMRHistory fetches the account's MMR history, restricted to one hero when heroID > 0.
func (c *Client) PlayerMMRHistory(ctx context.Context, accountID, heroID int64) ([]MMREntry, error) {
	path := fmt.Sprintf("/v1/players/%d/mmr-history", accountID)
	if heroID > 0 {
		path = fmt.Sprintf("%s/%d", path, heroID)
	}
	raw, err := c.getJSON(ctx, EndpointPlayerMMRHistory, path, nil)
	if err != nil {
		return nil, err
	}
	return parseList(EndpointPlayerMMRHistory, raw, normalizeMMR)
}

func (c *Client) RankDistribution(ctx context.Context, filters domain.DateRange) ([]RankDistributionEntry, error) {
	raw, err := c.getJSON(ctx, EndpointRankDistribution, "/v1/players/mmr/distribution", dateParams(filters))
	if err != nil {
		return nil, err
	}
	return parseList(EndpointRankDistribution, raw, normalizeRankDistribution)
}
