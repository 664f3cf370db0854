// Package odds talks to the external sports-odds source and turns its decimal
// odds into the point weights used by coupon questions.
package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Match is one fixture offered by the odds provider.
type Match struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	League    string    `json:"league,omitempty"`
	StartTime time.Time `json:"startTime"`
}

// MatchOdds carries the three-way decimal odds for a match.
type MatchOdds struct {
	MatchID string  `json:"matchId"`
	HomeWin float64 `json:"homeWin"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"awayWin"`
}

// Provider fetches fixtures and their odds. The provider's API is out of
// scope; failures propagate to the caller unretried.
type Provider interface {
	ListMatches(ctx context.Context) ([]Match, error)
	MatchOdds(ctx context.Context, matchID string) (MatchOdds, error)
}

// HTTPProvider reads fixtures from a Norsk Tipping-style JSON endpoint.
type HTTPProvider struct {
	baseURL string
	sportID string
	client  *http.Client
}

func NewHTTPProvider(baseURL, sportID string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		sportID: sportID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) ListMatches(ctx context.Context) ([]Match, error) {
	var out []Match
	if err := p.getJSON(ctx, fmt.Sprintf("%s/events?sport=%s", p.baseURL, p.sportID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *HTTPProvider) MatchOdds(ctx context.Context, matchID string) (MatchOdds, error) {
	var out MatchOdds
	if err := p.getJSON(ctx, fmt.Sprintf("%s/events/%s/odds", p.baseURL, matchID), &out); err != nil {
		return MatchOdds{}, err
	}
	return out, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("odds provider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("odds provider: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("odds provider: decode: %w", err)
	}
	return nil
}

// StaticProvider serves fixed data for tests and demo runs.
type StaticProvider struct {
	Matches []Match
	Odds    map[string]MatchOdds
}

func (p *StaticProvider) ListMatches(_ context.Context) ([]Match, error) {
	return p.Matches, nil
}

func (p *StaticProvider) MatchOdds(_ context.Context, matchID string) (MatchOdds, error) {
	odds, ok := p.Odds[matchID]
	if !ok {
		return MatchOdds{}, fmt.Errorf("odds provider: no odds for match %s", matchID)
	}
	return odds, nil
}
