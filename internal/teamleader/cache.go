package teamleader

import (
	"context"
	"sync"
	"time"
)

// TeamCache memoizes the full team list for ttl.
type TeamCache struct {
	mu        sync.RWMutex
	teams     []Team
	fetchedAt time.Time
	ttl       time.Duration
}

func NewTeamCache(ttl time.Duration) *TeamCache {
	return &TeamCache{ttl: ttl}
}

func (c *TeamCache) Get() []Team {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.teams == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]Team, len(c.teams))
	copy(result, c.teams)
	return result
}

func (c *TeamCache) Set(teams []Team) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teams = make([]Team, len(teams))
	copy(c.teams, teams)
	c.fetchedAt = time.Now()
}

func (c *TeamCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teams = nil
}

// AllTeams returns every team, served from cache when fresh.
func (c *Client) AllTeams(ctx context.Context, token string, cache *TeamCache) ([]Team, error) {
	if cache != nil {
		if teams := cache.Get(); teams != nil {
			return teams, nil
		}
	}
	teams, err := c.ListTeams(ctx, token)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Set(teams)
	}
	return teams, nil
}
