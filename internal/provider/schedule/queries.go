package schedule

import (
	"context"
	"fmt"
	"time"
)

const organizationQuery = `query Organization($id: ID!) {
  organization(id: $id) {
    id
    name
    teams { id name sport gender level }
  }
}`

const teamQuery = `query Team($id: ID!) {
  team(id: $id) {
    id
    name
    sport
    gender
    level
    logoUrl
    organization { id name }
    currentSeason { id year }
  }
}`

const scheduleQuery = `query Schedule($teamId: ID!, $seasonId: ID!) {
  schedule(teamId: $teamId, seasonId: $seasonId) {
    games {
      id
      scheduledAt
      homeAway
      outcome
      broadcastStatus
      opponent { name schoolId mascot imageUrl }
    }
  }
}`

// TeamSummary is a roster entry of an organization.
type TeamSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Sport  string `json:"sport"`
	Gender string `json:"gender"`
	Level  string `json:"level"`
}

// Organization is a school or club with its team roster.
type Organization struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Teams []TeamSummary `json:"teams"`
}

// Season is a provider season.
type Season struct {
	ID   string `json:"id"`
	Year int    `json:"year"`
}

// Team is a team with its organization and current season.
type Team struct {
	TeamSummary
	LogoURL      string `json:"logoUrl"`
	Organization struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"organization"`
	CurrentSeason *Season `json:"currentSeason"`
}

// Entry is one schedule entry as the provider reports it. HomeAway is
// "H", "A", or "N"; Outcome 0 means unplayed.
type Entry struct {
	ID              string    `json:"id"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	HomeAway        string    `json:"homeAway"`
	Outcome         int       `json:"outcome"`
	BroadcastStatus string    `json:"broadcastStatus"`
	Opponent        struct {
		Name     string `json:"name"`
		SchoolID string `json:"schoolId"`
		Mascot   string `json:"mascot"`
		ImageURL string `json:"imageUrl"`
	} `json:"opponent"`
}

// Organization fetches an organization and its team roster.
func (c *Client) Organization(ctx context.Context, caller, orgID string) (*Organization, error) {
	var data struct {
		Organization *Organization `json:"organization"`
	}
	if err := c.query(ctx, caller, organizationQuery, map[string]interface{}{"id": orgID}, &data); err != nil {
		return nil, fmt.Errorf("fetch organization %s: %w", orgID, err)
	}
	if data.Organization == nil {
		return nil, fmt.Errorf("fetch organization %s: not found", orgID)
	}
	return data.Organization, nil
}

// Team fetches team metadata and its current season.
func (c *Client) Team(ctx context.Context, caller, teamID string) (*Team, error) {
	var data struct {
		Team *Team `json:"team"`
	}
	if err := c.query(ctx, caller, teamQuery, map[string]interface{}{"id": teamID}, &data); err != nil {
		return nil, fmt.Errorf("fetch team %s: %w", teamID, err)
	}
	if data.Team == nil {
		return nil, fmt.Errorf("fetch team %s: not found", teamID)
	}
	return data.Team, nil
}

// Schedule fetches a team's entries for a season.
func (c *Client) Schedule(ctx context.Context, caller, teamID, seasonID string) ([]Entry, error) {
	var data struct {
		Schedule struct {
			Games []Entry `json:"games"`
		} `json:"schedule"`
	}
	vars := map[string]interface{}{"teamId": teamID, "seasonId": seasonID}
	if err := c.query(ctx, caller, scheduleQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetch schedule %s/%s: %w", teamID, seasonID, err)
	}
	return data.Schedule.Games, nil
}
