package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient talks to the backend's REST surface: authentication, room
// discovery/creation and stats. The real-time match feed goes through
// Channel instead.
type APIClient struct {
	base  string
	token string
	http  *http.Client
}

// NewAPIClient creates a client for the given base URL.
func NewAPIClient(base string) *APIClient {
	return &APIClient{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the bearer token used on authenticated calls
func (c *APIClient) SetToken(token string) { c.token = token }

// AuthResult is the response to login and signup
type AuthResult struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// GameInfo describes one room as listed by the backend
type GameInfo struct {
	ID        int64  `json:"id"`
	RoomID    string `json:"roomId"`
	Player1ID int64  `json:"player1Id"`
	Status    string `json:"status"`
}

// PlayerStats is the profile view of one player
type PlayerStats struct {
	PlayerID int64  `json:"playerId"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Games    int    `json:"gamesPlayed"`
	Rank     int    `json:"rank"`
}

// Login authenticates and returns the issued token
func (c *APIClient) Login(email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account and returns the issued token
func (c *APIClient) Signup(username, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do("POST", "/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableGames lists rooms waiting for a second player
func (c *APIClient) AvailableGames() ([]GameInfo, error) {
	var out []GameInfo
	if err := c.do("GET", "/games/available", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGame opens a new room with the local player as creator
func (c *APIClient) CreateGame(playerID int64) (*GameInfo, error) {
	var out GameInfo
	err := c.do("POST", "/games/create", map[string]int64{"player1Id": playerID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GameByRoom fetches one room by its id, for private joins
func (c *APIClient) GameByRoom(roomID string) (*GameInfo, error) {
	var out GameInfo
	if err := c.do("GET", "/games/room/"+roomID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Leaderboard fetches the global ranking
func (c *APIClient) Leaderboard() ([]LeaderboardEntry, error) {
	var out []LeaderboardEntry
	if err := c.do("GET", "/stats/leaderboard", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profile fetches one player's stats
func (c *APIClient) Profile(playerID int64) (*PlayerStats, error) {
	var out PlayerStats
	if err := c.do("GET", fmt.Sprintf("/stats/player/%d", playerID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON request with the bearer token attached
func (c *APIClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil {
			if apiErr.Error != "" {
				return fmt.Errorf("%s", apiErr.Error)
			}
			if apiErr.Message != "" {
				return fmt.Errorf("%s", apiErr.Message)
			}
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
