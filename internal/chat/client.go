package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// Client talks to the external chat provider. The provider treats both
// user connection and channel creation as idempotent, so callers may
// race on either without coordination.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
	logger    zerolog.Logger

	mu        sync.Mutex
	connected map[string]bool // user id -> connection established
}

func NewClient(baseURL, apiKey, apiSecret string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger.With().Str("component", "chat_client").Logger(),
		connected: make(map[string]bool),
	}
}

// DevToken signs a provider token for the given user id.
func (c *Client) DevToken(userID string) (string, error) {
	claims := jwt.MapClaims{"user_id": userID}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.apiSecret))
}

type connectUserRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// ConnectUser establishes the chat connection for the user. The
// connection is a singleton per signed-in user; connecting an already
// connected user is a no-op.
func (c *Client) ConnectUser(ctx context.Context, user models.Identity) error {
	c.mu.Lock()
	if c.connected[user.UserID] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	token, err := c.DevToken(user.UserID)
	if err != nil {
		return fmt.Errorf("sign chat token: %w", err)
	}

	body := connectUserRequest{
		UserID:   user.UserID,
		Username: user.Username,
		Token:    token,
	}
	if err := c.postJSON(ctx, "/connect", body); err != nil {
		return err
	}

	c.mu.Lock()
	c.connected[user.UserID] = true
	c.mu.Unlock()

	c.logger.Debug().Str("user_id", user.UserID).Msg("chat user connected")
	return nil
}

type watchChannelRequest struct {
	Name string `json:"name"`
}

// WatchChannel joins the channel, creating it on the provider side if it
// does not exist yet. Creation is idempotent on the provider.
func (c *Client) WatchChannel(ctx context.Context, ref ChannelRef) error {
	path := fmt.Sprintf("/channels/%s/%s/watch", ref.Type, ref.ID)
	if err := c.postJSON(ctx, path, watchChannelRequest{Name: ref.Name}); err != nil {
		return err
	}

	c.logger.Debug().Str("channel_id", ref.ID).Msg("chat channel watched")
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chat provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
