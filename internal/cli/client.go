package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pondside/pondside/internal/server"
)

// replyTimeout bounds how long commands wait for a direct reply.
// Fishing waits longer because the cast itself takes up to five seconds.
const (
	replyTimeout     = 10 * time.Second
	castTimeout      = 20 * time.Second
	watchReadTimeout = 24 * time.Hour
)

// Client is a websocket client for the game server
type Client struct {
	ws *websocket.Conn
}

// Dial connects to the server's websocket endpoint, accepting either an
// http(s) or ws(s) base URL.
func Dial(serverURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}
	return &Client{ws: ws}, nil
}

// Close shuts the connection down
func (c *Client) Close() error {
	return c.ws.Close()
}

// Send writes one envelope
func (c *Client) Send(kind string, payload any) error {
	env := server.Envelope{Kind: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = raw
	}
	return c.ws.WriteJSON(env)
}

// Next reads the next envelope, waiting up to timeout.
func (c *Client) Next(timeout time.Duration) (*server.Envelope, error) {
	if err := c.ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	var env server.Envelope
	if err := c.ws.ReadJSON(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// WaitFor reads until an envelope of one of the wanted kinds arrives,
// discarding unrelated broadcasts. Server error and auth_error frames
// come back as errors.
func (c *Client) WaitFor(timeout time.Duration, kinds ...string) (*server.Envelope, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("timed out waiting for %s", strings.Join(kinds, ", "))
		}

		env, err := c.Next(remaining)
		if err != nil {
			return nil, err
		}

		if env.Kind == server.KindError || env.Kind == server.KindAuthError {
			var p server.ErrorPayload
			_ = json.Unmarshal(env.Payload, &p)
			return nil, fmt.Errorf("%s (%s)", p.Message, p.Code)
		}
		for _, kind := range kinds {
			if env.Kind == kind {
				return env, nil
			}
		}
	}
}

// connect dials the server and restores the saved session, returning the
// client and the welcome snapshot.
func connect() (*Client, *server.WelcomePayload, error) {
	if cfg.Token == "" {
		return nil, nil, fmt.Errorf("no saved session; run 'pondside join' first")
	}

	c, err := Dial(cfg.ServerURL)
	if err != nil {
		return nil, nil, err
	}

	if err := c.Send(server.KindRestoreSession, server.RestoreSessionPayload{Token: cfg.Token}); err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	env, err := c.WaitFor(replyTimeout, server.KindWelcome)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	var welcome server.WelcomePayload
	if err := json.Unmarshal(env.Payload, &welcome); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, &welcome, nil
}
