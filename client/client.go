// Package client is a Go consumer of the Expenso API and its push channel:
// it authenticates, fetches the notification history, keeps a live
// websocket open while the session lasts and reconciles both streams into
// one deduplicated view.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/expenso-dev/expenso/internal/types"
	"github.com/gorilla/websocket"
)

type Client struct {
	baseURL string
	http    *http.Client
	jar     *cookiejar.Jar

	recon *Reconciler

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)

	if err != nil {
		return nil, fmt.Errorf("client: create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
		jar:     jar,
		recon:   NewReconciler(),
	}, nil
}

// Login establishes the session; the HttpOnly access_token cookie lands in
// the jar and rides along on every later request, including the websocket
// handshake.
func (c *Client) Login(email, password string) error {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	if err != nil {
		return fmt.Errorf("client: encode login request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("client: login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: login failed with status %d", resp.StatusCode)
	}

	return nil
}

// FetchHistory loads the persisted notification list and makes it the
// reconciler's baseline. Call it after every (re)connect: any push missed
// while offline is in the history, so the view always converges.
func (c *Client) FetchHistory(category types.Category) error {
	endpoint := c.baseURL + "/api/notifications"

	if category != "" {
		endpoint += "?category=" + url.QueryEscape(string(category))
	}

	resp, err := c.http.Get(endpoint)

	if err != nil {
		return fmt.Errorf("client: fetch notifications: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: fetch notifications failed with status %d", resp.StatusCode)
	}

	var body struct {
		Success bool                        `json:"success"`
		Data    []types.NotificationPayload `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("client: decode notifications: %w", err)
	}

	c.recon.SetBaseline(body.Data)

	return nil
}

// Connect dials the push channel, authenticating with the session cookie
// in the handshake header, and starts feeding events into the reconciler.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	base, err := url.Parse(c.baseURL)

	if err != nil {
		return fmt.Errorf("client: parse base URL: %w", err)
	}

	cookies := c.jar.Cookies(base)

	if len(cookies) == 0 {
		return fmt.Errorf("client: not authenticated, no session cookie")
	}

	wsURL := *base
	switch base.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/api/ws"

	header := http.Header{}
	pairs := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		pairs = append(pairs, cookie.Name+"="+cookie.Value)
	}
	header.Set("Cookie", strings.Join(pairs, "; "))
	header.Set("Origin", c.baseURL)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), header)

	if err != nil {
		if resp != nil {
			return fmt.Errorf("client: dial push channel: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("client: dial push channel: %w", err)
	}

	c.conn = conn
	c.done = make(chan struct{})

	go c.readLoop(conn, c.done)

	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		var event types.PushEvent

		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("client: push channel closed: %v", err)
			}
			return
		}

		c.recon.Apply(event)
	}
}

// MarkRead asks the server to flip the read flag. The confirmation arrives
// as an updated push event, which the reconciler folds in like any other.
func (c *Client) MarkRead(id uint) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("client: push channel not connected")
	}

	return conn.WriteJSON(map[string]interface{}{
		"event": "mark_as_read",
		"id":    id,
	})
}

// Close tears the push channel down. Called on logout so no authenticated
// channel outlives the session.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	err := conn.Close()

	if done != nil {
		<-done
	}

	return err
}

// Logout ends the HTTP session and closes the push channel.
func (c *Client) Logout() error {
	if err := c.Close(); err != nil {
		log.Printf("client: close push channel: %v", err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/auth/logout", "application/json", nil)

	if err != nil {
		return fmt.Errorf("client: logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: logout failed with status %d", resp.StatusCode)
	}

	return nil
}

// Notifications is the reconciled view, newest first.
func (c *Client) Notifications() []types.NotificationPayload {
	return c.recon.Notifications()
}

// UnreadCount counts reconciled records with isRead still false.
func (c *Client) UnreadCount() int {
	return c.recon.UnreadCount()
}
