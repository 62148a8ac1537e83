package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"podium/config"
	podium_errors "podium/pkg/errors"
)

// Client talks to the chat platform's REST API: direct messages, channel
// messages with interactive controls, and scheduled guild events.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	guildID string
}

func NewClient(cfg config.ChatConfig) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: cfg.APIBaseURL,
		token:   cfg.BotToken,
		guildID: cfg.GuildID,
	}
}

type wireComponent struct {
	Label    string `json:"label"`
	Style    string `json:"style"`
	Emoji    string `json:"emoji,omitempty"`
	CustomID string `json:"custom_id"`
}

type wireMessage struct {
	Content    string          `json:"content,omitempty"`
	Embed      *Embed          `json:"embed,omitempty"`
	Components []wireComponent `json:"components"`
}

func toWire(m Message) wireMessage {
	wm := wireMessage{Content: m.Content, Embed: m.Embed, Components: []wireComponent{}}
	for _, b := range m.Buttons {
		wm.Components = append(wm.Components, wireComponent{
			Label:    b.Label,
			Style:    b.Style,
			Emoji:    b.Emoji,
			CustomID: b.Correlation.CustomID(),
		})
	}
	return wm
}

// SendDirectMessage delivers a plain DM to a platform user.
func (c *Client) SendDirectMessage(ctx context.Context, userID, content string) error {
	path := fmt.Sprintf("/users/%s/messages", userID)
	return c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, nil)
}

// PostModerationMessage posts an interactive message to the given channel and
// returns the platform's message id for later edits.
func (c *Client) PostModerationMessage(ctx context.Context, channelID string, m Message) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, toWire(m), &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// EditMessage replaces an existing channel message's content and controls.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, m Message) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodPatch, path, toWire(m), nil)
}

// RespondEphemeral answers an interaction with a message only the acting
// moderator can see.
func (c *Client) RespondEphemeral(ctx context.Context, ic Interaction, content string) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", ic.ID, ic.Token)
	body := map[string]any{
		"type":      "message",
		"ephemeral": true,
		"content":   content,
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// OpenModal answers an interaction by opening a text-input modal. The modal's
// submit callback carries the correlation given here.
func (c *Client) OpenModal(ctx context.Context, ic Interaction, m Modal) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", ic.ID, ic.Token)
	body := map[string]any{
		"type":      "modal",
		"custom_id": m.Correlation.CustomID(),
		"title":     m.Title,
		"input": map[string]string{
			"label":       m.InputLabel,
			"placeholder": m.InputPlaceholder,
		},
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// CreateScheduledEvent creates a guild scheduled event and returns its id and
// public url.
func (c *Client) CreateScheduledEvent(ctx context.Context, ev ScheduledEvent) (string, string, error) {
	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	path := fmt.Sprintf("/guilds/%s/scheduled-events", c.guildID)
	body := map[string]any{
		"name":        ev.Name,
		"description": ev.Description,
		"start_time":  ev.Start.UTC().Format(time.RFC3339),
		"end_time":    ev.End.UTC().Format(time.RFC3339),
		"location":    ev.Location,
	}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", "", err
	}
	return out.ID, out.URL, nil
}

// DeleteScheduledEvent removes a guild scheduled event. Deleting an event
// that is already gone is not an error.
func (c *Client) DeleteScheduledEvent(ctx context.Context, eventID string) error {
	path := fmt.Sprintf("/guilds/%s/scheduled-events/%s", c.guildID, eventID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// FetchMemberName resolves a guild member's display name.
func (c *Client) FetchMemberName(ctx context.Context, userID string) (string, error) {
	var out struct {
		DisplayName string `json:"display_name"`
		Username    string `json:"username"`
	}
	path := fmt.Sprintf("/guilds/%s/members/%s", c.guildID, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if out.DisplayName != "" {
		return out.DisplayName, nil
	}
	return out.Username, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chat api status %d: %s", e.code, e.body)
}

func (e *statusError) Unwrap() error {
	return podium_errors.ErrExternalService
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", podium_errors.ErrExternalService, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(snippet)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s %s: %v", podium_errors.ErrExternalService, method, path, err)
		}
	}
	return nil
}
