package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"podium/config"
	"podium/pkg/logger"
)

// InteractionHandler processes one interaction callback. Each callback runs
// in its own goroutine; handlers own their error reporting (typically an
// ephemeral response to the acting moderator).
type InteractionHandler func(ctx context.Context, ic Interaction)

// Socket maintains the gateway websocket that delivers button clicks and
// modal submissions, and dispatches them by the action encoded in the
// control's correlation payload.
type Socket struct {
	url   string
	token string
	log   *logger.Logger

	mu       sync.RWMutex
	handlers map[string]InteractionHandler
}

func NewSocket(cfg config.ChatConfig, log *logger.Logger) *Socket {
	return &Socket{
		url:      cfg.GatewayURL,
		token:    cfg.BotToken,
		log:      log,
		handlers: make(map[string]InteractionHandler),
	}
}

// Handle registers the handler for an interaction action. Registration
// happens once at startup, before Run.
func (s *Socket) Handle(action string, h InteractionHandler) {
	s.mu.Lock()
	s.handlers[action] = h
	s.mu.Unlock()
}

// Run connects to the gateway and pumps interaction frames until the context
// is cancelled, reconnecting with a flat backoff on connection loss.
func (s *Socket) Run(ctx context.Context) error {
	for {
		if err := s.pump(ctx); err != nil {
			s.log.Errorf("gateway connection lost: %s", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

type interactionFrame struct {
	Type        string `json:"type"`
	Interaction struct {
		ID        string `json:"id"`
		Token     string `json:"token"`
		ChannelID string `json:"channel_id"`
		MessageID string `json:"message_id"`
		Member    struct {
			ID string `json:"id"`
		} `json:"member"`
		CustomID string `json:"custom_id"`
		Value    string `json:"value"`
	} `json:"interaction"`
}

func (s *Socket) pump(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bot "+s.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Infof("gateway connected: %s", s.url)

	// Keepalive ping alongside the read loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame interactionFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.log.Warnf("gateway: dropping malformed frame: %s", err)
			continue
		}
		if frame.Type != "button_click" && frame.Type != "modal_submit" {
			continue
		}

		corr, err := ParseCustomID(frame.Interaction.CustomID)
		if err != nil {
			s.log.Warnf("gateway: dropping interaction with unreadable custom_id: %s", err)
			continue
		}

		s.mu.RLock()
		handler, ok := s.handlers[corr.Action]
		s.mu.RUnlock()
		if !ok {
			s.log.Warnf("gateway: no handler for action %q", corr.Action)
			continue
		}

		ic := Interaction{
			ID:          frame.Interaction.ID,
			Token:       frame.Interaction.Token,
			ChannelID:   frame.Interaction.ChannelID,
			MessageID:   frame.Interaction.MessageID,
			ModeratorID: frame.Interaction.Member.ID,
			Correlation: corr,
			InputValue:  frame.Interaction.Value,
		}
		// Each interaction is an independent unit of work.
		go handler(ctx, ic)
	}
}
