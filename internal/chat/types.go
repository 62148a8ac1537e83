package chat

import (
	"encoding/json"
	"time"
)

// Actions carried by interactive controls.
const (
	ActionAccept     = "accept"
	ActionDeny       = "deny"
	ActionDenySubmit = "deny_submit"
)

// Button styles understood by the platform.
const (
	StyleSuccess = "success"
	StylePrimary = "primary"
	StyleDanger  = "danger"
)

// Accent colors for embeds.
const (
	ColorBlurple = 0x5865F2
	ColorGreen   = 0x57F287
	ColorRed     = 0xED4245
)

// Correlation is the payload stamped onto every interactive control when the
// moderation message is created. The platform echoes it back verbatim in the
// interaction callback, which is the only way a click can be traced back to
// the originating application and speaker.
type Correlation struct {
	Action        string `json:"a"`
	ApplicationID string `json:"app"`
	SpeakerID     string `json:"spk"`
}

// CustomID serializes the correlation for the control's custom_id field.
func (c Correlation) CustomID() string {
	raw, _ := json.Marshal(c)
	return string(raw)
}

// ParseCustomID decodes a correlation previously produced by CustomID.
func ParseCustomID(s string) (Correlation, error) {
	var c Correlation
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Correlation{}, err
	}
	return c, nil
}

type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type Button struct {
	Label       string      `json:"label"`
	Style       string      `json:"style"`
	Emoji       string      `json:"emoji,omitempty"`
	Correlation Correlation `json:"-"`
}

// Message is an outbound channel message. A terminal rendering carries no
// buttons, which removes the controls from an edited moderation message.
type Message struct {
	Content string   `json:"content,omitempty"`
	Embed   *Embed   `json:"embed,omitempty"`
	Buttons []Button `json:"-"`
}

// Modal is a single-text-input prompt opened in response to a button click.
type Modal struct {
	Title            string
	InputLabel       string
	InputPlaceholder string
	Correlation      Correlation
}

// ScheduledEvent is a calendared occurrence on the chat platform.
type ScheduledEvent struct {
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
}

// Interaction is one callback delivered over the gateway socket: a button
// click or a modal submission, with the stamped correlation decoded.
type Interaction struct {
	ID          string
	Token       string
	ChannelID   string
	MessageID   string
	ModeratorID string
	Correlation Correlation

	// InputValue holds the modal's text input on modal_submit frames.
	InputValue string
}
