package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"diligence/pkg/errors"
)

const defaultBaseURL = "https://slack.com/api"

// Channel identifies a channel to read along with why it matters.
type Channel struct {
	ID          string
	Name        string
	Description string
}

// Message is a single channel message.
type Message struct {
	User string `json:"user"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

// Client reads channel history through the Slack Web API.
type Client struct {
	token      string
	limit      int
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Slack client
func NewClient(botToken string, messageLimit int, timeout time.Duration) *Client {
	if messageLimit <= 0 {
		messageLimit = 500
	}
	return &Client{
		token:      botToken,
		limit:      messageLimit,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// Configured reports whether a bot token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

// FetchChannelHistory returns the most recent messages in a channel.
func (c *Client) FetchChannelHistory(ctx context.Context, channelID string) ([]Message, error) {
	if !c.Configured() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "slack bot token not configured")
	}

	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/conversations.history?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create slack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send slack request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read slack response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "slack API returned HTTP %d", resp.StatusCode)
	}

	var parsed struct {
		OK       bool      `json:"ok"`
		Error    string    `json:"error"`
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal slack response")
	}
	if !parsed.OK {
		return nil, errors.Wrapf(errors.ErrExternal, "slack API error: %s", parsed.Error)
	}

	return parsed.Messages, nil
}

// FormatChannels fetches every channel and renders a single transcript.
// A channel that cannot be read degrades to an inline error note instead of
// failing the whole fetch.
func (c *Client) FormatChannels(ctx context.Context, channels []Channel) string {
	var b strings.Builder

	for _, ch := range channels {
		fmt.Fprintf(&b, "\n# Channel: %s\n", ch.Name)
		fmt.Fprintf(&b, "Description: %s\n", ch.Description)
		fmt.Fprintf(&b, "Channel ID: %s\n\n", ch.ID)

		if !c.Configured() {
			fmt.Fprintf(&b, "Slack access not available for %s\n", ch.Name)
			b.WriteString("\n")
			continue
		}

		messages, err := c.FetchChannelHistory(ctx, ch.ID)
		if err != nil {
			fmt.Fprintf(&b, "Error fetching data from %s: %v\n", ch.Name, err)
			b.WriteString("\n")
			continue
		}

		fmt.Fprintf(&b, "Messages from %s:\n", ch.Name)
		for _, msg := range messages {
			fmt.Fprintf(&b, "[%s] %s: %s\n", msg.TS, msg.User, msg.Text)
		}
		b.WriteString("\n")
	}

	return b.String()
}
