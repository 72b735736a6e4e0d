// Package bridge talks to the WhatsApp bridge's REST API, which owns the live
// session and performs the actual delivery.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
)

type ClientConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message,omitempty"`
	MediaPath string `json:"media_path,omitempty"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type downloadRequest struct {
	MessageID string `json:"message_id"`
	ChatJID   string `json:"chat_jid"`
}

type downloadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

func NewClient(config ClientConfig) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
			SetTimeout(config.Timeout).
			SetHeader("Content-Type", "application/json"),
		log: logger.Module("bridge"),
	}
}

// Send posts one text message to the bridge. A non-200 reply is reported as
// an unsuccessful result, not an error; errors are transport failures.
func (c *Client) Send(ctx context.Context, recipientJID, message string) (domain.SendResult, error) {
	return c.send(ctx, sendRequest{Recipient: recipientJID, Message: message})
}

// SendFile asks the bridge to send the file at mediaPath, a path on the
// bridge's host, as an image, video, audio or document message.
func (c *Client) SendFile(ctx context.Context, recipientJID, mediaPath string) (domain.SendResult, error) {
	return c.send(ctx, sendRequest{Recipient: recipientJID, MediaPath: mediaPath})
}

func (c *Client) send(ctx context.Context, body sendRequest) (domain.SendResult, error) {
	var reply sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&reply).
		Post("/send")
	if err != nil {
		return domain.SendResult{}, fmt.Errorf("request error: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode()).
		Str("recipient", body.Recipient).
		Bool("media", body.MediaPath != "").
		Msg("bridge replied")

	if resp.StatusCode() != http.StatusOK {
		return domain.SendResult{Success: false, Message: httpFailure(resp)}, nil
	}
	if reply.Message == "" {
		reply.Message = "Unknown response"
	}
	return domain.SendResult{Success: reply.Success, Message: reply.Message}, nil
}

// Download asks the bridge to fetch the media of one message into its media
// directory and returns where it landed.
func (c *Client) Download(ctx context.Context, messageID, chatJID string) (domain.DownloadResult, error) {
	var reply downloadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(downloadRequest{MessageID: messageID, ChatJID: chatJID}).
		SetResult(&reply).
		Post("/download")
	if err != nil {
		return domain.DownloadResult{}, fmt.Errorf("request error: %w", err)
	}

	c.log.Debug().Int("status", resp.StatusCode()).Str("message_id", messageID).Msg("bridge replied")

	if resp.StatusCode() != http.StatusOK {
		return domain.DownloadResult{Success: false, Message: httpFailure(resp)}, nil
	}
	if reply.Success && reply.Path == "" {
		return domain.DownloadResult{Success: false, Message: "bridge reported success without a path"}, nil
	}
	if reply.Message == "" {
		reply.Message = "Unknown response"
	}
	return domain.DownloadResult{Success: reply.Success, Message: reply.Message, Path: reply.Path}, nil
}

func httpFailure(resp *resty.Response) string {
	return fmt.Sprintf("Error: HTTP %d - %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
}
