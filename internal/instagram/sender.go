package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rasaeel/rasaeel/internal/config"
)

const sendTimeout = 30 * time.Second

var ErrSendFailed = errors.New("send-failed")

type sendRequest struct {
	Recipient Party       `json:"recipient"`
	Message   sendMessage `json:"message"`
}

type sendMessage struct {
	Text string `json:"text"`
}

// SendResponse is the Graph reply for one delivered chunk.
type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// GraphSender delivers replies through the Graph send-message endpoint.
type GraphSender struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewGraphSender(log *slog.Logger, cfg config.MetaConfig) *GraphSender {
	if log == nil {
		log = slog.Default()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.GraphBaseURL), "/")
	if base == "" {
		base = config.DefaultGraphBaseURL
	}
	return &GraphSender{
		baseURL: base,
		client:  &http.Client{Timeout: sendTimeout},
		logger:  log.With(slog.String("service", "instagram_sender")),
	}
}

// SendText posts text to recipientID, split into chunks of at most
// MaxMessageRunes sent in order. Tags in text are sent as-is.
func (s *GraphSender) SendText(ctx context.Context, pageToken, recipientID, text string) error {
	if strings.TrimSpace(pageToken) == "" {
		return fmt.Errorf("%w: page token is empty", ErrSendFailed)
	}
	if strings.TrimSpace(recipientID) == "" {
		return fmt.Errorf("%w: recipient is empty", ErrSendFailed)
	}
	chunks := ChunkText(text, MaxMessageRunes)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: reply is empty", ErrSendFailed)
	}
	for i, chunk := range chunks {
		resp, err := s.send(ctx, pageToken, recipientID, chunk)
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		s.logger.Debug("message sent",
			slog.String("recipient_id", recipientID),
			slog.String("message_id", resp.MessageID),
			slog.Int("chunk", i+1),
		)
	}
	return nil
}

func (s *GraphSender) send(ctx context.Context, pageToken, recipientID, text string) (SendResponse, error) {
	body, err := json.Marshal(sendRequest{
		Recipient: Party{ID: recipientID},
		Message:   sendMessage{Text: text},
	})
	if err != nil {
		return SendResponse{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/me/messages", bytes.NewReader(body))
	if err != nil {
		return SendResponse{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pageToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return SendResponse{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResponse{}, fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out SendResponse
	_ = json.Unmarshal(raw, &out)
	return out, nil
}
