package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RelaySender posts outbound messages as JSON to a chat relay service.
type RelaySender struct {
	baseURL    string
	httpClient *http.Client
}

func NewRelaySender(baseURL string) *RelaySender {
	return &RelaySender{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type relayPayload struct {
	UserID  string   `json:"user_id"`
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	FileRef string   `json:"file_ref,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

func (s *RelaySender) SendText(ctx context.Context, userID, text string) error {
	return s.post(ctx, relayPayload{UserID: userID, Kind: "text", Text: text})
}

func (s *RelaySender) SendMenu(ctx context.Context, userID, text string, buttons []Button) error {
	return s.post(ctx, relayPayload{UserID: userID, Kind: "menu", Text: text, Buttons: buttons})
}

func (s *RelaySender) SendFile(ctx context.Context, userID, fileRef, caption string) error {
	return s.post(ctx, relayPayload{UserID: userID, Kind: "file", Text: caption, FileRef: fileRef})
}

func (s *RelaySender) post(ctx context.Context, p relayPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay: status %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes outbound messages to the log. Used when no relay is configured.
type LogSender struct{ Log *zap.Logger }

func (s LogSender) SendText(_ context.Context, userID, text string) error {
	s.Log.Info("send.text", zap.String("to", userID), zap.String("text", text))
	return nil
}

func (s LogSender) SendMenu(_ context.Context, userID, text string, buttons []Button) error {
	s.Log.Info("send.menu", zap.String("to", userID), zap.String("text", text), zap.Any("buttons", buttons))
	return nil
}

func (s LogSender) SendFile(_ context.Context, userID, fileRef, caption string) error {
	s.Log.Info("send.file", zap.String("to", userID), zap.String("file", fileRef), zap.String("caption", caption))
	return nil
}
