// Package transport is the outbound side of the chat boundary.
package transport

import "context"

// Button is one option of a choice menu. Data is the callback token that
// comes back as a button event.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Sender delivers messages to a chat user.
type Sender interface {
	SendText(ctx context.Context, userID, text string) error
	SendMenu(ctx context.Context, userID, text string, buttons []Button) error
	SendFile(ctx context.Context, userID, fileRef, caption string) error
}

// Send picks SendMenu when there are buttons.
func Send(ctx context.Context, s Sender, userID, text string, buttons []Button) error {
	if len(buttons) > 0 {
		return s.SendMenu(ctx, userID, text, buttons)
	}
	return s.SendText(ctx, userID, text)
}
