package transport

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Sent is one message captured by Recorder.
type Sent struct {
	UserID  string
	Text    string
	FileRef string
	Buttons []Button
}

// Recorder keeps every outbound message in memory. Recipients listed in Fail
// get an error instead, for exercising delivery failures.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Fail map[string]bool
}

func NewRecorder() *Recorder { return &Recorder{Fail: map[string]bool{}} }

var ErrUnreachable = errors.New("recipient unreachable")

func (r *Recorder) SendText(_ context.Context, userID, text string) error {
	return r.add(Sent{UserID: userID, Text: text})
}

func (r *Recorder) SendMenu(_ context.Context, userID, text string, buttons []Button) error {
	return r.add(Sent{UserID: userID, Text: text, Buttons: buttons})
}

func (r *Recorder) SendFile(_ context.Context, userID, fileRef, caption string) error {
	return r.add(Sent{UserID: userID, Text: caption, FileRef: fileRef})
}

func (r *Recorder) add(s Sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail[s.UserID] {
		return ErrUnreachable
	}
	r.sent = append(r.sent, s)
	return nil
}

// To returns what userID received, oldest first.
func (r *Recorder) To(userID string) []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sent
	for _, s := range r.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the latest message to userID.
func (r *Recorder) Last(userID string) Sent {
	msgs := r.To(userID)
	if len(msgs) == 0 {
		return Sent{}
	}
	return msgs[len(msgs)-1]
}

// Contains reports whether any message to userID contains sub.
func (r *Recorder) Contains(userID, sub string) bool {
	for _, s := range r.To(userID) {
		if strings.Contains(s.Text, sub) {
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
