package flow

import (
	"strings"
	"unicode"

	"honeydesk/internal/domain"
)

// UserMessage is the one place an error becomes a chat reply.
func UserMessage(err error) string {
	msg := domain.MessageOf(err)
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return orDefault(msg, "That input is not valid.")
	case domain.KindAuthorization:
		return orDefault(msg, "You are not allowed to do that.")
	case domain.KindNotFound:
		return orDefault(msg, "Not found.")
	case domain.KindConflict:
		return orDefault(msg, "This record was changed by someone else.")
	}
	return "Sorry, that could not be saved. Please try again."
}

// orDefault turns a short message like "order not found" into a sentence.
func orDefault(msg, def string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return def
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	if !strings.ContainsRune(".!?", r[len(r)-1]) {
		r = append(r, '.')
	}
	return string(r)
}
