package validate

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinName    = 3
	MinAddress = 5
	// MinMessage applies to feedback comments and ticket messages alike.
	MinMessage = 3
	SkipToken  = "skip"
)

var (
	reDigits = regexp.MustCompile(`^[0-9]+$`)
	reQ      = regexp.MustCompile(`^[\p{L}\p{N} _'\-]{1,50}$`)
)

// AllowedExtensions is the upload allow-list, without dots.
var AllowedExtensions = []string{"jpg", "jpeg", "png", "pdf", "doc", "docx", "txt"}

func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) >= MinName && utf8.RuneCountInString(s) <= 100
}

// Phone accepts digits only: no plus sign, spaces or dashes.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 20 && reDigits.MatchString(s)
}

// Email accepts anything containing "@", or the skip token which yields "".
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, SkipToken) {
		return "", true
	}
	if len(s) > 100 {
		return "", false
	}
	return s, strings.Contains(s, "@")
}

func Region(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= 100
}

func Address(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) >= MinAddress
}

// Message checks a comment or ticket message.
func Message(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) >= MinMessage
}

// Qty parses a free-form positive integer quantity.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 10000 {
		return 0, false
	}
	return n, true
}

// Option reports whether s is one of options, returning the canonical spelling.
func Option(s string, options []string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return o, true
		}
	}
	return "", false
}

func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() || !d.Equal(d.Round(2)) {
		return decimal.Zero, false
	}
	return d, true
}

func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Quantities parses the admin's pack-size list; "none" or "-" clears it.
func Quantities(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") || s == "-" {
		return "", true
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ","), len(parts) > 0
}

// Extension returns the lower-case extension of filename (with dot) if it is allowed.
func Extension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return "", false
	}
	for _, a := range AllowedExtensions {
		if ext == "."+a {
			return ext, true
		}
	}
	return ext, false
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

// Rating accepts 1 to 5.
func Rating(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil && n >= 1 && n <= 5
}
