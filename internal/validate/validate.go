package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"kioskpos/internal/domain"
)

var (
	reQ  = regexp.MustCompile(`^[\p{L}\p{N} _'#./()+-]{1,50}$`)
	reID = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)
	// Option values and customer names allow anything printable.
	reText = regexp.MustCompile(`^[^\x00-\x1f\x7f]*$`)
)

// Q validates a search query: trims, caps at 50 runes, enforces allowed
// characters. An empty query is valid and clears the search.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a quantity, flooring at 1 and clamping to avoid abuse.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 999 {
		return 999
	}
	return n
}

// ID validates a resource identifier (product/category/order/cart line).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// OptionalID accepts an empty id as "none".
func OptionalID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return ID(s)
}

// Name validates a displayable name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 50 || !reText.MatchString(s) {
		return "", false
	}
	return s, true
}

// Text validates free text such as option values or a customer entry.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max || !reText.MatchString(s) {
		return "", false
	}
	return s, true
}

func Price(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Delta is a signed combination extra.
func Delta(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func Status(s string) (domain.OrderStatus, bool) {
	st := domain.OrderStatus(strings.TrimSpace(s))
	return st, st.Valid()
}

func Level(s string) (domain.Level, bool) {
	switch l := domain.Level(strings.TrimSpace(s)); l {
	case domain.LevelMain, domain.LevelSub, domain.LevelDetail:
		return l, true
	}
	return "", false
}

// Date parses a YYYY-MM-DD form value in loc. Empty is the zero time.
func Date(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	return t, err == nil
}

// Credentials enforces a sane length window before calling upstream.
func Credentials(user, pass string) bool {
	u := strings.TrimSpace(user)
	return u != "" && len(u) <= 64 && pass != "" && len(pass) <= 128
}
