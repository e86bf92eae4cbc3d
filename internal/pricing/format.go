package pricing

import (
	"strconv"
	"strings"
)

// Won formats an amount with thousands separators, e.g. ₩10,500.
func Won(n int) string { return "₩" + group(n) }

// DeltaBadge renders an option price change like "(+500원)". A zero delta
// renders nothing.
func DeltaBadge(diff int) string {
	if diff == 0 {
		return ""
	}
	sign := ""
	if diff > 0 {
		sign = "+"
	}
	return "(" + sign + group(diff) + "원)"
}

func group(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
