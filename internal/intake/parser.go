package intake

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsedOrder is a chat message split into a delivery date and item lines.
type ParsedOrder struct {
	DeliveryDate *time.Time // nil when the message names none
	Items        []ParsedLine
	Notes        string
	Warnings     []string // lines that could not be read
}

// ParsedLine is one "10 sourdough" style line.
type ParsedLine struct {
	RawText     string
	Description string
	Quantity    int32
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Count words that carry no meaning for matching.
var countUnits = map[string]bool{
	"pc": true, "pcs": true, "x": true, "units": true, "unit": true,
}

var datePrefixes = []string{"deliver", "delivery", "for", "on"}

// ParseMessage reads an order message such as:
//
//	deliver 12 mar
//	10 sourdough
//	croissant x24
//	note: side door
//
// The date line is optional and must come first. today anchors relative
// dates and year inference.
func ParseMessage(text string, today time.Time) (*ParsedOrder, error) {
	out := &ParsedOrder{}
	var notes []string
	first := true

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if first {
			first = false
			if d, ok := parseDateLine(line, today); ok {
				out.DeliveryDate = &d
				continue
			}
		}

		if n, ok := noteText(line); ok {
			if n != "" {
				notes = append(notes, n)
			}
			continue
		}

		item, err := parseItemLine(line)
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("skipped: %s", line))
			continue
		}
		out.Items = append(out.Items, *item)
	}

	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no items found in message")
	}
	out.Notes = strings.Join(notes, "; ")
	return out, nil
}

func noteText(line string) (string, bool) {
	lower := strings.ToLower(line)
	for _, p := range []string{"note:", "notes:"} {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}
	return "", false
}

// parseDateLine accepts "12 mar", "mar 12", "tomorrow" and "today",
// optionally prefixed with "deliver" or "for". A day/month already passed
// this year rolls into next year.
func parseDateLine(line string, today time.Time) (time.Time, bool) {
	parts := strings.Fields(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(line), ":")))
	for len(parts) > 0 && contains(datePrefixes, parts[0]) {
		parts = parts[1:]
	}
	day0 := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	switch len(parts) {
	case 1:
		switch parts[0] {
		case "today":
			return day0, true
		case "tomorrow":
			return day0.AddDate(0, 0, 1), true
		}
		return time.Time{}, false
	case 2:
	default:
		return time.Time{}, false
	}

	day, ok := parseDay(parts[0])
	monTok := parts[1]
	if !ok {
		day, ok = parseDay(parts[1])
		monTok = parts[0]
	}
	if !ok {
		return time.Time{}, false
	}
	month, ok := months[monTok]
	if !ok {
		return time.Time{}, false
	}

	parsed := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if parsed.Month() != month {
		return time.Time{}, false // 31 feb
	}
	if parsed.Before(day0) {
		parsed = parsed.AddDate(1, 0, 0)
	}
	return parsed, true
}

// parseDay accepts "12" and ordinals like "12th".
func parseDay(tok string) (int, bool) {
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		tok = strings.TrimSuffix(tok, suffix)
	}
	day, err := strconv.Atoi(tok)
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// parseItemLine reads a quantity and a description in either order:
// "10 sourdough", "sourdough 10", "sourdough x10", "2 dozen bagels".
func parseItemLine(line string) (*ParsedLine, error) {
	tokens := strings.Fields(strings.ToLower(line))

	var qty int32
	var qtyFound bool
	var desc []string

	for i := 0; i < len(tokens); i++ {
		tok := strings.Trim(tokens[i], ",;-")
		if tok == "" {
			continue
		}
		if !qtyFound {
			if q, ok := parseQuantity(tok); ok {
				qty, qtyFound = q, true
				if i+1 < len(tokens) && tokens[i+1] == "dozen" {
					qty *= 12
					i++
				}
				continue
			}
		}
		if countUnits[tok] {
			continue
		}
		desc = append(desc, tok)
	}

	if !qtyFound {
		return nil, fmt.Errorf("no quantity in line: %q", line)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %q", line)
	}
	if len(desc) == 0 {
		return nil, fmt.Errorf("no product in line: %q", line)
	}

	return &ParsedLine{
		RawText:     strings.TrimSpace(line),
		Description: strings.Join(desc, " "),
		Quantity:    qty,
	}, nil
}

// parseQuantity accepts "10", "x10", "10x" and "10pcs".
func parseQuantity(tok string) (int32, bool) {
	tok = strings.TrimPrefix(tok, "x")
	digitEnd := 0
	for digitEnd < len(tok) && tok[digitEnd] >= '0' && tok[digitEnd] <= '9' {
		digitEnd++
	}
	if digitEnd == 0 {
		return 0, false
	}
	if rest := tok[digitEnd:]; rest != "" && !countUnits[rest] {
		return 0, false
	}
	n, err := strconv.ParseInt(tok[:digitEnd], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
