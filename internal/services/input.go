package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mission-control/internal/domain"
)

// Sol bounds accepted by the rover panel
const (
	MinSol = 0
	MaxSol = 5000
)

// ErrUnknownRover is returned for rover ids outside the supported set
var ErrUnknownRover = errors.New("unknown rover")

// RoverOption is a selectable rover with its display label
type RoverOption struct {
	Label string       `json:"label"`
	Value domain.Rover `json:"value"`
}

// Rovers lists the supported rovers in display order
var Rovers = []RoverOption{
	{Label: "Curiosity", Value: domain.RoverCuriosity},
	{Label: "Perseverance", Value: domain.RoverPerseverance},
	{Label: "Opportunity", Value: domain.RoverOpportunity},
	{Label: "Spirit", Value: domain.RoverSpirit},
}

// ParseRover resolves a rover id, case-insensitively
func ParseRover(id string) (domain.Rover, error) {
	want := strings.ToLower(strings.TrimSpace(id))
	for _, opt := range Rovers {
		if string(opt.Value) == want {
			return opt.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRover, id)
}

// NormalizeSol turns free-form sol input into a committed sol. It reports
// false for empty input, in which case nothing should be committed.
// Unparsable input becomes 0 and out-of-range values are clamped.
func NormalizeSol(text string) (int, bool) {
	if text == "" {
		return 0, false
	}

	v, ok := parseNumber(text)
	if !ok || math.IsNaN(v) {
		return MinSol, true
	}
	v = math.Min(MaxSol, math.Max(MinSol, v))
	return ClampSol(int(v)), true
}

// parseNumber reads numeric text the way a browser number field does: only
// the exact spellings Infinity, +Infinity and -Infinity are infinite, and
// 0x, 0o and 0b prefixes select unsigned integer literals.
func parseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	switch s {
	case "":
		return 0, true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if errors.Is(err, strconv.ErrRange) {
				return math.Inf(1), true
			}
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}

	// strconv also accepts inf, nan and hex floats; those are not numbers here.
	for _, r := range s {
		if !strings.ContainsRune("0123456789.eE+-", r) {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// ClampSol bounds a sol to [MinSol, MaxSol]
func ClampSol(sol int) int {
	if sol < MinSol {
		return MinSol
	}
	if sol > MaxSol {
		return MaxSol
	}
	return sol
}
