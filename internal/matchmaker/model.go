package matchmaker

import (
	"strings"
	"time"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// ColorChoice is a declared side preference.
type ColorChoice string

const (
	ChoiceWhite  ColorChoice = "white"
	ChoiceBlack  ColorChoice = "black"
	ChoiceRandom ColorChoice = "random"
)

// ParseColorChoice maps anything unrecognised (including "") to random.
func ParseColorChoice(s string) ColorChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return ChoiceWhite
	case "black", "b":
		return ChoiceBlack
	default:
		return ChoiceRandom
	}
}

// TimeControl is base time plus per-move increment, both in milliseconds.
type TimeControl struct {
	BaseMs int64 `json:"baseMs"`
	IncMs  int64 `json:"incMs"`
}

// Limits bounds requested time controls. A zero maximum means no upper bound.
type Limits struct {
	MinBaseMs int64
	MaxBaseMs int64
	MinIncMs  int64
	MaxIncMs  int64
}

func (l Limits) Clamp(tc TimeControl) TimeControl {
	return TimeControl{
		BaseMs: clamp(tc.BaseMs, l.MinBaseMs, l.MaxBaseMs),
		IncMs:  clamp(tc.IncMs, l.MinIncMs, l.MaxIncMs),
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// Entry is one pending quick-match request.
type Entry struct {
	Conn        string
	Username    string
	TimeControl TimeControl
	Pref        ColorChoice
	RequestedAt time.Time
}

// Match pairs the incoming candidate with the queued opponent it was matched against.
type Match struct {
	Candidate      Entry
	Opponent       Entry
	CandidateColor Color
}
