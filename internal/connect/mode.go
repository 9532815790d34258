package connect

import (
	"errors"
	"fmt"
)

type Mode string

const (
	ModeStandard  Mode = "standard"
	ModeOptimized Mode = "optimized"
	ModeAdvanced  Mode = "advanced"

	// Inherit clears a per-server override.
	Inherit = "inherit"
)

// ErrModeReserved is returned for modes that exist but cannot be selected yet.
var ErrModeReserved = errors.New("mode is not available yet")

var Modes = []Mode{ModeStandard, ModeOptimized, ModeAdvanced}

func (m Mode) Description() string {
	switch m {
	case ModeStandard:
		return "All tools loaded upfront. Best for simple setups with fewer than 10 tools."
	case ModeOptimized:
		return "Tools include PTC annotations and output filtering. Reduces token usage by ~37%."
	case ModeAdvanced:
		return "Only a search_tools meta-tool is exposed. Tools load on demand. Best for 50+ tools."
	}
	return ""
}

// ParseMode accepts any known mode, including reserved ones.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeStandard, ModeOptimized, ModeAdvanced:
		return m, nil
	case "":
		return ModeStandard, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want standard, optimized or advanced)", s)
	}
}

// Selectable reports nil when m may be chosen by a user.
func (m Mode) Selectable() error {
	if m == ModeAdvanced {
		return fmt.Errorf("%s: %w", m, ErrModeReserved)
	}
	if _, err := ParseMode(string(m)); err != nil || m == "" {
		return fmt.Errorf("unknown mode %q", m)
	}
	return nil
}

// ParseOverride turns a per-server mode choice into an override; Inherit
// yields nil.
func ParseOverride(s string) (*Mode, error) {
	if s == Inherit || s == "" {
		return nil, nil
	}
	m, err := ParseMode(s)
	if err != nil {
		return nil, err
	}
	if err := m.Selectable(); err != nil {
		return nil, err
	}
	return &m, nil
}
