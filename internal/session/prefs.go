package session

import (
	"context"
	"fmt"

	"symonectl/internal/state"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type Consent string

const (
	ConsentAccepted Consent = "accepted"
	ConsentDeclined Consent = "declined"
)

// Prefs are device preferences kept under their own keys, independent of any
// session.
type Prefs struct {
	Store state.Store
}

func (p Prefs) Theme(ctx context.Context) (Theme, error) {
	b, ok, err := p.Store.Get(ctx, state.KeyTheme)
	if err != nil {
		return "", err
	}
	if !ok {
		return ThemeDark, nil
	}
	switch t := Theme(b); t {
	case ThemeDark, ThemeLight:
		return t, nil
	default:
		return ThemeDark, nil
	}
}

func (p Prefs) SetTheme(ctx context.Context, t Theme) error {
	switch t {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("theme must be dark or light, got %q", t)
	}
	return p.Store.Set(ctx, state.KeyTheme, []byte(t))
}

// Consent returns "" when the user has not answered yet.
func (p Prefs) Consent(ctx context.Context) (Consent, error) {
	b, ok, err := p.Store.Get(ctx, state.KeyCookieConsent)
	if err != nil || !ok {
		return "", err
	}
	return Consent(b), nil
}

func (p Prefs) SetConsent(ctx context.Context, c Consent) error {
	switch c {
	case ConsentAccepted, ConsentDeclined:
	default:
		return fmt.Errorf("consent must be accepted or declined, got %q", c)
	}
	return p.Store.Set(ctx, state.KeyCookieConsent, []byte(c))
}
