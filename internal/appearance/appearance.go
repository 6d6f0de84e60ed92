// Package appearance defines the taskbar appearance model: accent states,
// colors, and the per-state appearance settings the rest of the daemon
// resolves and applies.
package appearance

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccentState selects the composition effect applied to a taskbar.
type AccentState int

const (
	// AccentNormal restores the system default rendering.
	AccentNormal AccentState = iota
	// AccentTransparentGradient makes the taskbar fully transparent,
	// tinted by the configured color.
	AccentTransparentGradient
	// AccentGradient paints the taskbar with an opaque color.
	AccentGradient
	// AccentBlurBehind blurs the content behind the taskbar.
	AccentBlurBehind
	// AccentAcrylicBlurBehind applies the acrylic blur effect.
	AccentAcrylicBlurBehind
)

var accentNames = map[AccentState]string{
	AccentNormal:              "normal",
	AccentTransparentGradient: "clear",
	AccentGradient:            "opaque",
	AccentBlurBehind:          "blur",
	AccentAcrylicBlurBehind:   "acrylic",
}

var accentValues = map[string]AccentState{
	"normal":  AccentNormal,
	"clear":   AccentTransparentGradient,
	"opaque":  AccentGradient,
	"blur":    AccentBlurBehind,
	"acrylic": AccentAcrylicBlurBehind,
}

func (a AccentState) String() string {
	if s, ok := accentNames[a]; ok {
		return s
	}
	return fmt.Sprintf("accent(%d)", int(a))
}

// Valid reports whether a is one of the defined accent states.
func (a AccentState) Valid() bool {
	_, ok := accentNames[a]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (a AccentState) MarshalText() ([]byte, error) {
	s, ok := accentNames[a]
	if !ok {
		return nil, fmt.Errorf("unknown accent state %d", int(a))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccentState) UnmarshalText(text []byte) error {
	v, ok := accentValues[strings.ToLower(strings.TrimSpace(string(text)))]
	if !ok {
		return fmt.Errorf("unknown accent state %q", string(text))
	}
	*a = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a AccentState) MarshalYAML() (interface{}, error) {
	b, err := a.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *AccentState) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}

// CompositionValue returns the value sent to the compositor for this
// accent state. AccentNormal deliberately maps to an out-of-range value
// so the compositor falls back to default rendering instead of painting
// a disabled accent.
func (a AccentState) CompositionValue() uint32 {
	switch a {
	case AccentGradient:
		return 1
	case AccentTransparentGradient:
		return 2
	case AccentBlurBehind:
		return 3
	case AccentAcrylicBlurBehind:
		return 4
	default:
		return 150
	}
}

// Color is an RGBA color. The alpha channel is meaningful for
// transparent and acrylic accents.
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// MarshalText implements encoding.TextMarshaler, producing "#RRGGBBAA".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Accepts "#RRGGBB"
// (alpha defaults to FF) and "#RRGGBBAA", with or without the leading '#'.
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "#")
	var parsed Color
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &parsed.R, &parsed.G, &parsed.B); err != nil {
			return fmt.Errorf("invalid color %q: %w", string(text), err)
		}
		parsed.A = 0xFF
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &parsed.R, &parsed.G, &parsed.B, &parsed.A); err != nil {
			return fmt.Errorf("invalid color %q: %w", string(text), err)
		}
	default:
		return fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", string(text))
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return c.UnmarshalText([]byte(s))
}

// ABGR packs the color in the AABBGGRR byte order the compositor expects.
func (c Color) ABGR() uint32 {
	return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

// Taskbar is a complete appearance: an accent effect plus its tint color.
type Taskbar struct {
	Accent AccentState `toml:"accent" json:"accent" yaml:"accent"`
	Color  Color       `toml:"color" json:"color" yaml:"color"`
}

func (t Taskbar) String() string {
	return fmt.Sprintf("%s %s", t.Accent, t.Color)
}

// Optional is an appearance that can be switched off. When disabled the
// resolver ignores it and falls back to the desktop appearance.
type Optional struct {
	Enabled bool        `toml:"enabled" json:"enabled" yaml:"enabled"`
	Accent  AccentState `toml:"accent" json:"accent" yaml:"accent"`
	Color   Color       `toml:"color" json:"color" yaml:"color"`
}

// Appearance returns the embedded appearance value regardless of Enabled.
func (o Optional) Appearance() Taskbar {
	return Taskbar{Accent: o.Accent, Color: o.Color}
}

// PeekBehavior controls when the "peek at desktop" button is shown.
type PeekBehavior int

const (
	// PeekAlwaysShow always shows the peek button.
	PeekAlwaysShow PeekBehavior = iota
	// PeekMaximisedMainMonitor shows the button only while a window is
	// maximised on the main monitor.
	PeekMaximisedMainMonitor
	// PeekMaximisedAnyMonitor shows the button only while a window is
	// maximised on any monitor.
	PeekMaximisedAnyMonitor
	// PeekDesktopForeground shows the button only while the desktop is
	// the foreground window.
	PeekDesktopForeground
	// PeekAlwaysHide never shows the peek button.
	PeekAlwaysHide
)

var peekNames = map[PeekBehavior]string{
	PeekAlwaysShow:           "always_show",
	PeekMaximisedMainMonitor: "maximised_main_monitor",
	PeekMaximisedAnyMonitor:  "maximised_any_monitor",
	PeekDesktopForeground:    "desktop_foreground",
	PeekAlwaysHide:           "always_hide",
}

var peekValues = map[string]PeekBehavior{
	"always_show":            PeekAlwaysShow,
	"maximised_main_monitor": PeekMaximisedMainMonitor,
	"maximised_any_monitor":  PeekMaximisedAnyMonitor,
	"desktop_foreground":     PeekDesktopForeground,
	"always_hide":            PeekAlwaysHide,
}

func (p PeekBehavior) String() string {
	if s, ok := peekNames[p]; ok {
		return s
	}
	return fmt.Sprintf("peek(%d)", int(p))
}

// Valid reports whether p is one of the defined peek behaviors.
func (p PeekBehavior) Valid() bool {
	_, ok := peekNames[p]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (p PeekBehavior) MarshalText() ([]byte, error) {
	s, ok := peekNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown peek behavior %d", int(p))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PeekBehavior) UnmarshalText(text []byte) error {
	v, ok := peekValues[strings.ToLower(strings.TrimSpace(string(text)))]
	if !ok {
		return fmt.Errorf("unknown peek behavior %q", string(text))
	}
	*p = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p PeekBehavior) MarshalYAML() (interface{}, error) {
	b, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PeekBehavior) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return p.UnmarshalText([]byte(s))
}
