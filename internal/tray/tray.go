// Package tray provides the system tray menu for glazed. The menu
// mirrors the configuration: toggling an item rewrites the config
// through the loader, which saves it and notifies the worker the same
// way an on-disk edit would.
package tray

import (
	"context"
	"log/slog"
	"time"

	"github.com/getlantern/systray"

	"glaze/internal/appearance"
	"glaze/internal/config"
	"glaze/internal/taskbar"
)

// Options wires the tray to the rest of the daemon.
type Options struct {
	Loader  *config.Loader
	Worker  *taskbar.Worker
	Logger  *slog.Logger
	Version string

	// Autostart reports and toggles launch-at-login. Nil hides the item.
	Autostart AutostartBinding

	// OnOpenConfig opens the config file in the user's editor.
	OnOpenConfig func()

	// OnQuit is called when the user picks Exit, before the tray stops.
	OnQuit func()
}

// AutostartBinding abstracts the launch-at-login toggle.
type AutostartBinding interface {
	Enabled() (bool, error)
	SetEnabled(bool) error
}

// accentChoices is the menu order for accent selection.
var accentChoices = []appearance.AccentState{
	appearance.AccentNormal,
	appearance.AccentTransparentGradient,
	appearance.AccentGradient,
	appearance.AccentBlurBehind,
	appearance.AccentAcrylicBlurBehind,
}

var accentLabels = map[appearance.AccentState]string{
	appearance.AccentNormal:              "Normal",
	appearance.AccentTransparentGradient: "Clear",
	appearance.AccentGradient:            "Opaque",
	appearance.AccentBlurBehind:          "Blur",
	appearance.AccentAcrylicBlurBehind:   "Acrylic",
}

var peekChoices = []struct {
	behavior appearance.PeekBehavior
	label    string
}{
	{appearance.PeekAlwaysShow, "Always show button"},
	{appearance.PeekMaximisedMainMonitor, "Show when window maximised on main monitor"},
	{appearance.PeekMaximisedAnyMonitor, "Show when window maximised on any monitor"},
	{appearance.PeekDesktopForeground, "Show when desktop is focused"},
	{appearance.PeekAlwaysHide, "Always hide button"},
}

var levelChoices = []struct {
	level string
	label string
}{
	{"debug", "Debug"},
	{"info", "Info"},
	{"warn", "Warnings only"},
	{"error", "Errors only"},
	{"off", "Off"},
}

var appearanceLabels = map[string]string{
	"desktop":          "Desktop",
	"visible_window":   "Visible window",
	"maximised_window": "Maximised window",
	"start_opened":     "Start menu opened",
	"cortana_opened":   "Search opened",
	"timeline_opened":  "Task view opened",
}

// accentGroup is one appearance's accent radio group, with an optional
// enable toggle for the conditional appearances.
type accentGroup struct {
	key     string
	enable  *systray.MenuItem
	accents map[appearance.AccentState]*systray.MenuItem
}

// Tray owns the menu and keeps it in sync with the config.
type Tray struct {
	opts Options
	log  *slog.Logger

	groups      []*accentGroup
	peekItems   map[appearance.PeekBehavior]*systray.MenuItem
	peekRegular *systray.MenuItem
	levelItems  map[string]*systray.MenuItem
	autostart   *systray.MenuItem
}

// Run starts the tray loop. It blocks the calling goroutine until Quit
// is called; on most platforms that goroutine must be the main one.
func Run(opts Options) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	t := &Tray{
		opts:       opts,
		log:        log.With("component", "tray"),
		peekItems:  make(map[appearance.PeekBehavior]*systray.MenuItem),
		levelItems: make(map[string]*systray.MenuItem),
	}
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTitle("")
	systray.SetTooltip("Glaze")

	header := systray.AddMenuItem("Glaze "+t.opts.Version, "")
	header.Disable()
	systray.AddSeparator()

	cfg := t.opts.Loader.Config()

	// Desktop is always active, so it gets no enable toggle.
	t.addAccentGroup("desktop", appearanceLabels["desktop"], nil)
	for _, na := range cfg.Appearances() {
		t.addAccentGroup(na.Name, appearanceLabels[na.Name], na.Appearance)
	}

	systray.AddSeparator()

	peekMenu := systray.AddMenuItem("Peek button", "")
	for _, choice := range peekChoices {
		item := peekMenu.AddSubMenuItemCheckbox(choice.label, "", false)
		t.peekItems[choice.behavior] = item
		behavior := choice.behavior
		t.clickLoop(item, func() {
			t.updateConfig(func(c *config.Config) { c.Peek = behavior })
		})
	}
	t.peekRegular = systray.AddMenuItemCheckbox("Regular appearance when peeking", "", false)
	t.clickLoop(t.peekRegular, func() {
		t.updateConfig(func(c *config.Config) { c.RegularOnPeek = !c.RegularOnPeek })
	})

	levelMenu := systray.AddMenuItem("Log level", "")
	for _, choice := range levelChoices {
		item := levelMenu.AddSubMenuItemCheckbox(choice.label, "", false)
		t.levelItems[choice.level] = item
		level := choice.level
		t.clickLoop(item, func() {
			t.updateConfig(func(c *config.Config) { c.Logging.Level = level })
		})
	}

	systray.AddSeparator()

	if t.opts.Autostart != nil {
		t.autostart = systray.AddMenuItemCheckbox("Start at login", "", false)
		if enabled, err := t.opts.Autostart.Enabled(); err == nil && enabled {
			t.autostart.Check()
		}
		t.clickLoop(t.autostart, t.toggleAutostart)
	}

	if t.opts.OnOpenConfig != nil {
		openConfig := systray.AddMenuItem("Open config file", "")
		t.clickLoop(openConfig, t.opts.OnOpenConfig)
	}

	reapply := systray.AddMenuItem("Re-apply appearance", "")
	t.clickLoop(reapply, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.opts.Worker.ApplyNow(ctx); err != nil {
			t.log.Warn("re-apply failed", "error", err)
		}
	})

	dump := systray.AddMenuItem("Dump appearance state", "")
	t.clickLoop(dump, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		state, err := t.opts.Worker.DumpState(ctx)
		if err != nil {
			t.log.Warn("state dump failed", "error", err)
			return
		}
		t.log.Info("appearance state dump\n" + state)
	})

	reset := systray.AddMenuItem("Reset appearance state", "")
	t.clickLoop(reset, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.opts.Worker.ResetState(ctx); err != nil {
			t.log.Warn("reset failed", "error", err)
		}
	})

	resetConfig := systray.AddMenuItem("Reset config to defaults", "")
	t.clickLoop(resetConfig, func() {
		if err := t.opts.Loader.Replace(config.DefaultConfig()); err != nil {
			t.log.Warn("reset config failed", "error", err)
		}
	})

	systray.AddSeparator()

	// Saving is write-through, so "without saving" means stopping any
	// further writes before leaving.
	quitNoSave := systray.AddMenuItem("Exit without saving config", "")
	t.clickLoop(quitNoSave, func() {
		t.updateConfig(func(c *config.Config) { c.DisableSaving = true })
		if t.opts.OnQuit != nil {
			t.opts.OnQuit()
		}
		systray.Quit()
	})

	quit := systray.AddMenuItem("Exit", "")
	t.clickLoop(quit, func() {
		if t.opts.OnQuit != nil {
			t.opts.OnQuit()
		}
		systray.Quit()
	})

	t.Refresh(cfg)
	t.opts.Loader.OnChange(t.Refresh)
}

func (t *Tray) onExit() {}

// addAccentGroup builds one appearance submenu. initial may be nil for
// the desktop appearance, which cannot be disabled.
func (t *Tray) addAccentGroup(key, label string, initial *appearance.Optional) {
	menu := systray.AddMenuItem(label, "")
	group := &accentGroup{
		key:     key,
		accents: make(map[appearance.AccentState]*systray.MenuItem),
	}

	if initial != nil {
		group.enable = menu.AddSubMenuItemCheckbox("Enabled", "", false)
		t.clickLoop(group.enable, func() {
			t.updateConfig(func(c *config.Config) {
				if opt := optionalByName(c, key); opt != nil {
					opt.Enabled = !opt.Enabled
				}
			})
		})
	}

	for _, accent := range accentChoices {
		item := menu.AddSubMenuItemCheckbox(accentLabels[accent], "", false)
		group.accents[accent] = item
		accent := accent
		t.clickLoop(item, func() {
			t.updateConfig(func(c *config.Config) {
				if key == "desktop" {
					c.Desktop.Accent = accent
					return
				}
				if opt := optionalByName(c, key); opt != nil {
					opt.Accent = accent
				}
			})
		})
	}

	t.groups = append(t.groups, group)
}

// Refresh re-applies the config's values to every checkbox. Safe to
// call from any goroutine.
func (t *Tray) Refresh(cfg *config.Config) {
	for _, group := range t.groups {
		var accent appearance.AccentState
		if group.key == "desktop" {
			accent = cfg.Desktop.Accent
		} else if opt := optionalByName(cfg, group.key); opt != nil {
			accent = opt.Accent
			setChecked(group.enable, opt.Enabled)
		}
		for state, item := range group.accents {
			setChecked(item, state == accent)
		}
	}

	for behavior, item := range t.peekItems {
		setChecked(item, behavior == cfg.Peek)
	}
	setChecked(t.peekRegular, cfg.RegularOnPeek)

	for level, item := range t.levelItems {
		setChecked(item, level == cfg.Logging.Level)
	}
}

func (t *Tray) toggleAutostart() {
	enabled, err := t.opts.Autostart.Enabled()
	if err != nil {
		t.log.Warn("autostart query failed", "error", err)
		return
	}
	if err := t.opts.Autostart.SetEnabled(!enabled); err != nil {
		t.log.Warn("autostart toggle failed", "error", err)
		return
	}
	setChecked(t.autostart, !enabled)
}

// updateConfig clones the live config, applies fn, and publishes it
// through the loader. The loader saves it and notifies OnChange
// subscribers, which refreshes the menu.
func (t *Tray) updateConfig(fn func(*config.Config)) {
	cfg := t.opts.Loader.Config().Clone()
	fn(cfg)
	if err := t.opts.Loader.Replace(cfg); err != nil {
		t.log.Warn("config update rejected", "error", err)
	}
}

// clickLoop runs fn every time item is clicked.
func (t *Tray) clickLoop(item *systray.MenuItem, fn func()) {
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

func setChecked(item *systray.MenuItem, checked bool) {
	if item == nil {
		return
	}
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func optionalByName(c *config.Config, name string) *appearance.Optional {
	for _, na := range c.Appearances() {
		if na.Name == name {
			return na.Appearance
		}
	}
	return nil
}
