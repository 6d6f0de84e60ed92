//go:build !windows

package winapi

// Notify is a no-op without a window system to show a dialog in.
func Notify(title, body string) {}
