package host

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Indirections for tests.
var (
	goos        = func() string { return runtime.GOOS }
	lookPath    = exec.LookPath
	execCommand = exec.CommandContext
)

// System is the host for a local terminal session. It has no native share
// sheet and no document surface; the clipboard and browser are reached
// through the platform's helper commands.
type System struct {
	// UA is reported as the navigator user agent. Empty classifies as desktop.
	UA string
}

// Navigator returns the system navigator.
func (s System) Navigator() Navigator { return systemNavigator{ua: s.UA} }

// Document returns nil: a terminal has no editable selection surface.
func (System) Document() Document { return nil }

// Location opens URLs in the default browser.
func (System) Location() Location { return systemLocation{} }

type systemNavigator struct {
	ua string
}

func (n systemNavigator) UserAgent() string { return n.ua }
func (systemNavigator) Share() ShareFunc { return nil }
func (systemNavigator) CanShare() CanShareFunc { return nil }

// Clipboard returns nil when no clipboard helper is installed, so a probe
// reflects the machine's state at call time.
func (systemNavigator) Clipboard() Clipboard {
	name, args := clipboardCommand()
	if name == "" {
		return nil
	}
	return commandClipboard{name: name, args: args}
}

// clipboardCommand picks the clipboard helper for the current OS.
func clipboardCommand() (string, []string) {
	switch goos() {
	case "darwin":
		return "pbcopy", nil
	case "windows":
		return "cmd", []string{"/c", "clip"}
	default:
		if _, err := lookPath("wl-copy"); err == nil {
			return "wl-copy", nil
		}
		if _, err := lookPath("xclip"); err == nil {
			return "xclip", []string{"-selection", "clipboard"}
		}
		if _, err := lookPath("xsel"); err == nil {
			return "xsel", []string{"--clipboard", "--input"}
		}
		return "", nil
	}
}

type commandClipboard struct {
	name string
	args []string
}

// WriteText pipes text into the clipboard helper.
func (c commandClipboard) WriteText(ctx context.Context, text string) error {
	cmd := execCommand(ctx, c.name, c.args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

type systemLocation struct{}

// Assign opens url in the default handler. Outside a browser there is no
// "current tab", so Assign and Open behave the same.
func (systemLocation) Assign(url string) error {
	return openURL(url)
}

// Open opens url in the default handler; target and features are ignored.
func (systemLocation) Open(url, _, _ string) error {
	return openURL(url)
}

func openURL(url string) error {
	var name string
	var args []string
	switch rt := goos(); rt {
	case "darwin":
		name, args = "open", []string{url}
	case "linux", "freebsd", "openbsd", "netbsd":
		name, args = "xdg-open", []string{url}
	case "windows":
		name, args = "cmd", []string{"/c", "start", "", url}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	cmd := execCommand(context.Background(), name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
