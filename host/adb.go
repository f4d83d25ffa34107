package host

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"inputbridge/a11y"
)

const (
	InputMethodShell       = "shell"
	InputMethodADBKeyboard = "adbkeyboard"

	keycodeEnter   = "66"
	keycodeDel     = "67"
	keycodeMoveEnd = "123"

	accessibilitySettingsAction = "android.settings.ACCESSIBILITY_SETTINGS"
)

// shellSpecial are characters `input text` passes through a device shell.
const shellSpecial = `\()<>|;&*~"'` + "`$#!?[]{}"

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type ADBConfig struct {
	// Serial selects the device when several are attached.
	Serial string
	// Path to the adb binary. Empty means $ANDROID_HOME/platform-tools/adb,
	// then adb from PATH.
	Path string
	// InputMethod is InputMethodShell or InputMethodADBKeyboard.
	InputMethod string
	// ServiceComponent, when set, must be listed in the device's enabled
	// accessibility services for the capability to be reported enabled.
	ServiceComponent string
	Timeout          time.Duration
}

// ADB drives an Android device through the adb command line tool.
type ADB struct {
	cfg    ADBConfig
	runner Runner
	log    *slog.Logger
}

func NewADB(cfg ADBConfig, log *slog.Logger) *ADB {
	return newADBWithRunner(cfg, execRunner{}, log)
}

func newADBWithRunner(cfg ADBConfig, runner Runner, log *slog.Logger) *ADB {
	if cfg.Path == "" {
		cfg.Path = adbPath()
	}
	if cfg.InputMethod == "" {
		cfg.InputMethod = InputMethodShell
	}
	return &ADB{cfg: cfg, runner: runner, log: log}
}

func adbPath() string {
	if home := os.Getenv("ANDROID_HOME"); home != "" {
		return filepath.Join(home, "platform-tools", "adb")
	}
	return "adb"
}

func (a *ADB) run(ctx context.Context, args ...string) ([]byte, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	if a.cfg.Serial != "" {
		args = append([]string{"-s", a.cfg.Serial}, args...)
	}
	a.log.Debug("adb", "args", args)
	out, err := a.runner.Run(ctx, a.cfg.Path, args...)
	if err != nil {
		return out, fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func (a *ADB) shell(ctx context.Context, args ...string) ([]byte, error) {
	return a.run(ctx, append([]string{"shell"}, args...)...)
}

// RootInActiveWindow dumps the window hierarchy through uiautomator. A dump
// that reports a null root means no window is active.
func (a *ADB) RootInActiveWindow(ctx context.Context) (a11y.Node, error) {
	out, err := a.shell(ctx, "uiautomator", "dump", "/dev/tty")
	if bytes.Contains(out, []byte("null root node")) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doc, err := extractHierarchy(out)
	if err != nil {
		return nil, err
	}
	root, err := a11y.ParseHierarchy(bytes.NewReader(doc))
	if errors.Is(err, a11y.ErrEmptyHierarchy) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return root, nil
}

// extractHierarchy trims the status lines uiautomator prints around the XML.
func extractHierarchy(out []byte) ([]byte, error) {
	start := bytes.Index(out, []byte("<?xml"))
	if start < 0 {
		start = bytes.Index(out, []byte("<hierarchy"))
	}
	end := bytes.LastIndex(out, []byte("</hierarchy>"))
	if start < 0 || end < start {
		return nil, fmt.Errorf("no hierarchy in uiautomator output: %q", truncate(string(out), 120))
	}
	return out[start : end+len("</hierarchy>")], nil
}

// SetText replaces the content of the focused field. node must be the field
// located in the latest dump; its current text decides how much is erased.
func (a *ADB) SetText(ctx context.Context, node a11y.Node, text string) (bool, error) {
	if node == nil {
		return false, nil
	}
	if a.cfg.InputMethod == InputMethodADBKeyboard {
		return a.setTextADBKeyboard(ctx, text)
	}
	return a.setTextShell(ctx, node, text)
}

func (a *ADB) setTextShell(ctx context.Context, node a11y.Node, text string) (bool, error) {
	if el, ok := node.(*a11y.Element); ok && el.Text != "" {
		keys := []string{"input", "keyevent", keycodeMoveEnd}
		for i := 0; i < utf8.RuneCountInString(el.Text); i++ {
			keys = append(keys, keycodeDel)
		}
		if _, err := a.shell(ctx, keys...); err != nil {
			return false, err
		}
	}

	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			if _, err := a.shell(ctx, "input", "keyevent", keycodeEnter); err != nil {
				return false, err
			}
		}
		for _, chunk := range splitPercentS(line) {
			if _, err := a.shell(ctx, "input", "text", escapeInputText(chunk)); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// splitPercentS cuts line so that no chunk contains a literal "%s", which
// `input text` would type as a space even when the percent sign is escaped.
func splitPercentS(line string) []string {
	if line == "" {
		return nil
	}
	parts := strings.Split(line, "%s")
	chunks := make([]string, 0, len(parts))
	cur := parts[0]
	for _, p := range parts[1:] {
		chunks = append(chunks, cur+"%")
		cur = "s" + p
	}
	return append(chunks, cur)
}

func (a *ADB) setTextADBKeyboard(ctx context.Context, text string) (bool, error) {
	out, err := a.shell(ctx, "am", "broadcast", "-a", "ADB_CLEAR_TEXT")
	if err != nil {
		return false, err
	}
	if !broadcastCompleted(out) {
		return false, nil
	}
	if text == "" {
		return true, nil
	}

	payload := base64.StdEncoding.EncodeToString([]byte(text))
	out, err = a.shell(ctx, "am", "broadcast", "-a", "ADB_INPUT_B64", "--es", "msg", payload)
	if err != nil {
		return false, err
	}
	return broadcastCompleted(out), nil
}

func broadcastCompleted(out []byte) bool {
	return bytes.Contains(out, []byte("Broadcast completed"))
}

// escapeInputText prepares text for `adb shell input text`, which treats %s
// as a space and hands the argument to the device shell.
func escapeInputText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteString("%s")
		case r == '%':
			b.WriteString(`\%`)
		case strings.ContainsRune(shellSpecial, r):
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Enabled reports whether the device is online and, when a service component
// is configured, whether that accessibility service is switched on.
func (a *ADB) Enabled(ctx context.Context) bool {
	out, err := a.run(ctx, "get-state")
	if err != nil || strings.TrimSpace(string(out)) != "device" {
		return false
	}
	if a.cfg.ServiceComponent == "" {
		return true
	}

	out, err = a.shell(ctx, "settings", "get", "secure", "accessibility_enabled")
	if err != nil {
		return false
	}
	if v, err := strconv.Atoi(strings.TrimSpace(string(out))); err != nil || v != 1 {
		return false
	}

	out, err = a.shell(ctx, "settings", "get", "secure", "enabled_accessibility_services")
	if err != nil {
		return false
	}
	for _, svc := range strings.Split(strings.TrimSpace(string(out)), ":") {
		if svc == a.cfg.ServiceComponent {
			return true
		}
	}
	return false
}

// RequestEnablement opens the accessibility settings screen on the device.
func (a *ADB) RequestEnablement(ctx context.Context) error {
	_, err := a.shell(ctx, "am", "start", "-a", accessibilitySettingsAction)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
