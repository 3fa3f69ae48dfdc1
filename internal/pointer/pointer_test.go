package pointer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/plugin"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(1920, 1080)

	w, h := r.ScreenSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	require.NoError(t, r.Move(10, 20))
	require.NoError(t, r.Click(Left, false))
	require.NoError(t, r.Scroll(-3))

	boom := errors.New("boom")
	r.Fail("click", boom)
	assert.ErrorIs(t, r.Click(Right, true), boom)
	r.Fail("click", nil)
	assert.NoError(t, r.Click(Left, true))

	assert.Equal(t, []Event{
		{Action: "move", X: 10, Y: 20},
		{Action: "click", Button: Left},
		{Action: "scroll", Ticks: -3},
		{Action: "click", Button: Right, Double: true},
		{Action: "click", Button: Left, Double: true},
	}, r.Events())
	assert.Equal(t, 3, r.Count("click"))

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestInjectionError(t *testing.T) {
	cause := errors.New("display closed")
	err := error(&InjectionError{Action: "scroll", Params: map[string]any{"ticks": 3}, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "inject scroll")
	assert.Contains(t, err.Error(), "ticks:3")

	var ie *InjectionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "scroll", ie.Action)
}

// logPlugin writes a plugin that answers screen-size and appends every
// request to requests.log.
func logPlugin(t *testing.T) (*plugin.Plugin, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	logPath := filepath.Join(dir, "requests.log")
	script := `#!/bin/sh
INPUT=$(cat)
echo "$INPUT" >> "` + logPath + `"
case "$INPUT" in
  *screen-size*) echo '{"success":true,"data":{"width":1280,"height":720}}' ;;
  *) echo '{"success":true}' ;;
esac
`
	exe := filepath.Join(dir, "pointer.sh")
	require.NoError(t, os.WriteFile(exe, []byte(script), 0755))

	return &plugin.Plugin{
		Manifest:   plugin.Manifest{Name: "test-pointer", Executable: "pointer.sh", Actions: PluginActions},
		Path:       dir,
		Executable: exe,
	}, logPath
}

func TestPlugin(t *testing.T) {
	p, logPath := logPlugin(t)

	ptr, err := NewPlugin(context.Background(), plugin.NewExecutor(5*time.Second), p)
	require.NoError(t, err)

	w, h := ptr.ScreenSize()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	require.NoError(t, ptr.Move(5, 6))
	require.NoError(t, ptr.Click(Right, false))
	require.NoError(t, ptr.Scroll(2))
	require.NoError(t, ptr.Press(Left))
	require.NoError(t, ptr.Release(Left))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], `"action":"move"`)
	assert.Contains(t, lines[1], `"x":5`)
	assert.Contains(t, lines[2], `"button":"right"`)
	assert.Contains(t, lines[3], `"ticks":2`)
	assert.Contains(t, lines[4], `"action":"press"`)
	assert.Contains(t, lines[5], `"action":"release"`)
}

func TestPlugin_BadScreenSize(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
	dir := t.TempDir()
	exe := filepath.Join(dir, "pointer.sh")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\ncat >/dev/null\necho '{\"success\":true,\"data\":{\"width\":0,\"height\":0}}'\n"), 0755))

	p := &plugin.Plugin{Manifest: plugin.Manifest{Name: "zero", Actions: PluginActions}, Path: dir, Executable: exe}
	_, err := NewPlugin(context.Background(), plugin.NewExecutor(5*time.Second), p)
	assert.ErrorContains(t, err, "0x0")
}

func TestPlugin_MissingActions(t *testing.T) {
	p, logPath := logPlugin(t)
	p.Manifest.Actions = []string{"screen-size", "move", "click"}

	_, err := NewPlugin(context.Background(), plugin.NewExecutor(5*time.Second), p)
	assert.ErrorContains(t, err, "scroll, press, release")

	_, statErr := os.Stat(logPath)
	assert.True(t, os.IsNotExist(statErr), "plugin is not run when the manifest is incomplete")
}
