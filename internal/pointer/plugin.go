package pointer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// Plugin forwards pointer calls to an external plugin executable, one
// process per call. It is the fallback where robotgo cannot be built.
//
// Actions: screen-size, move {x,y}, click {button,double}, scroll {ticks},
// press {button}, release {button}.
type Plugin struct {
	exec   *plugin.Executor
	plugin *plugin.Plugin
	width  int
	height int
}

// PluginActions are the actions a pointer plugin must list in its manifest.
var PluginActions = []string{"screen-size", "move", "click", "scroll", "press", "release"}

// NewPlugin queries the plugin for the screen size once and returns a
// Pointer backed by it.
func NewPlugin(ctx context.Context, exec *plugin.Executor, p *plugin.Plugin) (*Plugin, error) {
	var missing []string
	for _, a := range PluginActions {
		if !p.Manifest.Supports(a) {
			missing = append(missing, a)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("plugin %s does not support %s", p.Manifest.Name, strings.Join(missing, ", "))
	}

	pp := &Plugin{exec: exec, plugin: p}

	resp, err := exec.Execute(ctx, p, &plugin.Request{Action: "screen-size"})
	if err != nil {
		return nil, fmt.Errorf("query screen size: %w", err)
	}

	var size struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.Unmarshal(resp.Data, &size); err != nil {
		return nil, fmt.Errorf("decode screen size: %w", err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("plugin %s reported screen size %dx%d", p.Manifest.Name, size.Width, size.Height)
	}

	pp.width, pp.height = size.Width, size.Height
	return pp, nil
}

func (p *Plugin) ScreenSize() (int, int) {
	return p.width, p.height
}

func (p *Plugin) Move(x, y int) error {
	return p.call("move", map[string]any{"x": x, "y": y})
}

func (p *Plugin) Click(b Button, double bool) error {
	return p.call("click", map[string]any{"button": b, "double": double})
}

func (p *Plugin) Scroll(ticks int) error {
	return p.call("scroll", map[string]any{"ticks": ticks})
}

func (p *Plugin) Press(b Button) error {
	return p.call("press", map[string]any{"button": b})
}

func (p *Plugin) Release(b Button) error {
	return p.call("release", map[string]any{"button": b})
}

func (p *Plugin) call(action string, params map[string]any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", action, err)
	}
	_, err = p.exec.Execute(context.Background(), p.plugin, &plugin.Request{Action: action, Params: raw})
	return err
}
