// Package main provides a pointer plugin for X11 desktops.
// It moves the cursor, clicks and scrolls by shelling out to xdotool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type params struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button string `json:"button"`
	Double bool   `json:"double"`
	Ticks  int    `json:"ticks"`
}

// actionHandler runs one action and optionally returns data for the response.
type actionHandler func(p params) (any, error)

var actionHandlers = map[string]actionHandler{
	"screen-size": screenSize,
	"move":        move,
	"click":       click,
	"scroll":      scroll,
	"press":       press,
	"release":     release,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var p params
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid params for %s: %v", req.Action, err))
			return
		}
	}

	data, err := handler(p)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(data)
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse(data any) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("encode data: %v", err))
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// xdotool runs xdotool with args and returns its trimmed output.
func xdotool(args ...string) (string, error) {
	out, err := exec.Command("xdotool", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// buttonNumber maps a button name to its X11 number.
func buttonNumber(name string) (string, error) {
	switch name {
	case "", "left":
		return "1", nil
	case "right":
		return "3", nil
	default:
		return "", fmt.Errorf("unknown button %q", name)
	}
}

func screenSize(params) (any, error) {
	out, err := xdotool("getdisplaygeometry")
	if err != nil {
		return nil, err
	}
	return parseGeometry(out)
}

func parseGeometry(out string) (any, error) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return nil, fmt.Errorf("unexpected geometry %q", out)
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("parse width: %w", err)
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("parse height: %w", err)
	}
	return map[string]int{"width": w, "height": h}, nil
}

func move(p params) (any, error) {
	_, err := xdotool("mousemove", strconv.Itoa(p.X), strconv.Itoa(p.Y))
	return nil, err
}

func click(p params) (any, error) {
	b, err := buttonNumber(p.Button)
	if err != nil {
		return nil, err
	}
	args := []string{"click"}
	if p.Double {
		args = append(args, "--repeat", "2")
	}
	_, err = xdotool(append(args, b)...)
	return nil, err
}

// scroll clicks the wheel buttons: 4 is up, 5 is down.
func scroll(p params) (any, error) {
	if p.Ticks == 0 {
		return nil, nil
	}
	b, n := "4", p.Ticks
	if n < 0 {
		b, n = "5", -n
	}
	_, err := xdotool("click", "--repeat", strconv.Itoa(n), b)
	return nil, err
}

func press(p params) (any, error) {
	b, err := buttonNumber(p.Button)
	if err != nil {
		return nil, err
	}
	_, err = xdotool("mousedown", b)
	return nil, err
}

func release(p params) (any, error) {
	b, err := buttonNumber(p.Button)
	if err != nil {
		return nil, err
	}
	_, err = xdotool("mouseup", b)
	return nil, err
}
