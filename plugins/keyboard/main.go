// Package main provides a key-input plugin. It holds and releases single
// keys via System Events on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Key    string          `json:"key"`
	Config json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	name, args, err := keyCommand(runtime.GOOS, req.Action, req.Key)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := run(name, args...); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

// keyCommand returns the command that performs action on key for goos.
func keyCommand(goos, action, key string) (string, []string, error) {
	if key == "" {
		return "", nil, fmt.Errorf("key is required")
	}
	if action != "keydown" && action != "keyup" {
		return "", nil, fmt.Errorf("unknown action: %s", action)
	}

	switch goos {
	case "darwin":
		verb := "key down"
		if action == "keyup" {
			verb = "key up"
		}
		script := fmt.Sprintf(`tell application "System Events" to %s "%s"`, verb, escape(key))
		return "osascript", []string{"-e", script}, nil
	case "linux":
		return "xdotool", []string{action, key}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// escape quotes key for an AppleScript string literal.
func escape(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	return strings.ReplaceAll(key, `"`, `\"`)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// run executes a command and returns any error with its output.
func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
