package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// describeToolCall synthesizes a deterministic human-readable description
// of a tool call from its name and arguments: path-bearing calls describe
// the file operation, query/pattern/command arguments get truncated and
// labeled, and a patterns[] array collapses to its first element plus a
// remainder count. Anything else falls back to the bare tool name.
func describeToolCall(name string, args json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args, &obj); err != nil {
		return name
	}

	if path, ok := stringField(obj, "path"); ok {
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "read"):
			return fmt.Sprintf("Read file: %s", path)
		case strings.Contains(lower, "edit"), strings.Contains(lower, "write"):
			return fmt.Sprintf("Edit file: %s", path)
		case strings.Contains(lower, "delete"), strings.Contains(lower, "remove"):
			return fmt.Sprintf("Delete file: %s", path)
		case strings.Contains(lower, "search"), strings.Contains(lower, "grep"):
			return fmt.Sprintf("Search in: %s", path)
		default:
			return fmt.Sprintf("%s on %s", name, path)
		}
	}

	if query, ok := stringField(obj, "query"); ok {
		return fmt.Sprintf("%s: %s", name, truncate(query, 50, 47))
	}

	if pattern, ok := stringField(obj, "pattern"); ok {
		return fmt.Sprintf("%s: %s", name, truncate(pattern, 40, 37))
	}

	if command, ok := stringField(obj, "command"); ok {
		return fmt.Sprintf("Execute: %s", truncate(command, 60, 57))
	}

	if raw, ok := obj["patterns"]; ok {
		var patterns []string
		if err := json.Unmarshal(raw, &patterns); err == nil && len(patterns) > 0 {
			return fmt.Sprintf("%s: %s (+ %d more)", name, patterns[0], len(patterns)-1)
		}
	}

	return name
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// truncate returns s unchanged if it is at most limit bytes long,
// otherwise the first cut bytes followed by "...".
func truncate(s string, limit, cut int) string {
	if len(s) > limit {
		return s[:cut] + "..."
	}
	return s
}
