package tools

// Argument coercion helpers for emitter handlers. Tool arguments arrive
// as a JSON-decoded mapping, so numbers are float64 and lists are
// []interface{}; missing or mistyped values coerce to zero values rather
// than failing the emitter.

// String returns args[key] as a string.
func String(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// Float returns args[key] as a float64.
func Float(args map[string]interface{}, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns args[key] as an int.
func Int(args map[string]interface{}, key string) int {
	return int(Float(args, key))
}

// Bool returns args[key] as a bool.
func Bool(args map[string]interface{}, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}

// StringList returns args[key] as a list of strings, skipping
// non-string elements.
func StringList(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		if direct, ok := args[key].([]string); ok {
			return direct
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Mapping returns args[key] as a nested mapping.
func Mapping(args map[string]interface{}, key string) map[string]interface{} {
	if v, ok := args[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

// MappingList returns args[key] as a list of mappings.
func MappingList(args map[string]interface{}, key string) []map[string]interface{} {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
