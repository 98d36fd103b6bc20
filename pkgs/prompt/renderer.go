package prompt

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Render substitutes values into t. Missing values fall back to declared
// defaults; a required variable with neither is an error. Placeholders for
// variables that end up without a value render as empty text.
func Render(t *Template, values map[string]any) (string, error) {
	resolved, err := resolve(t, values)
	if err != nil {
		return "", err
	}

	var convErr error
	out := variablePattern.ReplaceAllStringFunc(t.Body, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		value, ok := resolved[name]
		if !ok {
			return ""
		}
		s, err := valueToString(value)
		if err != nil && convErr == nil {
			convErr = fmt.Errorf("failed to convert variable %s: %w", name, err)
		}
		return s
	})
	if convErr != nil {
		return "", convErr
	}
	return out, nil
}

// resolve validates values against the declarations and applies defaults.
// values is never modified.
func resolve(t *Template, values map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(t.Variables))
	for k, v := range values {
		resolved[k] = v
	}

	var errs ValidationErrors
	for _, name := range t.Names() {
		def := t.Variables[name]
		value, provided := resolved[name]
		if provided {
			if err := validateType(value, def.Type); err != nil {
				errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf("invalid type: %v", err)})
			}
			continue
		}
		if def.Default == "" {
			if def.Required {
				errs = append(errs, ValidationError{Field: name, Message: "required variable not provided"})
			}
			continue
		}
		parsed, err := parseValue(def.Default, def.Type)
		if err != nil {
			errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf("failed to parse default value: %v", err)})
			continue
		}
		resolved[name] = parsed
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return resolved, nil
}

// parseValue parses a string value into the appropriate type
func parseValue(value string, varType VarType) (any, error) {
	switch varType {
	case VarTypeNumber:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", value)
		}
		return f, nil
	case VarTypeBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean: %s", value)
		}
		return b, nil
	case VarTypeObject:
		var obj any
		if err := json.Unmarshal([]byte(value), &obj); err != nil {
			return nil, fmt.Errorf("invalid JSON object: %w", err)
		}
		return obj, nil
	default:
		return value, nil
	}
}

// validateType validates that a value matches the expected type
func validateType(value any, varType VarType) error {
	switch varType {
	case VarTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case VarTypeNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case VarTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case VarTypeObject:
		switch value.(type) {
		case map[string]any, []any:
		default:
			return fmt.Errorf("expected object/array, got %T", value)
		}
	}
	return nil
}

// valueToString converts a value to its string representation
func valueToString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
