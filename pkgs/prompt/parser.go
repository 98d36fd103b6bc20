package prompt

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

var (
	// variablePattern matches {{ variable }} syntax
	variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_\.]*)\s*\}\}`)

	// metaPattern matches the meta element
	metaPattern = regexp.MustCompile(`(?s)<meta[^>]*>.*?</meta>`)
)

// Parse parses a template string.
func Parse(src string) (*Template, error) {
	t := &Template{
		Raw:       src,
		Body:      src,
		Variables: make(map[string]*Variable),
	}

	if loc := metaPattern.FindStringIndex(src); loc != nil {
		if err := parseMeta(t, src[loc[0]:loc[1]]); err != nil {
			return nil, fmt.Errorf("failed to extract metadata: %w", err)
		}
		t.Body = strings.TrimSpace(src[:loc[0]] + src[loc[1]:])
	}

	for _, match := range variablePattern.FindAllStringSubmatch(t.Body, -1) {
		name := match[1]
		if _, exists := t.Variables[name]; !exists {
			t.Variables[name] = &Variable{Name: name, Type: VarTypeString}
		}
	}
	return t, nil
}

func parseMeta(t *Template, block string) error {
	var m meta
	if err := xml.Unmarshal([]byte(block), &m); err != nil {
		return err
	}
	for i := range m.Variables.Vars {
		v := m.Variables.Vars[i]
		if v.Name == "" {
			return fmt.Errorf("variable missing name attribute")
		}
		if v.Type == "" {
			v.Type = VarTypeString
		}
		switch v.Type {
		case VarTypeString, VarTypeNumber, VarTypeBoolean, VarTypeObject:
		default:
			return fmt.Errorf("variable %s: unknown type %q", v.Name, v.Type)
		}
		t.Variables[v.Name] = &v
	}
	return nil
}
