// Package prompt renders the spoken-delivery instructions sent to speech
// synthesis models.
//
// A template is plain text with {{ name }} placeholders, optionally preceded
// by a <meta> block declaring each variable's type, default and whether it
// is required:
//
//	<meta>
//	  <variables>
//	    <var name="style" default="吐字清晰精准，字正腔圆。"/>
//	  </variables>
//	</meta>
//	{{ style }}遇到英文缩写时请逐字母拼读。
//
// The meta block is metadata only and never appears in rendered output.
package prompt

import (
	"encoding/xml"
	"sort"
	"strings"
)

// VarType represents the type of a variable
type VarType string

const (
	VarTypeString  VarType = "string"
	VarTypeNumber  VarType = "number"
	VarTypeBoolean VarType = "boolean"
	VarTypeObject  VarType = "object"
)

// Variable defines metadata for a template variable
type Variable struct {
	Name        string  `xml:"name,attr"`
	Required    bool    `xml:"required,attr"`
	Default     string  `xml:"default,attr"`
	Type        VarType `xml:"type,attr"`
	Description string  `xml:"description,attr"`
}

type meta struct {
	XMLName   xml.Name `xml:"meta"`
	Variables struct {
		Vars []Variable `xml:"var"`
	} `xml:"variables"`
}

// Template is a parsed instruction template.
type Template struct {
	// Raw is the source text including the meta block.
	Raw string
	// Body is the text that gets rendered.
	Body string
	// Variables holds declared and referenced variables by name.
	Variables map[string]*Variable
}

// Names returns the variable names in sorted order.
func (t *Template) Names() []string {
	names := make([]string, 0, len(t.Variables))
	for name := range t.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError represents a template validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("validation errors:")
	for _, err := range e {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}
