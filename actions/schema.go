package actions

import (
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Schema describes one variant as a single flat JSON schema document, in a
// shape a form renderer can consume directly.
type Schema struct {
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Title       string    `json:"title,omitempty"`
	Type        string    `json:"type"`
	Enum        []string  `json:"enum,omitempty"`
	Format      string    `json:"format,omitempty"`
	MinItems    int       `json:"minItems,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
	FormType    string    `json:"form_type,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

var titleCaser = cases.Title(language.English)

// Schemas returns the form schema of every registered variant.
func Schemas() []Schema {
	out := make([]Schema, 0, len(registry))
	for _, v := range registry {
		out = append(out, v.Schema())
	}
	return out
}

// Schema merges the envelope, integration and details fields of v.
func (v Variant) Schema() Schema {
	s := Schema{
		Title:      v.Title,
		Type:       "object",
		Properties: make(map[string]Property),
		Required:   []string{},
	}

	s.add("action_name", Property{Title: "Action Name", Type: "string"}, true)
	s.add("action_type", Property{Title: "Action Type", Type: "string", Enum: []string{v.Name}}, true)
	s.addStruct(v.integration)
	s.addStruct(v.details)
	return s
}

// IntegrationSchema describes only the credential part of v.
func (v Variant) IntegrationSchema() Schema {
	s := Schema{
		Title:      v.Title + " Integration",
		Type:       "object",
		Properties: make(map[string]Property),
		Required:   []string{},
	}
	s.addStruct(v.integration)
	return s
}

func (s *Schema) add(name string, p Property, required bool) {
	s.Properties[name] = p
	if required {
		s.Required = append(s.Required, name)
	}
}

func (s *Schema) addStruct(t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		p, required := fieldProperty(f.Type, f.Tag.Get("validate"))
		p.Title = fieldTitle(name)
		p.Placeholder = f.Tag.Get("placeholder")
		p.Description = f.Tag.Get("description")
		p.FormType = f.Tag.Get("form_type")
		s.add(name, p, required)
	}
}

func fieldTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// fieldProperty maps a Go type and its validate tag to a schema property.
// Rules after "dive" apply to the list elements.
func fieldProperty(t reflect.Type, rules string) (Property, bool) {
	own, elem, _ := strings.Cut(rules, ",dive")
	elem = strings.TrimPrefix(elem, ",")

	p := Property{Type: "string"}
	required := false
	if t.Kind() == reflect.Slice {
		items, _ := fieldProperty(t.Elem(), elem)
		p = Property{Type: "array", Items: &items}
	}

	for _, rule := range strings.Split(own, ",") {
		key, param, _ := strings.Cut(rule, "=")
		switch key {
		case "required":
			required = true
		case "email":
			p.Format = "email"
		case "http_url":
			p.Format = "uri"
		case "oneof":
			p.Enum = strings.Fields(param)
		case "min":
			if p.Type == "array" {
				p.MinItems, _ = strconv.Atoi(param)
			}
		}
	}
	return p, required
}
