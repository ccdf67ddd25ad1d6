package actions

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// Variant describes one registered action type.
type Variant struct {
	Name  string
	Title string

	newAction   func() Action
	integration reflect.Type
	details     reflect.Type
}

// New returns a zero value of the variant's concrete type.
func (v Variant) New() Action {
	return v.newAction()
}

// IntegrationFields lists the JSON names of the credential fields.
func (v Variant) IntegrationFields() []string {
	return fieldNames(v.integration)
}

// DetailsFields lists the JSON names of the per-send settings.
func (v Variant) DetailsFields() []string {
	return fieldNames(v.details)
}

func newVariant(name string, newAction func() Action, integration, details interface{}) Variant {
	return Variant{
		Name:        name,
		Title:       strcase.ToCamel(name),
		newAction:   newAction,
		integration: reflect.TypeOf(integration),
		details:     reflect.TypeOf(details),
	}
}

// registry is ordered by tag.
var registry = []Variant{
	newVariant(TypeEmail, func() Action { return &Email{} }, EmailIntegration{}, EmailDetails{}),
	newVariant(TypeOpsGenie, func() Action { return &OpsGenie{} }, OpsGenieIntegration{}, OpsGenieDetails{}),
	newVariant(TypeSlack, func() Action { return &Slack{} }, SlackIntegration{}, SlackDetails{}),
}

// Variants returns every registered variant in tag order.
func Variants() []Variant {
	out := make([]Variant, len(registry))
	copy(out, registry)
	return out
}

// Resolve looks up the variant registered under tag.
func Resolve(tag string) (Variant, error) {
	for _, v := range registry {
		if v.Name == tag {
			return v, nil
		}
	}
	return Variant{}, &UnsupportedVariantError{Type: tag}
}

func fieldNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, jsonName(t.Field(i)))
	}
	return names
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}
