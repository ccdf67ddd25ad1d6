package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Envelope is an action as submitted by a client. Variant fields travel in
// Kwargs until the action_type is known.
type Envelope struct {
	ActionName   string                 `json:"action_name"`
	ActionType   string                 `json:"action_type"`
	Kwargs       map[string]interface{} `json:"kwargs"`
	CreateDate   string                 `json:"create_date,omitempty"`
	CreatedBy    string                 `json:"created_by,omitempty"`
	ModifiedDate string                 `json:"modified_date,omitempty"`
}

// Record is the flat, validated form of an action as persisted.
type Record map[string]interface{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return v
}

// Build resolves the envelope's variant, validates the merged fields against
// it and returns the flat record.
func Build(env Envelope) (Record, error) {
	action, err := Decode(env)
	if err != nil {
		return nil, err
	}
	return ToRecord(action)
}

// Decode resolves and validates the envelope into its concrete variant.
func Decode(env Envelope) (Action, error) {
	if env.ActionType == "" {
		return nil, &ValidationError{Errors: []FieldError{missingField("action_type")}, Body: env}
	}
	variant, err := Resolve(env.ActionType)
	if err != nil {
		return nil, err
	}

	flat := make(map[string]interface{}, len(env.Kwargs)+5)
	for k, v := range env.Kwargs {
		flat[k] = v
	}
	flat["action_name"] = env.ActionName
	flat["action_type"] = env.ActionType
	for k, v := range map[string]string{
		"create_date":   env.CreateDate,
		"created_by":    env.CreatedBy,
		"modified_date": env.ModifiedDate,
	} {
		if v != "" {
			flat[k] = v
		} else {
			delete(flat, k)
		}
	}

	action := variant.New()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           action,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(flat); err != nil {
		return nil, &ValidationError{Errors: fromDecodeError(err), Body: env}
	}

	if err := validate.Struct(action); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, &ValidationError{Errors: fromValidationErrors(verrs), Body: env}
		}
		return nil, err
	}
	return action, nil
}

// FromRecord decodes a stored record back into its variant.
func FromRecord(r Record) (Action, error) {
	env := Envelope{Kwargs: make(map[string]interface{}, len(r))}
	for k, v := range r {
		env.Kwargs[k] = v
	}
	env.ActionName, _ = r["action_name"].(string)
	env.ActionType, _ = r["action_type"].(string)
	env.CreateDate, _ = r["create_date"].(string)
	env.CreatedBy, _ = r["created_by"].(string)
	env.ModifiedDate, _ = r["modified_date"].(string)
	delete(env.Kwargs, "key")
	return Decode(env)
}

// ToRecord flattens a variant into its persisted form.
func ToRecord(action Action) (Record, error) {
	raw, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s action: %w", reflect.TypeOf(action).Elem().Name(), err)
	}
	record := make(Record)
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return record, nil
}
