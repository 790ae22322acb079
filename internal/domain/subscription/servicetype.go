package subscription

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// FieldType is a JSON type a config field may declare.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
)

var ValidFieldTypes = map[FieldType]bool{
	FieldString:  true,
	FieldNumber:  true,
	FieldInteger: true,
	FieldBoolean: true,
	FieldObject:  true,
	FieldArray:   true,
}

// FieldSpec declares one configuration field.
type FieldSpec struct {
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// ConfigSchema maps field names to their declaration. Fields not declared are
// accepted as is.
type ConfigSchema map[string]FieldSpec

const configSchemaURL = "cloudbilling://service-type/config.json"

// Document renders the declarations as a JSON Schema object.
func (s ConfigSchema) Document() map[string]any {
	properties := make(map[string]any, len(s))
	required := []string{}
	for _, name := range slices.Sorted(maps.Keys(s)) {
		properties[name] = map[string]any{"type": string(s[name].Type)}
		if s[name].Required {
			required = append(required, name)
		}
	}
	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Compile builds the validator for the declarations.
func (s ConfigSchema) Compile() (*jsonschema.Schema, error) {
	for name, spec := range s {
		if !ValidFieldTypes[spec.Type] {
			return nil, fmt.Errorf("%w: field %q declares unknown type %q", ErrInvalidConfig, name, spec.Type)
		}
	}
	doc, err := normalizeJSON(s.Document())
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(configSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	compiled, err := c.Compile(configSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return compiled, nil
}

// Validate checks that required fields are present and that declared fields
// carry a value of their type. A nil value counts as absent. When several
// fields fail, the error names the first in sorted order.
func (s ConfigSchema) Validate(config map[string]any) error {
	compiled, err := s.Compile()
	if err != nil {
		return err
	}
	return validateConfig(compiled, config)
}

func validateConfig(compiled *jsonschema.Schema, config map[string]any) error {
	present := make(map[string]any, len(config))
	for k, v := range config {
		if v != nil {
			present[k] = v
		}
	}
	instance, err := normalizeJSON(present)
	if err != nil {
		return err
	}

	err = compiled.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return fieldError(verr)
}

type fieldProblem struct {
	field   string
	message string
}

// fieldError reduces a validation tree to the first failing field.
func fieldError(verr *jsonschema.ValidationError) error {
	var problems []fieldProblem
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		field := strings.Join(e.InstanceLocation, "/")
		switch k := e.ErrorKind.(type) {
		case *kind.Required:
			for _, missing := range k.Missing {
				problems = append(problems, fieldProblem{missing, fmt.Sprintf("missing required field %q", missing)})
			}
		case *kind.Type:
			problems = append(problems, fieldProblem{field, fmt.Sprintf("field %q must be of type %s", field, strings.Join(k.Want, " or "))})
		default:
			problems = append(problems, fieldProblem{field, e.Error()})
		}
	}
	walk(verr)

	if len(problems) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, verr)
	}
	first := slices.MinFunc(problems, func(a, b fieldProblem) int {
		return strings.Compare(a.field, b.field)
	})
	return fmt.Errorf("%w: %s", ErrInvalidConfig, first.message)
}

// normalizeJSON round-trips v so numbers reach the validator as json.Number.
func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return doc, nil
}

// ServiceType is a kind of resource a provider can deliver.
type ServiceType struct {
	id            uint
	name          string
	provider      string
	configSchema  ConfigSchema
	compiled      *jsonschema.Schema
	defaultConfig map[string]any
	createdAt     time.Time
	updatedAt     time.Time
}

func NewServiceType(name, provider string, schema ConfigSchema, defaults map[string]any, now time.Time) (*ServiceType, error) {
	st := &ServiceType{
		name:          name,
		provider:      provider,
		configSchema:  schema,
		defaultConfig: maps.Clone(defaults),
		createdAt:     now,
		updatedAt:     now,
	}
	if err := st.validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// ReconstructServiceType reconstructs a service type from persistence
func ReconstructServiceType(
	id uint,
	name, provider string,
	schema ConfigSchema,
	defaults map[string]any,
	createdAt, updatedAt time.Time,
) (*ServiceType, error) {
	if id == 0 {
		return nil, fmt.Errorf("service type ID cannot be zero")
	}
	st := &ServiceType{
		id:            id,
		name:          name,
		provider:      provider,
		configSchema:  schema,
		defaultConfig: defaults,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
	if err := st.validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *ServiceType) validate() error {
	if st.name == "" {
		return fmt.Errorf("service type name is required")
	}
	if st.configSchema == nil {
		st.configSchema = ConfigSchema{}
	}
	compiled, err := st.configSchema.Compile()
	if err != nil {
		return err
	}
	st.compiled = compiled
	if st.defaultConfig == nil {
		st.defaultConfig = make(map[string]any)
	}
	return nil
}

func (st *ServiceType) ID() uint {
	return st.id
}

func (st *ServiceType) Name() string {
	return st.name
}

// Provider is the registry key of the provisioning provider, empty for the
// configured default.
func (st *ServiceType) Provider() string {
	return st.provider
}

func (st *ServiceType) ConfigSchema() ConfigSchema {
	return maps.Clone(st.configSchema)
}

func (st *ServiceType) DefaultConfig() map[string]any {
	return maps.Clone(st.defaultConfig)
}

func (st *ServiceType) CreatedAt() time.Time {
	return st.createdAt
}

func (st *ServiceType) UpdatedAt() time.Time {
	return st.updatedAt
}

func (st *ServiceType) SetID(id uint) error {
	if st.id != 0 {
		return fmt.Errorf("service type ID is already set")
	}
	st.id = id
	return nil
}

// MergeConfig layers service type defaults, plan defaults and the requested
// config, later layers winning, and validates the result against the schema.
func (st *ServiceType) MergeConfig(plan *Plan, requested map[string]any) (map[string]any, error) {
	merged := st.DefaultConfig()
	if plan != nil {
		maps.Copy(merged, plan.DefaultConfig())
	}
	maps.Copy(merged, requested)

	if err := validateConfig(st.compiled, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
