// Package mapper provides the generic field-mapping and transformation engine
// used to reshape payloads between systems.
package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownOperator indicates a rule referenced an operator outside the
// supported set.
var ErrUnknownOperator = errors.New("unknown transformation operator")

const operatorPrefix = "$"

// FieldTransformation describes how a mapped field value is converted before
// being written to its target path.
type FieldTransformation struct {
	Type   string `json:"type"` // string, number, boolean, date, custom
	Format string `json:"format,omitempty"`
	// Custom is applied when Type is "custom". Not serializable.
	Custom func(value any) (any, error) `json:"-"`
}

// MappingConfig pairs source and target field paths positionally, with
// optional per-source-field transformations.
type MappingConfig struct {
	SourceFields    []string                       `json:"source_fields"`
	TargetFields    []string                       `json:"target_fields"`
	Transformations map[string]FieldTransformation `json:"transformations,omitempty"`
}

// DataMapper reshapes payloads. It is stateless and safe for concurrent use.
type DataMapper struct {
	logger *slog.Logger
}

// New creates a data mapper.
func New(logger *slog.Logger) *DataMapper {
	return &DataMapper{
		logger: logger.With("module", "data_mapper"),
	}
}

// Transform applies a JSON-encoded rule tree to the data. Each rule value is
// either a literal, a nested rule object (recursed into), or an operator
// string of the form "$op:arg,arg" where arguments are dotted paths into the
// data ("$default" takes a path and a literal fallback).
func (m *DataMapper) Transform(data map[string]any, rulesJSON string) (map[string]any, error) {
	var rules map[string]any
	if err := json.Unmarshal([]byte(rulesJSON), &rules); err != nil {
		return nil, fmt.Errorf("failed to parse transformation rules: %w", err)
	}

	return m.applyRules(data, rules)
}

func (m *DataMapper) applyRules(data map[string]any, rules map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(rules))

	for key, rule := range rules {
		switch typed := rule.(type) {
		case string:
			if strings.HasPrefix(typed, operatorPrefix) {
				value, err := m.applyOperator(data, typed)
				if err != nil {
					return nil, err
				}

				result[key] = value

				continue
			}

			result[key] = typed
		case map[string]any:
			nested, err := m.applyRules(data, typed)
			if err != nil {
				return nil, err
			}

			result[key] = nested
		default:
			result[key] = rule
		}
	}

	return result, nil
}

func (m *DataMapper) applyOperator(data map[string]any, rule string) (any, error) {
	name, argList, _ := strings.Cut(strings.TrimPrefix(rule, operatorPrefix), ":")

	args := []string{}
	if argList != "" {
		args = strings.Split(argList, ",")
	}

	switch name {
	case "concat":
		var builder strings.Builder

		for _, arg := range args {
			value, _ := LookupPath(data, strings.TrimSpace(arg))
			builder.WriteString(fmt.Sprintf("%v", value))
		}

		return builder.String(), nil
	case "sum":
		total := 0.0

		for _, arg := range args {
			value, _ := LookupPath(data, strings.TrimSpace(arg))

			number, err := toNumber(value)
			if err != nil {
				return nil, fmt.Errorf("sum operand %q: %w", arg, err)
			}

			total += number
		}

		return total, nil
	case "toUpper":
		value, _ := LookupPath(data, firstArg(args))

		return strings.ToUpper(fmt.Sprintf("%v", value)), nil
	case "toLower":
		value, _ := LookupPath(data, firstArg(args))

		return strings.ToLower(fmt.Sprintf("%v", value)), nil
	case "default":
		value, found := LookupPath(data, firstArg(args))
		if found && value != nil {
			return value, nil
		}

		if len(args) > 1 {
			return strings.TrimSpace(args[1]), nil
		}

		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return strings.TrimSpace(args[0])
}

// MapData reads each source field's nested value (a missing path yields no
// write, not an error), optionally applies the field's typed transformation,
// and writes into the nested target path, creating intermediate objects as
// needed. Source and target field lists must have equal length.
func (m *DataMapper) MapData(sourceData map[string]any, config MappingConfig) (map[string]any, error) {
	if len(config.SourceFields) != len(config.TargetFields) {
		return nil, fmt.Errorf("source and target field counts differ: %d != %d",
			len(config.SourceFields), len(config.TargetFields))
	}

	result := make(map[string]any)

	for i, sourceField := range config.SourceFields {
		value, found := LookupPath(sourceData, sourceField)
		if !found {
			m.logger.Debug("Source field missing, skipping", "field", sourceField)

			continue
		}

		if transformation, exists := config.Transformations[sourceField]; exists {
			converted, err := m.applyTransformation(value, transformation)
			if err != nil {
				return nil, fmt.Errorf("transformation of field %q failed: %w", sourceField, err)
			}

			value = converted
		}

		SetPath(result, config.TargetFields[i], value)
	}

	return result, nil
}

func (m *DataMapper) applyTransformation(value any, transformation FieldTransformation) (any, error) {
	switch transformation.Type {
	case "string":
		return fmt.Sprintf("%v", value), nil
	case "number":
		return toNumber(value)
	case "boolean":
		return toBoolean(value)
	case "date":
		return toDate(value, transformation.Format)
	case "custom":
		if transformation.Custom == nil {
			return nil, errors.New("custom transformation without handler")
		}

		return transformation.Custom(value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, transformation.Type)
	}
}

// ValidateMapping performs a structural check of the mapping configuration:
// both field lists present with equal length and every transformation entry
// carrying a type. It does not check that referenced fields exist in any
// actual data.
func (m *DataMapper) ValidateMapping(config MappingConfig) bool {
	if config.SourceFields == nil || config.TargetFields == nil {
		return false
	}

	if len(config.SourceFields) != len(config.TargetFields) {
		return false
	}

	for _, transformation := range config.Transformations {
		if transformation.Type == "" {
			return false
		}
	}

	return true
}

// LookupPath resolves a dotted path inside nested string-keyed maps. The
// second return reports whether the full path was present.
func LookupPath(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	current := any(data)

	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		value, exists := node[segment]
		if !exists {
			return nil, false
		}

		current = value
	}

	return current, true
}

// SetPath writes a value at a dotted path inside nested string-keyed maps,
// creating intermediate maps as needed. Existing non-map intermediates are
// replaced.
func SetPath(data map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := data

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}

		current = next
	}

	current[segments[len(segments)-1]] = value
}

func toNumber(value any) (float64, error) {
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case json.Number:
		return typed.Float64()
	case string:
		return strconv.ParseFloat(typed, 64)
	case bool:
		if typed {
			return 1, nil
		}

		return 0, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to number", value)
	}
}

func toBoolean(value any) (bool, error) {
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case string:
		return strconv.ParseBool(typed)
	case float64:
		return typed != 0, nil
	case int:
		return typed != 0, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

func toDate(value any, format string) (time.Time, error) {
	if format == "" {
		format = time.RFC3339
	}

	switch typed := value.(type) {
	case time.Time:
		return typed, nil
	case string:
		return time.Parse(format, typed)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to date", value)
	}
}
