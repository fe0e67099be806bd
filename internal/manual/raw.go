package manual

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// RawManual is a manual as producers send it. Every field may be missing.
// Keywords holds either a comma separated string or a list.
type RawManual struct {
	ManualID     string
	Title        string
	BusinessArea string
	Requester    string
	CreatedBy    string
	CreatedAt    time.Time
	Context      string
	Requirements string
	Permissions  string
	Outputs      string
	Keywords     any
	Version      int
	Steps        []RawStep
}

// RawStep is a step as producers send it. Title, Description and
// EstimatedTimeMinutes are the alias spellings of StepTitle, StepDescription
// and EstimatedTime. A nil StepNumber means "use the input position".
type RawStep struct {
	StepNumber           *int
	StepTitle            string
	Title                string
	StepDescription      string
	Description          string
	ExpectedOutput       string
	RequiredTools        string
	EstimatedTime        string
	EstimatedTimeMinutes string
	IsCritical           any
}

// FromMap decodes a loosely typed mapping. Values of unexpected types are
// coerced where possible and dropped otherwise; it never fails.
func FromMap(m map[string]any) RawManual {
	raw := RawManual{
		ManualID:     str(m, "manual_id"),
		Title:        str(m, "title"),
		BusinessArea: str(m, "business_area"),
		Requester:    str(m, "requester"),
		CreatedBy:    str(m, "created_by"),
		Context:      str(m, "context"),
		Requirements: str(m, "requirements"),
		Permissions:  str(m, "permissions"),
		Outputs:      str(m, "outputs"),
		Keywords:     m["keywords"],
	}
	if v, ok := m["created_at"]; ok && v != nil {
		if t, err := cast.ToTimeE(v); err == nil {
			raw.CreatedAt = t
		}
	}
	if v, ok := m["version"]; ok && v != nil {
		if n, err := cast.ToIntE(v); err == nil {
			raw.Version = n
		}
	}
	if v, ok := m["steps"]; ok && v != nil {
		items, err := cast.ToSliceE(v)
		if err == nil {
			for _, item := range items {
				sm, err := cast.ToStringMapE(item)
				if err != nil {
					sm = map[string]any{}
				}
				raw.Steps = append(raw.Steps, stepFromMap(sm))
			}
		}
	}
	return raw
}

func stepFromMap(m map[string]any) RawStep {
	s := RawStep{
		StepTitle:            str(m, "step_title"),
		Title:                str(m, "title"),
		StepDescription:      str(m, "step_description"),
		Description:          str(m, "description"),
		ExpectedOutput:       str(m, "expected_output"),
		RequiredTools:        str(m, "required_tools"),
		EstimatedTime:        str(m, "estimated_time"),
		EstimatedTimeMinutes: str(m, "estimated_time_minutes"),
		IsCritical:           m["is_critical"],
	}
	if v, ok := m["step_number"]; ok && v != nil {
		if n, err := cast.ToIntE(v); err == nil && n >= 0 {
			s.StepNumber = &n
		}
	}
	return s
}

// UnmarshalJSON decodes any JSON object into a RawManual via FromMap.
// Non-object input decodes to an empty manual.
func (r *RawManual) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		*r = RawManual{}
		return nil
	}
	*r = FromMap(m)
	return nil
}

// Raw converts a canonical manual back into producer input, so a normalized
// record can be fed through Normalize again unchanged.
func (m Manual) Raw() RawManual {
	raw := RawManual{
		ManualID:     m.ManualID,
		Title:        m.Title,
		BusinessArea: m.BusinessArea,
		Requester:    m.Requester,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		Context:      m.Context,
		Requirements: m.Requirements,
		Permissions:  m.Permissions,
		Outputs:      m.Outputs,
		Keywords:     append([]string(nil), m.Keywords...),
		Version:      m.Version,
	}
	for _, s := range m.Steps {
		n := s.StepNumber
		raw.Steps = append(raw.Steps, RawStep{
			StepNumber:      &n,
			StepTitle:       s.StepTitle,
			StepDescription: s.StepDescription,
			ExpectedOutput:  s.ExpectedOutput,
			RequiredTools:   s.RequiredTools,
			EstimatedTime:   s.EstimatedTime,
			IsCritical:      s.IsCritical,
		})
	}
	return raw
}

func str(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// falseWords are the string spellings treated as false.
var falseWords = map[string]bool{
	"":      true,
	"false": true,
	"f":     true,
	"0":     true,
	"no":    true,
	"n":     true,
	"off":   true,
	"none":  true,
	"null":  true,
}

// Truthy coerces an arbitrary value to a boolean. Strings are false when
// they spell a negative ("no", "false", "0", ...) and true otherwise.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return !falseWords[strings.ToLower(strings.TrimSpace(x))]
	}
	if b, err := cast.ToBoolE(v); err == nil {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	}
	return !rv.IsZero()
}
