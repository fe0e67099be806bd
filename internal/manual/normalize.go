package manual

import (
	"strings"

	"github.com/spf13/cast"
)

// Normalize resolves aliases and defaults, producing a record in which no
// field is absent. It does not assign identifiers or timestamps; the store
// owns those. A caller-supplied CreatedAt is carried through.
func Normalize(raw RawManual) Manual {
	m := Manual{
		ManualID:     strings.TrimSpace(raw.ManualID),
		Title:        raw.Title,
		BusinessArea: raw.BusinessArea,
		Requester:    raw.Requester,
		CreatedBy:    raw.CreatedBy,
		CreatedAt:    raw.CreatedAt,
		Context:      raw.Context,
		Requirements: raw.Requirements,
		Permissions:  raw.Permissions,
		Outputs:      raw.Outputs,
		Keywords:     NormalizeKeywords(raw.Keywords),
		Version:      raw.Version,
		Steps:        NormalizeSteps(raw.Steps),
		Files:        []RenderedFile{},
	}
	if strings.TrimSpace(m.CreatedBy) == "" {
		m.CreatedBy = DefaultCreatedBy
	}
	if m.Version <= 0 {
		m.Version = DefaultVersion
	}
	return m
}

// NormalizeKeywords splits a comma separated string into trimmed, non-empty
// tags. A list is passed through in order; its elements are only converted
// to strings.
func NormalizeKeywords(v any) []string {
	switch x := v.(type) {
	case nil:
		return []string{}
	case string:
		out := []string{}
		for _, part := range strings.Split(x, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		return append([]string{}, x...)
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, cast.ToString(item))
	}
	return out
}

// NormalizeSteps numbers steps by input position unless an explicit number
// is present, and resolves the alias spellings.
func NormalizeSteps(steps []RawStep) []Step {
	out := make([]Step, 0, len(steps))
	for i, s := range steps {
		n := i + 1
		if s.StepNumber != nil && *s.StepNumber >= 0 {
			n = *s.StepNumber
		}
		out = append(out, Step{
			StepNumber:      n,
			StepTitle:       firstNonEmpty(s.StepTitle, s.Title),
			StepDescription: firstNonEmpty(s.StepDescription, s.Description),
			ExpectedOutput:  s.ExpectedOutput,
			RequiredTools:   s.RequiredTools,
			EstimatedTime:   firstNonEmpty(s.EstimatedTime, s.EstimatedTimeMinutes),
			IsCritical:      Truthy(s.IsCritical),
		})
	}
	return out
}

func firstNonEmpty(primary, alias string) string {
	if primary != "" {
		return primary
	}
	return alias
}
