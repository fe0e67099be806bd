// Package manual defines the canonical internal process manual record and the
// normalization that turns loosely structured producer output into it.
//
// Upstream producers (agents, HTTP clients, hand-written JSON) send manuals in
// inconsistent shapes: keywords as a comma separated string or a list, steps
// keyed "title" instead of "step_title", step numbers missing or sent as
// strings. RawManual captures that input; Normalize is the single place where
// aliases and defaults are resolved.
package manual

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCreatedBy is the provenance label used when a manual carries none.
const DefaultCreatedBy = "manual-ai"

// DefaultVersion is assigned when the caller does not supply a version.
const DefaultVersion = 1

// FormatHTML is the only rendered document format currently produced.
const FormatHTML = "html"

// ─── Types ───────────────────────────────────────────────────────────────────

// Manual is a structured internal procedure document.
type Manual struct {
	ManualID     string         `json:"manual_id"`
	Title        string         `json:"title"`
	BusinessArea string         `json:"business_area"`
	Requester    string         `json:"requester"`
	CreatedBy    string         `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	LastUpdated  time.Time      `json:"last_updated"`
	Context      string         `json:"context"`
	Requirements string         `json:"requirements"`
	Permissions  string         `json:"permissions"`
	Outputs      string         `json:"outputs"`
	Keywords     []string       `json:"keywords"`
	Version      int            `json:"version"`
	Steps        []Step         `json:"steps"`
	Files        []RenderedFile `json:"files"`
}

// Step is one ordered instruction within a manual's procedure.
type Step struct {
	StepNumber      int    `json:"step_number"`
	StepTitle       string `json:"step_title"`
	StepDescription string `json:"step_description"`
	ExpectedOutput  string `json:"expected_output"`
	RequiredTools   string `json:"required_tools"`
	EstimatedTime   string `json:"estimated_time"`
	IsCritical      bool   `json:"is_critical"`
}

// RenderedFile is an immutable snapshot of a manual's document at a version.
type RenderedFile struct {
	Version   int       `json:"version"`
	FilePath  string    `json:"file_path"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// Summary is the metadata-only view returned by search.
type Summary struct {
	ManualID     string    `json:"manual_id"`
	Title        string    `json:"title"`
	BusinessArea string    `json:"business_area"`
	Requester    string    `json:"requester"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	Keywords     []string  `json:"keywords"`
}

// SaveResult summarizes a completed save.
type SaveResult struct {
	ManualID     string    `json:"manual_id"`
	Title        string    `json:"title"`
	BusinessArea string    `json:"business_area"`
	Requester    string    `json:"requester"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	StepsCount   int       `json:"steps_count"`
	FilePath     string    `json:"file_path"`
	Version      int       `json:"version"`
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Summary returns the search view of m.
func (m Manual) Summary() Summary {
	kw := m.Keywords
	if kw == nil {
		kw = []string{}
	}
	return Summary{
		ManualID:     m.ManualID,
		Title:        m.Title,
		BusinessArea: m.BusinessArea,
		Requester:    m.Requester,
		CreatedAt:    m.CreatedAt,
		LastUpdated:  m.LastUpdated,
		Keywords:     kw,
	}
}

// CriticalSteps returns the steps flagged as critical, in order.
func (m Manual) CriticalSteps() []Step {
	var out []Step
	for _, s := range m.Steps {
		if s.IsCritical {
			out = append(out, s)
		}
	}
	return out
}

// SortSteps orders steps by step number. Equal numbers keep input order.
func SortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepNumber < steps[j].StepNumber
	})
}

// SortFiles orders files newest version first, then newest render first.
func SortFiles(files []RenderedFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Version != files[j].Version {
			return files[i].Version > files[j].Version
		}
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
}

var idPattern = regexp.MustCompile(`^MAN-[0-9a-f]{10}$`)

// NewID returns a fresh manual identifier of the form MAN-xxxxxxxxxx.
func NewID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MAN-" + hex[:10]
}

// ValidID reports whether id has the generated identifier shape.
// Caller-supplied ids of other shapes are still accepted by the store.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// DocumentKey is the blob key of the rendered document for (id, version).
func DocumentKey(manualID string, version int, ext string) string {
	return "manuals/" + manualID + "/v" + strconv.Itoa(version) + "." + ext
}
