package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// ErrMalformedBody is returned by the decoders when the payload is not a JSON object.
var ErrMalformedBody = errors.New("malformed request body")

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"details"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Input is untrusted create input. Nil fields are absent.
type Input struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Patch is untrusted partial update input. Nil fields are left unchanged;
// ClearDueDate removes the due date.
type Patch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
}

// Empty reports whether the patch would change nothing but the update time.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Fields holds validated task fields with defaults applied.
type Fields struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// Validate checks create input and applies defaults for omitted optional fields.
func Validate(in Input) (Fields, error) {
	verr := &ValidationError{}
	f := Fields{
		Status:   StatusPending,
		Priority: PriorityMedium,
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		f.DueDate = &due
	}

	if in.Title == nil {
		verr.add("title", "is required")
	} else if title, msg := checkTitle(*in.Title); msg != "" {
		verr.add("title", msg)
	} else {
		f.Title = title
	}

	if in.Description != nil {
		if msg := checkDescription(*in.Description); msg != "" {
			verr.add("description", msg)
		} else {
			f.Description = *in.Description
		}
	}

	if in.Status != nil {
		if s, ok := ParseStatus(*in.Status); ok {
			f.Status = s
		} else {
			verr.add("status", statusMessage())
		}
	}

	if in.Priority != nil {
		if p, ok := ParsePriority(*in.Priority); ok {
			f.Priority = p
		} else {
			verr.add("priority", priorityMessage())
		}
	}

	if err := verr.orNil(); err != nil {
		return Fields{}, err
	}
	return f, nil
}

// ValidatePatch checks every field present in p.
func ValidatePatch(p Patch) error {
	verr := &ValidationError{}
	if p.Title != nil {
		if _, msg := checkTitle(*p.Title); msg != "" {
			verr.add("title", msg)
		}
	}
	if p.Description != nil {
		if msg := checkDescription(*p.Description); msg != "" {
			verr.add("description", msg)
		}
	}
	if p.Status != nil {
		if _, ok := ParseStatus(*p.Status); !ok {
			verr.add("status", statusMessage())
		}
	}
	if p.Priority != nil {
		if _, ok := ParsePriority(*p.Priority); !ok {
			verr.add("priority", priorityMessage())
		}
	}
	if p.DueDate != nil && p.ClearDueDate {
		verr.add("dueDate", "cannot set and clear in the same update")
	}
	return verr.orNil()
}

// Apply writes a validated patch onto t. Callers must run ValidatePatch first.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = Status(*p.Status)
	}
	if p.Priority != nil {
		t.Priority = Priority(*p.Priority)
	}
	if p.DueDate != nil {
		due := p.DueDate.UTC()
		t.DueDate = &due
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
}

func checkTitle(raw string) (string, string) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", "must not be empty"
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Sprintf("must be at most %d characters", MaxTitleLength)
	}
	return title, ""
}

func checkDescription(raw string) string {
	if utf8.RuneCountInString(raw) > MaxDescriptionLength {
		return fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)
	}
	return ""
}

func statusMessage() string {
	return fmt.Sprintf("must be one of %s", joinValues(AllStatuses()))
}

func priorityMessage() string {
	return fmt.Sprintf("must be one of %s", joinValues(AllPriorities()))
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// DecodeInput parses a raw JSON create body. Fields of the wrong JSON type are
// reported as a *ValidationError; unknown fields are ignored.
func DecodeInput(data []byte) (Input, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return Input{}, err
	}

	var in Input
	verr := &ValidationError{}
	in.Title = stringField(raw, "title", verr)
	in.Description = stringField(raw, "description", verr)
	in.Status = stringField(raw, "status", verr)
	in.Priority = stringField(raw, "priority", verr)
	in.DueDate, _ = timeField(raw, "dueDate", verr)

	if err := verr.orNil(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// DecodePatch parses a raw JSON update body. An explicit "dueDate": null clears
// the due date.
func DecodePatch(data []byte) (Patch, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return Patch{}, err
	}

	var p Patch
	verr := &ValidationError{}
	p.Title = stringField(raw, "title", verr)
	p.Description = stringField(raw, "description", verr)
	p.Status = stringField(raw, "status", verr)
	p.Priority = stringField(raw, "priority", verr)
	p.DueDate, p.ClearDueDate = timeField(raw, "dueDate", verr)

	if err := verr.orNil(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedBody
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return raw, nil
}

func isNull(msg json.RawMessage) bool {
	return string(bytes.TrimSpace(msg)) == "null"
}

// stringField treats null the same as an absent field.
func stringField(raw map[string]json.RawMessage, name string, verr *ValidationError) *string {
	msg, ok := raw[name]
	if !ok || isNull(msg) {
		return nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		verr.add(name, "must be a string")
		return nil
	}
	return &s
}

// timeField returns the parsed timestamp and whether the field was an explicit null.
func timeField(raw map[string]json.RawMessage, name string, verr *ValidationError) (*time.Time, bool) {
	msg, ok := raw[name]
	if !ok {
		return nil, false
	}
	if isNull(msg) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		verr.add(name, "must be an RFC 3339 timestamp string")
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		verr.add(name, "must be an RFC 3339 timestamp string")
		return nil, false
	}
	t = t.UTC()
	return &t, false
}
