package engine

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultTriggerClient is the client name sent on action trigger calls.
const DefaultTriggerClient = "enginepy"

// EngineTrigger is an action trigger to fire for a request.
type EngineTrigger struct {
	TriggerID string         `json:"trigger_id" jsonschema:"the trigger to action"`
	Name      string         `json:"name"`
	RequestID *int           `json:"request_id"`
	Status    map[string]any `json:"status"`
	Client    string         `json:"client"`
	Attempt   int            `json:"attempt"`
}

// ModelName implements dispatch.Model.
func (EngineTrigger) ModelName() string { return "EngineTrigger" }

// UnmarshalJSON applies the field defaults before decoding.
func (t *EngineTrigger) UnmarshalJSON(data []byte) error {
	if err := requireKeys("EngineTrigger", data, "trigger_id"); err != nil {
		return err
	}
	type plain EngineTrigger
	p := plain{Client: DefaultTriggerClient, Attempt: 1}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = EngineTrigger(p)
	return nil
}

// Validate checks the trigger can be actioned.
func (t *EngineTrigger) Validate() error {
	if t.TriggerID == "" {
		return errEmptyField("EngineTrigger", "trigger_id")
	}
	if t.Attempt < 1 {
		return fmt.Errorf("EngineTrigger: attempt must be >= 1, got %d", t.Attempt)
	}
	return nil
}

// query returns the action call's query parameters.
func (t *EngineTrigger) query() url.Values {
	q := url.Values{}
	if t.RequestID != nil {
		q.Set("request_id", strconv.Itoa(*t.RequestID))
	}
	client := t.Client
	if client == "" {
		client = DefaultTriggerClient
	}
	q.Set("client", client)
	attempt := t.Attempt
	if attempt == 0 {
		attempt = 1
	}
	q.Set("attempt", strconv.Itoa(attempt))
	return q
}

// EngineType is the input kind of a request field.
type EngineType string

const (
	EngineTypePhone                  EngineType = "phone"
	EngineTypeString                 EngineType = "string"
	EngineTypeEmail                  EngineType = "email"
	EngineTypeIBAN                   EngineType = "iban"
	EngineTypeSelect                 EngineType = "select"
	EngineTypeCheckbox               EngineType = "checkbox"
	EngineTypeSignature              EngineType = "signature"
	EngineTypeYesNo                  EngineType = "yes_no"
	EngineTypeNumber                 EngineType = "number"
	EngineTypeSearchableAutocomplete EngineType = "searchable_autocomplete"
)

func (t EngineType) valid() bool {
	switch t {
	case EngineTypePhone, EngineTypeString, EngineTypeEmail, EngineTypeIBAN,
		EngineTypeSelect, EngineTypeCheckbox, EngineTypeSignature, EngineTypeYesNo,
		EngineTypeNumber, EngineTypeSearchableAutocomplete:
		return true
	}
	return false
}

// EngineField is one answered field of a request. Type defaults to
// "string" when decoded.
type EngineField struct {
	Field  string     `json:"field"`
	Answer any        `json:"answer"`
	Type   EngineType `json:"type"`

	// set holds the keys present in the decoded input; nil for values
	// built in Go, where non-zero members count as set.
	set map[string]bool
}

// UnmarshalJSON applies the field defaults and records which keys were set.
func (f *EngineField) UnmarshalJSON(data []byte) error {
	if err := requireKeys("EngineField", data, "field"); err != nil {
		return err
	}
	set, err := presentKeys(data)
	if err != nil {
		return err
	}
	type plain EngineField
	p := plain{Type: EngineTypeString}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = EngineField(p)
	f.set = set
	return nil
}

func (f *EngineField) has(key string, nonZero bool) bool {
	if f.set == nil {
		return nonZero
	}
	return f.set[key]
}

// dump returns the field's form representation. With all, every member is
// included; otherwise only set members are, and a nil answer is dropped.
func (f *EngineField) dump(all bool) map[string]any {
	typ := f.Type
	if typ == "" {
		typ = EngineTypeString
	}
	if all {
		return map[string]any{"field": f.Field, "answer": f.Answer, "type": typ}
	}
	m := map[string]any{"field": f.Field}
	if f.Answer != nil && f.has("answer", true) {
		m["answer"] = f.Answer
	}
	if f.has("type", f.Type != "") {
		m["type"] = typ
	}
	return m
}

// Validate checks the field name and type.
func (f *EngineField) Validate() error {
	if f.Field == "" {
		return errEmptyField("EngineField", "field")
	}
	if f.Type != "" && !f.Type.valid() {
		return fmt.Errorf("EngineField: unknown type %q", f.Type)
	}
	switch f.Answer.(type) {
	case nil, bool, string, float64, int:
	default:
		return fmt.Errorf("EngineField: answer for %q must be a scalar", f.Field)
	}
	return nil
}

// EngineRequest is a data source request. Documents defaults to "[]"
// when decoded.
type EngineRequest struct {
	Product          string        `json:"product"`
	Funnel           string        `json:"funnel"`
	Documents        string        `json:"documents"`
	RequestID        *int          `json:"request_id"`
	Fields           []EngineField `json:"fields"`
	DocumentsPresign bool          `json:"documents_presign"`

	// set holds the keys present in the decoded input; nil for values
	// built in Go.
	set map[string]bool
}

// UnmarshalJSON checks the required members are present and applies the
// defaults.
func (r *EngineRequest) UnmarshalJSON(data []byte) error {
	if err := requireKeys("EngineRequest", data, "product", "funnel", "fields"); err != nil {
		return err
	}
	set, err := presentKeys(data)
	if err != nil {
		return err
	}
	type plain EngineRequest
	p := plain{Documents: "[]"}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = EngineRequest(p)
	r.set = set
	return nil
}

func (r *EngineRequest) has(key string, nonZero bool) bool {
	if r.set == nil {
		return nonZero
	}
	return r.set[key]
}

// Validate checks every field.
func (r *EngineRequest) Validate() error {
	for i := range r.Fields {
		if err := r.Fields[i].Validate(); err != nil {
			return fmt.Errorf("fields[%d]: %w", i, err)
		}
	}
	return nil
}

// form encodes the request as form values. The fields list is sent as a
// JSON string with sorted object keys. With all, every member is sent with
// its default; otherwise members that were never set are left out, as a
// create call expects.
func (r *EngineRequest) form(all bool) (url.Values, error) {
	fields := make([]map[string]any, len(r.Fields))
	for i := range r.Fields {
		fields[i] = r.Fields[i].dump(all)
	}
	// Maps marshal with sorted keys.
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}

	v := url.Values{}
	v.Set("product", r.Product)
	v.Set("funnel", r.Funnel)
	v.Set("fields", string(raw))
	if all || r.has("documents", r.Documents != "") {
		docs := r.Documents
		if docs == "" {
			docs = "[]"
		}
		v.Set("documents", docs)
	}
	if all || r.has("documents_presign", r.DocumentsPresign) {
		v.Set("documents_presign", strconv.FormatBool(r.DocumentsPresign))
	}
	return v, nil
}
