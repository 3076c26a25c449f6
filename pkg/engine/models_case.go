package engine

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// CaseRawDataInformation holds the per-topic information blocks of a case.
type CaseRawDataInformation struct {
	Generic       map[string]any `json:"generic"`
	HearingReport map[string]any `json:"hearing_report"`
	CourtResult   map[string]any `json:"court_result"`
	RentIndex     map[string]any `json:"rent_index"`
	KFA           map[string]any `json:"kfa"`
	KFB           map[string]any `json:"kfb"`
}

// SummaryResponse is a generated case summary.
type SummaryResponse struct {
	Timeline         string   `json:"timeline"`
	Summary          string   `json:"summary"`
	SummaryChanges   []string `json:"summary_changes,omitempty"`
	TimelineChanges  []string `json:"timeline_changes,omitempty"`
	LastDocumentID   *string  `json:"last_document_id,omitempty"`
	LastDocumentDate *string  `json:"last_document_date,omitempty"`

	Extra map[string]any `json:"-"`
}

// SummaryResponseOutput is the summary shape produced by the summary agent
// and accepted by UpdateCaseSummary.
type SummaryResponseOutput = SummaryResponse

func (s *SummaryResponse) UnmarshalJSON(data []byte) error {
	type plain SummaryResponse
	return decodeExtra(data, (*plain)(s), &s.Extra)
}

func (s SummaryResponse) MarshalJSON() ([]byte, error) {
	type plain SummaryResponse
	return encodeExtra(plain(s), s.Extra)
}

// Summary is one typed summary attached to a case.
type Summary struct {
	SummaryType string          `json:"summary_type"`
	Payload     SummaryResponse `json:"payload"`

	Extra map[string]any `json:"-"`
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	if err := requireKeys("Summary", data, "summary_type", "payload"); err != nil {
		return err
	}
	type plain Summary
	return decodeExtra(data, (*plain)(s), &s.Extra)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return encodeExtra(plain(s), s.Extra)
}

// RelationToolAttribute is one scored attribute of a case.
type RelationToolAttribute struct {
	IsPositive  *bool             `json:"is_positive"`
	Description string            `json:"description"`
	Contested   bool              `json:"contested"`
	Value       any               `json:"value"`
	Metadata    map[string]string `json:"metadata"`
	Name        string            `json:"name"`
}

// UnmarshalJSON drops a non-boolean is_positive and reads a non-boolean
// contested as true.
func (a *RelationToolAttribute) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if v, ok := obj["is_positive"]; ok && !isJSONBool(v) {
		delete(obj, "is_positive")
	}
	if v, ok := obj["contested"]; ok && !isJSONBool(v) {
		obj["contested"] = json.RawMessage("true")
	}
	if _, ok := obj["name"]; !ok {
		return fmt.Errorf("RelationToolAttribute: missing required field(s): name")
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	type plain RelationToolAttribute
	p := plain{Contested: true, Metadata: map[string]string{}}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch p.Value.(type) {
	case nil, string, bool, float64:
	default:
		return fmt.Errorf("RelationToolAttribute %q: value must be a scalar", p.Name)
	}
	*a = RelationToolAttribute(p)
	return nil
}

func isJSONBool(v json.RawMessage) bool {
	s := string(v)
	return s == "true" || s == "false"
}

// CaseRawData is the raw data of a case as returned by the case data
// endpoint.
type CaseRawData struct {
	Address        map[string]any                     `json:"address"`
	User           map[string]any                     `json:"user"`
	Contact        map[string]any                     `json:"contact"`
	CourtData      any                                `json:"court_data"`
	Counterparties []map[string]any                   `json:"counterparties"`
	Information    *CaseRawDataInformation            `json:"information"`
	Summaries      []Summary                          `json:"summaries"`
	Attributes     map[string][]RelationToolAttribute `json:"attributes"`
}

// ModelName implements dispatch.Model.
func (CaseRawData) ModelName() string { return "CaseRawData" }

// UnmarshalJSON normalizes attributes: a category given as an object keyed
// by attribute name becomes a list, each entry named after its key unless
// it already carries a name.
func (c *CaseRawData) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if raw, ok := obj["attributes"]; ok {
		normalized, err := normalizeAttributes(raw)
		if err != nil {
			return err
		}
		obj["attributes"] = normalized
		if data, err = json.Marshal(obj); err != nil {
			return err
		}
	}

	type plain CaseRawData
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch p.CourtData.(type) {
	case nil, []any, map[string]any:
	default:
		return fmt.Errorf("CaseRawData: court_data must be a list or an object")
	}
	if p.Attributes == nil {
		p.Attributes = map[string][]RelationToolAttribute{}
	}
	*c = CaseRawData(p)
	return nil
}

func normalizeAttributes(raw json.RawMessage) (json.RawMessage, error) {
	var cats map[string]json.RawMessage
	if err := json.Unmarshal(raw, &cats); err != nil {
		// Not an object; leave it for the typed decode to reject.
		return raw, nil
	}
	for cat, v := range cats {
		var byName map[string]map[string]any
		if err := json.Unmarshal(v, &byName); err != nil {
			continue
		}
		list := make([]map[string]any, 0, len(byName))
		for _, name := range slices.Sorted(maps.Keys(byName)) {
			attr := byName[name]
			if attr == nil {
				attr = map[string]any{}
			}
			if _, ok := attr["name"]; !ok {
				attr["name"] = name
			}
			list = append(list, attr)
		}
		data, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		cats[cat] = data
	}
	return json.Marshal(cats)
}
