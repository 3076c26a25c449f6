package engine

import (
	"github.com/google/uuid"

	"github.com/haivivi/enginectl/pkg/jsontime"
)

// WithContentMode selects which part of a document is returned.
type WithContentMode string

const (
	ContentFull    WithContentMode = "full"
	ContentChunk   WithContentMode = "chunk"
	ContentSummary WithContentMode = "summary"
	ContentNone    WithContentMode = "none"
)

// VectorDB selects the vector store backing a docs query.
type VectorDB string

const (
	VectorDBOpenAI VectorDB = "openai"
	VectorDBQdrant VectorDB = "qdrant"
	VectorDBNone   VectorDB = "none"
)

// OutputFormat is the docs query result format.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputJSON     OutputFormat = "json"
)

// Content is one document returned by a docs query.
type Content struct {
	Metadata map[string]any  `json:"metadata,omitempty"`
	Summary  string          `json:"summary,omitempty"`
	Full     string          `json:"full,omitempty"`
	Chunk    string          `json:"chunk,omitempty"`
	Title    string          `json:"title,omitempty"`
	Descr    string          `json:"descr,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
	Lang     string          `json:"lang,omitempty"`
	Mode     WithContentMode `json:"mode,omitempty"`

	Extra map[string]any `json:"-"`
}

func (c *Content) UnmarshalJSON(data []byte) error {
	type plain Content
	return decodeExtra(data, (*plain)(c), &c.Extra)
}

func (c Content) MarshalJSON() ([]byte, error) {
	type plain Content
	return encodeExtra(plain(c), c.Extra)
}

// DocsQuery is the query that produced a DocsResponse.
type DocsQuery struct {
	Limit          int                `json:"limit"`
	Mode           WithContentMode    `json:"mode,omitempty"`
	VectorDB       VectorDB           `json:"vectordb,omitempty"`
	Keys           [][]any            `json:"keys,omitempty"`
	CollectionID   *uuid.UUID         `json:"collection_id,omitempty"`
	CollectionName string             `json:"collection_name,omitempty"`
	IDs            [][]any            `json:"ids,omitempty"`
	Output         OutputFormat       `json:"output,omitempty"`
	DateLt         *jsontime.DateTime `json:"date_lt,omitempty"`
	DateGt         *jsontime.DateTime `json:"date_gt,omitempty"`
	Filters        map[string]any     `json:"filters,omitempty"`

	Extra map[string]any `json:"-"`
}

// DefaultDocsQuery returns a query with the backend defaults.
func DefaultDocsQuery() DocsQuery {
	return DocsQuery{
		Limit:    100,
		Mode:     ContentSummary,
		VectorDB: VectorDBNone,
		Output:   OutputJSON,
	}
}

// UnmarshalJSON applies DefaultDocsQuery before decoding.
func (q *DocsQuery) UnmarshalJSON(data []byte) error {
	type plain DocsQuery
	p := plain(DefaultDocsQuery())
	if err := decodeExtra(data, &p, &p.Extra); err != nil {
		return err
	}
	*q = DocsQuery(p)
	return nil
}

func (q DocsQuery) MarshalJSON() ([]byte, error) {
	type plain DocsQuery
	return encodeExtra(plain(q), q.Extra)
}

// DocsResponse is a set of documents and the query that found them.
type DocsResponse struct {
	Docs  []Content `json:"docs,omitempty"`
	Query DocsQuery `json:"query"`

	Extra map[string]any `json:"-"`
}

func (r *DocsResponse) UnmarshalJSON(data []byte) error {
	if err := requireKeys("DocsResponse", data, "query"); err != nil {
		return err
	}
	type plain DocsResponse
	return decodeExtra(data, (*plain)(r), &r.Extra)
}

func (r DocsResponse) MarshalJSON() ([]byte, error) {
	type plain DocsResponse
	return encodeExtra(plain(r), r.Extra)
}

// TelliWebhook is a call event delivered by the Telli voice agent. Only the
// event name is interpreted; every other member is forwarded unchanged.
type TelliWebhook struct {
	Event string `json:"event"`

	Extra map[string]any `json:"-"`
}

func (w *TelliWebhook) UnmarshalJSON(data []byte) error {
	if err := requireKeys("TelliWebhook", data, "event"); err != nil {
		return err
	}
	type plain TelliWebhook
	return decodeExtra(data, (*plain)(w), &w.Extra)
}

func (w TelliWebhook) MarshalJSON() ([]byte, error) {
	type plain TelliWebhook
	return encodeExtra(plain(w), w.Extra)
}

// Validate checks the event name is set.
func (w *TelliWebhook) Validate() error {
	if w.Event == "" {
		return errEmptyField("TelliWebhook", "event")
	}
	return nil
}
