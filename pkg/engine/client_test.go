package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/haivivi/enginectl/pkg/dispatch"
)

type captured struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type fakeEngine struct {
	t      *testing.T
	mu     sync.Mutex
	calls  []captured
	status int
	reply  string
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, captured{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	status, reply := f.status, f.reply
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeEngine) last() captured {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newTestClient(t *testing.T, f *fakeEngine, opts ...Option) *Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "default-token", opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_Headers(t *testing.T) {
	f := &fakeEngine{reply: `{}`}
	c := newTestClient(t, f, WithUserAgent("enginectl/engine-1.2.3"))

	ok, err := c.UpdateDoc(context.Background(), 7, []string{"page one", "page two"}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	got := f.last()
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/zieb/documents/ocr", got.Path)
	assert.Equal(t, "*/*", got.Header.Get("Accept"))
	assert.Equal(t, "default-token", got.Header.Get("token"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "enginectl/engine-1.2.3", got.Header.Get("User-Agent"))
	assert.Len(t, got.Header.Get("X-Request-Id"), 36)
	assert.JSONEq(t, `{"document_id":"7","ocr":["page one","page two"],"searchable_pdf_url":""}`, string(got.Body))
}

func TestClient_TokenPreference(t *testing.T) {
	tests := []struct {
		name   string
		tokens map[TokenName]string
		call   func(*Client) error
		want   string
	}{
		{
			name:   "first preference",
			tokens: map[TokenName]string{TokenZieb: "zieb-token", TokenAdmin: "admin-token"},
			call: func(c *Client) error {
				_, err := c.GetCaseDataAll(context.Background(), 1, false, true)
				return err
			},
			want: "zieb-token",
		},
		{
			name:   "second preference",
			tokens: map[TokenName]string{TokenAdmin: "admin-token"},
			call: func(c *Client) error {
				_, err := c.GetCaseDataAll(context.Background(), 1, false, true)
				return err
			},
			want: "admin-token",
		},
		{
			name:   "empty named token falls back",
			tokens: map[TokenName]string{TokenAdmin: ""},
			call: func(c *Client) error {
				_, err := c.UpdateInsights(context.Background(), &DocsResponse{Query: DefaultDocsQuery()})
				return err
			},
			want: "default-token",
		},
		{
			name:   "no preference uses default",
			tokens: map[TokenName]string{TokenAdmin: "admin-token"},
			call: func(c *Client) error {
				_, err := c.Health(context.Background())
				return err
			},
			want: "default-token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeEngine{reply: `{}`}
			c := newTestClient(t, f, WithTokens(tt.tokens))
			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.want, f.last().Header.Get("token"))
		})
	}
}

func TestClient_NoToken(t *testing.T) {
	f := &fakeEngine{reply: `{}`}
	c := newTestClient(t, f)
	c.SetToken("")
	assert.Equal(t, "", c.Token())

	_, err := c.Health(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
	assert.Empty(t, f.calls)

	c.SetToken("rotated")
	_, err = c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", f.last().Header.Get("token"))
}

func TestClient_GetCaseData(t *testing.T) {
	f := &fakeEngine{reply: `{
		"address": {"city": "Berlin"},
		"court_data": [{"id": 1}],
		"summaries": [{"summary_type": "case", "payload": {"summary": "s", "timeline": "t", "extra_key": 1}}],
		"attributes": {
			"rent": {"amount": {"value": 850, "is_positive": "yes"}},
			"flags": [{"name": "late", "contested": "maybe"}]
		},
		"ignored": true
	}`}
	c := newTestClient(t, f)

	data, err := c.GetCaseData(context.Background(), 42, true, false)
	require.NoError(t, err)

	got := f.last()
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/case_data", got.Path)
	assert.Equal(t, "42", got.Query.Get("request_id"))
	assert.Equal(t, "true", got.Query.Get("with_summary"))
	assert.Equal(t, "false", got.Query.Get("with_wwm"))

	assert.Equal(t, "Berlin", data.Address["city"])
	require.Len(t, data.Summaries, 1)
	assert.Equal(t, "s", data.Summaries[0].Payload.Summary)
	assert.Equal(t, float64(1), data.Summaries[0].Payload.Extra["extra_key"])

	require.Len(t, data.Attributes["rent"], 1)
	rent := data.Attributes["rent"][0]
	assert.Equal(t, "amount", rent.Name)
	assert.Nil(t, rent.IsPositive)
	assert.Equal(t, float64(850), rent.Value)
	assert.True(t, rent.Contested)

	require.Len(t, data.Attributes["flags"], 1)
	assert.True(t, data.Attributes["flags"][0].Contested)
}

func TestClient_Health(t *testing.T) {
	f := &fakeEngine{status: http.StatusNoContent}
	c := newTestClient(t, f)
	ok, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	f.status = http.StatusOK
	ok, err = c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/_health", f.last().Path)
}

func TestClient_ActionTrigger(t *testing.T) {
	f := &fakeEngine{reply: `{"result":"ok"}`}
	c := newTestClient(t, f, WithTokens(map[TokenName]string{TokenAdmin: "admin-token"}))

	rid := 5
	in := &EngineTrigger{TriggerID: "tid 1", Name: "n", RequestID: &rid, Client: "cli", Attempt: 2}
	out, err := c.ActionTrigger(context.Background(), in)
	require.NoError(t, err)

	got := f.last()
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/api/admin/action_triggers/tid 1", got.Path)
	assert.Equal(t, url.Values{"request_id": {"5"}, "client": {"cli"}, "attempt": {"2"}}, got.Query)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	assert.Equal(t, "admin-token", got.Header.Get("token"))
	assert.Empty(t, got.Body)

	assert.Equal(t, map[string]any{"result": "ok"}, out.Status)
	assert.Nil(t, in.Status)
}

func TestClient_ActionTriggers(t *testing.T) {
	f := &fakeEngine{reply: `{"result":"ok"}`}
	c := newTestClient(t, f)

	out, err := c.ActionTriggers(context.Background(), 9, []map[string]string{
		{"name": "trigger1", "trigger_id": "tid1"},
		{"name": "trigger2", "trigger_id": "tid2", "attempt": "3"},
		{"name": "trigger3", "trigger_id": "tid3", "attempt": "4"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, want := range []struct {
		id      string
		attempt int
	}{{"tid1", 1}, {"tid2", 3}, {"tid3", 4}} {
		assert.Equal(t, want.id, out[i].TriggerID)
		assert.Equal(t, want.attempt, out[i].Attempt)
		assert.Equal(t, 9, *out[i].RequestID)
		assert.Equal(t, DefaultTriggerClient, out[i].Client)
		assert.Equal(t, map[string]any{"result": "ok"}, out[i].Status)
	}

	var paths []string
	for _, call := range f.calls {
		paths = append(paths, call.Path)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{
		"/api/admin/action_triggers/tid1",
		"/api/admin/action_triggers/tid2",
		"/api/admin/action_triggers/tid3",
	}, paths)
}

func TestClient_ActionTriggersInvalid(t *testing.T) {
	f := &fakeEngine{}
	c := newTestClient(t, f)

	_, err := c.ActionTriggers(context.Background(), 1, []map[string]string{{"name": "x"}})
	assert.ErrorContains(t, err, "trigger_id")
	_, err = c.ActionTriggers(context.Background(), 1, []map[string]string{{"trigger_id": "a", "attempt": "two"}})
	assert.ErrorContains(t, err, "invalid attempt")
	assert.Empty(t, f.calls)
}

func TestFanOut_FirstFailureWins(t *testing.T) {
	var fired atomic.Int32
	boom := errors.New("boom")
	pending, err := buildTriggers(1, []map[string]string{
		{"trigger_id": "a"}, {"trigger_id": "b"}, {"trigger_id": "c"},
	})
	require.NoError(t, err)

	out, err := fanOut(context.Background(), pending, func(ctx context.Context, trig *EngineTrigger) (*EngineTrigger, error) {
		fired.Add(1)
		if trig.TriggerID == "b" {
			return nil, boom
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, out)
	assert.Equal(t, int32(3), fired.Load())
}

func TestClient_CreateAndUpdateRequest(t *testing.T) {
	f := &fakeEngine{reply: `{"status":"updated"}`}
	c := newTestClient(t, f)

	req := &EngineRequest{
		Product: "prod_a",
		Funnel:  "funnel_b",
		Fields:  []EngineField{{Field: "field1", Answer: "value1"}},
	}

	res, err := c.UpdateRequest(context.Background(), 77, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "updated"}, res)

	got := f.last()
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	form, err := url.ParseQuery(string(got.Body))
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"product":           {"prod_a"},
		"funnel":            {"funnel_b"},
		"fields":            {`[{"answer":"value1","field":"field1","type":"string"}]`},
		"documents":         {"[]"},
		"documents_presign": {"false"},
		"request_id":        {"77"},
	}, form)

	_, err = c.CreateRequest(context.Background(), req)
	require.NoError(t, err)
	got = f.last()
	assert.Equal(t, http.MethodPost, got.Method)
	form, err = url.ParseQuery(string(got.Body))
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"product": {"prod_a"},
		"funnel":  {"funnel_b"},
		"fields":  {`[{"answer":"value1","field":"field1"}]`},
	}, form)
}

func TestClient_RequestFormsFromDecodedInput(t *testing.T) {
	f := &fakeEngine{reply: `{}`}
	c := newTestClient(t, f)

	var req EngineRequest
	require.NoError(t, json.Unmarshal([]byte(`{"product":"p","funnel":"f","fields":[{"field":"name"}]}`), &req))

	_, err := c.UpdateRequest(context.Background(), 5, &req)
	require.NoError(t, err)
	form, err := url.ParseQuery(string(f.last().Body))
	require.NoError(t, err)
	assert.Equal(t, `[{"answer":null,"field":"name","type":"string"}]`, form.Get("fields"))
	assert.Equal(t, "[]", form.Get("documents"))
	assert.Equal(t, "false", form.Get("documents_presign"))
	assert.Equal(t, "5", form.Get("request_id"))

	_, err = c.CreateRequest(context.Background(), &req)
	require.NoError(t, err)
	form, err = url.ParseQuery(string(f.last().Body))
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"product": {"p"},
		"funnel":  {"f"},
		"fields":  {`[{"field":"name"}]`},
	}, form)
}

func TestClient_UpdateInsights(t *testing.T) {
	f := &fakeEngine{reply: `{"message":"Insights updated"}`}
	c := newTestClient(t, f)

	var docs DocsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"docs":[{"metadata":{"doc_id":"doc1"},"full":"content1"}],"query":{}}`), &docs))

	res, err := c.UpdateInsights(context.Background(), &docs)
	require.NoError(t, err)
	assert.Equal(t, "Insights updated", res["message"])
	assert.JSONEq(t, `{
		"docs": [{"metadata": {"doc_id": "doc1"}, "full": "content1"}],
		"query": {"limit": 100, "mode": "summary", "vectordb": "none", "output": "json"}
	}`, string(f.last().Body))
}

func TestClient_UpdateCaseSummary(t *testing.T) {
	f := &fakeEngine{reply: `{"ok":true}`}
	c := newTestClient(t, f)

	_, err := c.UpdateCaseSummary(context.Background(), 12, []SummaryResponseOutput{{Summary: "s", Timeline: "t"}})
	require.NoError(t, err)
	got := f.last()
	assert.Equal(t, "/api/case_summaries/12", got.Path)
	assert.JSONEq(t, `[{"summary":"s","timeline":"t"}]`, string(got.Body))
}

func TestClient_ErrorResponse(t *testing.T) {
	f := &fakeEngine{status: http.StatusBadRequest, reply: `{"error":"bad input"}`}
	c := newTestClient(t, f)

	_, err := c.ScheduledCallResponse(context.Background(), &TelliWebhook{Event: "call_ended"})
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Bad Request", apiErr.StatusMessage())
	assert.Equal(t, `{"error":"bad input"}`, apiErr.BodySnippet())
	assert.False(t, apiErr.Retryable())

	var remote dispatch.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadRequest, remote.HTTPStatus())
}

func TestClient_ErrorBodyKeepsRunes(t *testing.T) {
	body := strings.Repeat("a", maxBodySnippet-1) + strings.Repeat("é", 8)
	f := &fakeEngine{status: http.StatusInternalServerError, reply: body}
	c := newTestClient(t, f)

	_, err := c.ScheduledCallResponse(context.Background(), &TelliWebhook{Event: "call_ended"})
	apiErr, ok := AsError(err)
	require.True(t, ok)

	got := apiErr.BodySnippet()
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxBodySnippet-1), got)

	short := strings.Repeat("é", 10)
	assert.Equal(t, short, snippet([]byte(short)))
}

func TestClient_RetryGET(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"a":1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithRetry(1))
	defer c.Close()

	res, err := c.GetCaseDataAll(context.Background(), 1, false, true)
	require.NoError(t, err)
	assert.Equal(t, float64(1), res["a"])
	assert.Equal(t, int32(2), n.Load())
}

func TestClient_NoRetryForPOST(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithRetry(3))
	defer c.Close()

	_, err := c.UpdateDoc(context.Background(), 1, nil, "")
	require.Error(t, err)
	assert.Equal(t, int32(1), n.Load())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithHealthTimeout(50*time.Millisecond))
	defer c.Close()

	_, err := c.Health(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Close(t *testing.T) {
	f := &fakeEngine{reply: `{}`}
	c := newTestClient(t, f)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Health(context.Background())
	require.ErrorIs(t, err, ErrClientClosed)
	assert.Empty(t, f.calls)
}

func TestClient_Spans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	f := &fakeEngine{status: http.StatusNotFound}
	c := newTestClient(t, f, WithTracerProvider(tp))

	_, err := c.GetCaseDataAll(context.Background(), 3, false, true)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "engine.get_case_data_all", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())

	var status int64
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "http.response.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(http.StatusNotFound), status)
}
