package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// UpdateDoc stores the OCR text of a document and, if set, its searchable
// PDF URL.
func (c *Client) UpdateDoc(ctx context.Context, docID int, ocrPages []string, searchablePDF string) (bool, error) {
	if ocrPages == nil {
		ocrPages = []string{}
	}
	body := map[string]any{
		"document_id":        strconv.Itoa(docID),
		"ocr":                ocrPages,
		"searchable_pdf_url": searchablePDF,
	}
	if _, err := c.http.request(ctx, call{op: "update_doc", path: "/api/zieb/documents/ocr", json: body}, nil); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateDocSuggestions sends classifier results for a document.
func (c *Client) UpdateDocSuggestions(ctx context.Context, updates *ClassifierUpdates) (map[string]any, error) {
	if updates == nil {
		return nil, errors.New("engine: updates is required")
	}
	if err := updates.Validate(); err != nil {
		return nil, err
	}
	var result map[string]any
	_, err := c.http.request(ctx, call{
		op:   "update_doc_suggestions",
		path: "/api/zieb/documents/update_suggestions",
		json: updates,
	}, &result)
	return result, err
}

// GetCaseDataAll returns the raw case data of a request.
func (c *Client) GetCaseDataAll(ctx context.Context, requestID int, withSummary, withWWM bool) (map[string]any, error) {
	var result map[string]any
	_, err := c.http.request(ctx, call{
		op:    "get_case_data_all",
		path:  "/api/case_data",
		query: caseDataQuery(requestID, withSummary, withWWM),
	}, &result)
	return result, err
}

// GetCaseData returns the case data of a request decoded as CaseRawData.
func (c *Client) GetCaseData(ctx context.Context, requestID int, withSummary, withWWM bool) (*CaseRawData, error) {
	var result CaseRawData
	_, err := c.http.request(ctx, call{
		op:    "get_case_data",
		path:  "/api/case_data",
		query: caseDataQuery(requestID, withSummary, withWWM),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func caseDataQuery(requestID int, withSummary, withWWM bool) url.Values {
	return url.Values{
		"request_id":   {strconv.Itoa(requestID)},
		"with_summary": {strconv.FormatBool(withSummary)},
		"with_wwm":     {strconv.FormatBool(withWWM)},
	}
}

// Health reports whether the engine answers its health check with 200.
func (c *Client) Health(ctx context.Context) (bool, error) {
	status, err := c.http.request(ctx, call{
		op:      "health",
		path:    "/_health",
		timeout: c.config.healthTimeout,
	}, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

// ActionTrigger fires one action trigger and returns it with Status set
// from the response. The argument is not modified.
func (c *Client) ActionTrigger(ctx context.Context, trigger *EngineTrigger) (*EngineTrigger, error) {
	if trigger == nil {
		return nil, errors.New("engine: trigger is required")
	}
	if trigger.TriggerID == "" {
		return nil, errEmptyField("EngineTrigger", "trigger_id")
	}
	var status map[string]any
	_, err := c.http.request(ctx, call{
		op:              "action_trigger",
		path:            "/api/admin/action_triggers/" + url.PathEscape(trigger.TriggerID),
		query:           trigger.query(),
		formContentType: true,
	}, &status)
	if err != nil {
		return nil, err
	}
	out := *trigger
	out.Status = status
	return &out, nil
}

// CreateRequest creates a data source request. Only the members set on req
// are sent.
func (c *Client) CreateRequest(ctx context.Context, req *EngineRequest) (any, error) {
	if req == nil {
		return nil, errors.New("engine: request is required")
	}
	form, err := req.form(false)
	if err != nil {
		return nil, err
	}
	var result any
	_, err = c.http.request(ctx, call{op: "create_request", path: "/api/admin/data_source", form: form}, &result)
	return result, err
}

// UpdateRequest updates an existing data source request. Every member is
// sent, defaults included.
func (c *Client) UpdateRequest(ctx context.Context, requestID int, req *EngineRequest) (any, error) {
	if req == nil {
		return nil, errors.New("engine: request is required")
	}
	form, err := req.form(true)
	if err != nil {
		return nil, err
	}
	form.Set("request_id", strconv.Itoa(requestID))
	var result any
	_, err = c.http.request(ctx, call{op: "update_request", path: "/api/admin/data_source", form: form}, &result)
	return result, err
}

// UpdateInsights sends documents to the insights store.
func (c *Client) UpdateInsights(ctx context.Context, docs *DocsResponse) (map[string]any, error) {
	if docs == nil {
		return nil, errors.New("engine: docs is required")
	}
	var result map[string]any
	_, err := c.http.request(ctx, call{op: "update_insights", path: "/api/insights", json: docs}, &result)
	return result, err
}

// ScheduledCallResponse forwards a Telli call event for a scheduled call.
func (c *Client) ScheduledCallResponse(ctx context.Context, event *TelliWebhook) (map[string]any, error) {
	if event == nil {
		return nil, errors.New("engine: event is required")
	}
	var result map[string]any
	_, err := c.http.request(ctx, call{
		op:   "scheduled_call_response",
		path: "/api/scheduled_call_response",
		json: event,
	}, &result)
	return result, err
}

// UpdateCaseSummary replaces the case summaries of a request.
func (c *Client) UpdateCaseSummary(ctx context.Context, requestID int, summary []SummaryResponseOutput) (map[string]any, error) {
	if summary == nil {
		summary = []SummaryResponseOutput{}
	}
	var result map[string]any
	_, err := c.http.request(ctx, call{
		op:   "update_case_summary",
		path: fmt.Sprintf("/api/case_summaries/%d", requestID),
		json: summary,
	}, &result)
	return result, err
}
