package engine

import (
	"context"

	"github.com/haivivi/enginectl/pkg/dispatch"
)

// Bindings returns the parameter descriptors and call binding of every
// client method, including those NewRegistry filters out.
func Bindings() []dispatch.Endpoint[API] {
	return []dispatch.Endpoint[API]{
		{
			Name: "update_doc",
			Doc:  "Update a document's OCR pages and optional searchable PDF URL.",
			Params: []dispatch.Param{
				dispatch.Required("doc_id", dispatch.Int()),
				dispatch.Required("ocr_pages", dispatch.ListOf(dispatch.String())),
				dispatch.Optional("searchable_pdf", dispatch.String(), ""),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.UpdateDoc(ctx,
					dispatch.Arg[int](a, "doc_id"),
					dispatch.Arg[[]string](a, "ocr_pages"),
					dispatch.Arg[string](a, "searchable_pdf"))
			},
		},
		{
			Name: "update_doc_suggestions",
			Doc:  "Send AWS or agent classifier results for a document.",
			Params: []dispatch.Param{
				dispatch.Required("updates", dispatch.StructOf[ClassifierUpdates]("AwsClassifierResult | AgentClassifierWorkflowOutput")),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.UpdateDocSuggestions(ctx, dispatch.Arg[*ClassifierUpdates](a, "updates"))
			},
		},
		{
			Name:   "get_case_data_all",
			Doc:    "Fetch the raw case data of a request.",
			Params: caseDataParams(),
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.GetCaseDataAll(ctx,
					dispatch.Arg[int](a, "request_id"),
					dispatch.Arg[bool](a, "with_summary"),
					dispatch.Arg[bool](a, "with_wwm"))
			},
		},
		{
			Name:   "get_case_data",
			Doc:    "Fetch the case data of a request as CaseRawData.",
			Params: caseDataParams(),
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.GetCaseData(ctx,
					dispatch.Arg[int](a, "request_id"),
					dispatch.Arg[bool](a, "with_summary"),
					dispatch.Arg[bool](a, "with_wwm"))
			},
		},
		{
			Name: "health",
			Doc:  "Check the engine health endpoint.",
			Call: func(ctx context.Context, c API, _ dispatch.Args) (any, error) {
				return c.Health(ctx)
			},
		},
		{
			Name: "action_trigger",
			Doc:  "Action one trigger and print it with its resulting status.",
			Params: []dispatch.Param{
				dispatch.Required("engine_trigger", dispatch.StructOf[EngineTrigger]("EngineTrigger")),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.ActionTrigger(ctx, dispatch.Arg[*EngineTrigger](a, "engine_trigger"))
			},
		},
		{
			Name: "action_triggers",
			Doc:  "Action several triggers of a request concurrently.",
			Params: []dispatch.Param{
				dispatch.Required("request_id", dispatch.Int()),
				dispatch.Required("triggers", dispatch.ListOf(dispatch.StringMap())),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.ActionTriggers(ctx,
					dispatch.Arg[int](a, "request_id"),
					dispatch.Arg[[]map[string]string](a, "triggers"))
			},
		},
		{
			Name: "create_request",
			Doc:  "Create a data source request.",
			Params: []dispatch.Param{
				dispatch.Required("enginereq", dispatch.StructOf[EngineRequest]("EngineRequest")),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.CreateRequest(ctx, dispatch.Arg[*EngineRequest](a, "enginereq"))
			},
		},
		{
			Name: "update_request",
			Doc:  "Update an existing data source request.",
			Params: []dispatch.Param{
				dispatch.Required("request_id", dispatch.Int()),
				dispatch.Required("enginereq", dispatch.StructOf[EngineRequest]("EngineRequest")),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.UpdateRequest(ctx,
					dispatch.Arg[int](a, "request_id"),
					dispatch.Arg[*EngineRequest](a, "enginereq"))
			},
		},
		{
			Name: "update_insights",
			Doc:  "Send documents to the insights store.",
			Params: []dispatch.Param{
				dispatch.Required("docs", dispatch.StructOf[DocsResponse]("DocsResponse")),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.UpdateInsights(ctx, dispatch.Arg[*DocsResponse](a, "docs"))
			},
		},
		{
			Name: "scheduled_call_response",
			Doc:  "Forward a Telli call event for a scheduled call.",
			Params: []dispatch.Param{
				dispatch.Required("telli_event", dispatch.StructOf[TelliWebhook]("TelliWebhook")),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.ScheduledCallResponse(ctx, dispatch.Arg[*TelliWebhook](a, "telli_event"))
			},
		},
		{
			Name: "update_case_summary",
			Doc:  "Replace the case summaries of a request.",
			Params: []dispatch.Param{
				dispatch.Required("request_id", dispatch.Int()),
				dispatch.Required("summary", dispatch.ListOf(dispatch.StructOf[SummaryResponseOutput]("SummaryResponseOutput"))),
			},
			Call: func(ctx context.Context, c API, a dispatch.Args) (any, error) {
				return c.UpdateCaseSummary(ctx,
					dispatch.Arg[int](a, "request_id"),
					dispatch.Arg[[]SummaryResponseOutput](a, "summary"))
			},
		},
	}
}

func caseDataParams() []dispatch.Param {
	return []dispatch.Param{
		dispatch.Required("request_id", dispatch.Int()),
		dispatch.Optional("with_summary", dispatch.Bool(), false),
		dispatch.Optional("with_wwm", dispatch.Bool(), true),
	}
}

// NewRegistry returns the CLI-exposed endpoints: every binding with
// metadata in Endpoints that is not in Denylist.
func NewRegistry() (*dispatch.Registry[API], error) {
	return dispatch.NewRegistry(Bindings(), Meta(), Denylist...)
}
