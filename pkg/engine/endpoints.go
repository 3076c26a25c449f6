package engine

import "github.com/haivivi/enginectl/pkg/dispatch"

// TokenName identifies a named credential in the configuration.
type TokenName string

const (
	TokenAdmin         TokenName = "admin"
	TokenZieb          TokenName = "zieb"
	TokenCreator       TokenName = "creator"
	TokenConcierge     TokenName = "concierge"
	TokenMailProcessor TokenName = "mail_processor"
	TokenFrontend      TokenName = "frontend"
	TokenDCA           TokenName = "dca"
	TokenDocx          TokenName = "docx"
	TokenAccounting    TokenName = "accounting"
	TokenBEA           TokenName = "bea"
)

// TokenNames lists every known credential name.
var TokenNames = []TokenName{
	TokenAdmin, TokenZieb, TokenCreator, TokenConcierge, TokenMailProcessor,
	TokenFrontend, TokenDCA, TokenDocx, TokenAccounting, TokenBEA,
}

// Endpoint is the backend metadata of one client method.
type Endpoint struct {
	Path   string
	Method string
	Tokens []TokenName
}

// Endpoints maps each client method identifier to its backend path, verb and
// credential preference order.
var Endpoints = map[string]Endpoint{
	"update_doc": {
		Path: "/api/zieb/documents/ocr", Method: "POST",
		Tokens: []TokenName{TokenZieb, TokenAdmin},
	},
	"update_doc_suggestions": {
		Path: "/api/zieb/documents/update_suggestions", Method: "POST",
		Tokens: []TokenName{TokenZieb, TokenAdmin},
	},
	"get_case_data_all": {
		Path: "/api/case_data", Method: "GET",
		Tokens: []TokenName{TokenZieb, TokenAdmin},
	},
	"get_case_data": {
		Path: "/api/case_data", Method: "GET",
		Tokens: []TokenName{TokenZieb, TokenAdmin},
	},
	"health": {
		Path: "/_health", Method: "GET",
	},
	"action_trigger": {
		Path: "/api/admin/action_triggers/{trigger_id}", Method: "PUT",
		Tokens: []TokenName{TokenAdmin},
	},
	"create_request": {
		Path: "/api/admin/data_source", Method: "POST",
		Tokens: []TokenName{TokenAdmin},
	},
	"update_request": {
		Path: "/api/admin/data_source", Method: "PUT",
		Tokens: []TokenName{TokenAdmin},
	},
	"update_insights": {
		Path: "/api/insights", Method: "POST",
		Tokens: []TokenName{TokenZieb, TokenAdmin},
	},
	"scheduled_call_response": {
		Path: "/api/scheduled_call_response", Method: "POST",
		Tokens: []TokenName{TokenAdmin},
	},
	"update_case_summary": {
		Path: "/api/case_summaries/{request_id}", Method: "POST",
		Tokens: []TokenName{TokenAdmin},
	},
}

// Denylist names client methods that are never exposed as commands, even
// when they carry metadata.
var Denylist = []string{
	"set_token",
	"token",
	"headers",
	"close",
	"log_request",
	"action_triggers",
}

// Meta converts Endpoints to the registry metadata form.
func Meta() map[string]dispatch.Meta {
	out := make(map[string]dispatch.Meta, len(Endpoints))
	for name, e := range Endpoints {
		tokens := make([]string, 0, len(e.Tokens))
		for _, t := range e.Tokens {
			tokens = append(tokens, string(t))
		}
		out[name] = dispatch.Meta{Path: e.Path, Method: e.Method, Tokens: tokens}
	}
	return out
}
