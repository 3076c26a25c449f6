package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/haivivi/enginectl/pkg/jsontime"
)

// AwsPrediction is one class score from an AWS Comprehend classifier.
type AwsPrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// UnmarshalJSON accepts the AWS member names Name and Score.
func (p *AwsPrediction) UnmarshalJSON(data []byte) error {
	data, err := canonicalize(data, map[string]string{"Name": "label", "Score": "score"})
	if err != nil {
		return err
	}
	if err := requireKeys("AwsPrediction", data, "label", "score"); err != nil {
		return err
	}
	type plain AwsPrediction
	return json.Unmarshal(data, (*plain)(p))
}

// AwsJobDescribe describes an AWS classification job.
type AwsJobDescribe struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Arn           string            `json:"arn"`
	Status        string            `json:"status"`
	SubmitTime    jsontime.DateTime `json:"submit_time"`
	EndTime       jsontime.DateTime `json:"end_time"`
	ClassifierArn string            `json:"classifier_arn"`
	InputData     map[string]any    `json:"input_data"`
	OutputData    map[string]any    `json:"output_data"`
	RoleArn       string            `json:"role_arn"`
	Tags          map[string]string `json:"tags"`
}

var awsJobAliases = map[string]string{
	"JobId":                 "id",
	"JobArn":                "arn",
	"JobStatus":             "status",
	"SubmitTime":            "submit_time",
	"EndTime":               "end_time",
	"DocumentClassifierArn": "classifier_arn",
	"InputDataConfig":       "input_data",
	"OutputDataConfig":      "output_data",
	"DataAccessRoleArn":     "role_arn",
	"Tags":                  "tags",
}

// UnmarshalJSON accepts the AWS DescribeDocumentClassificationJob member
// names. Missing times default to now.
func (j *AwsJobDescribe) UnmarshalJSON(data []byte) error {
	data, err := canonicalize(data, awsJobAliases)
	if err != nil {
		return err
	}
	type plain AwsJobDescribe
	now := jsontime.Now()
	p := plain{
		SubmitTime: now,
		EndTime:    now,
		InputData:  map[string]any{},
		OutputData: map[string]any{},
		Tags:       map[string]string{},
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*j = AwsJobDescribe(p)
	return nil
}

// AwsInference is the classifier output for one input line.
type AwsInference struct {
	InputS3    string          `json:"input_s3"`
	OutputS3   string          `json:"output_s3"`
	Line       string          `json:"line"`
	Classes    []AwsPrediction `json:"classes"`
	DocumentID string          `json:"document_id"`
	Expected   string          `json:"expected"`
	Model      string          `json:"model"`
}

// UnmarshalJSON accepts the capitalized AWS member names.
func (i *AwsInference) UnmarshalJSON(data []byte) error {
	data, err := canonicalize(data, map[string]string{
		"Line":       "line",
		"Classes":    "classes",
		"DocumentId": "document_id",
		"Expected":   "expected",
	})
	if err != nil {
		return err
	}
	if err := requireKeys("AwsInference", data, "line", "classes"); err != nil {
		return err
	}
	type plain AwsInference
	return json.Unmarshal(data, (*plain)(i))
}

// AwsClassifierResult is a finished AWS classification job with its
// inferences.
type AwsClassifierResult struct {
	Job       AwsJobDescribe `json:"job"`
	Inference []AwsInference `json:"inference"`
	Model     string         `json:"model"`
}

// UnmarshalJSON checks the required members and defaults the model name.
func (r *AwsClassifierResult) UnmarshalJSON(data []byte) error {
	if err := requireKeys("AwsClassifierResult", data, "job", "inference"); err != nil {
		return err
	}
	type plain AwsClassifierResult
	p := plain{Model: "unknown"}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = AwsClassifierResult(p)
	return nil
}

// ClassificationRentalScore is one scored category.
type ClassificationRentalScore struct {
	Category        string  `json:"category"`
	Reasoning       string  `json:"reasoning"`
	ConfidenceScore float64 `json:"confidence_score"`

	Extra map[string]any `json:"-"`
}

func (s *ClassificationRentalScore) UnmarshalJSON(data []byte) error {
	if err := requireKeys("ClassificationRentalScore", data, "category", "reasoning", "confidence_score"); err != nil {
		return err
	}
	type plain ClassificationRentalScore
	return decodeExtra(data, (*plain)(s), &s.Extra)
}

func (s ClassificationRentalScore) MarshalJSON() ([]byte, error) {
	type plain ClassificationRentalScore
	return encodeExtra(plain(s), s.Extra)
}

// ClassificationRentalResponse is the agent classifier verdict.
type ClassificationRentalResponse struct {
	Classification ClassificationRentalScore   `json:"classification"`
	NextCategories []ClassificationRentalScore `json:"next_categories,omitempty"`

	Extra map[string]any `json:"-"`
}

func (r *ClassificationRentalResponse) UnmarshalJSON(data []byte) error {
	if err := requireKeys("ClassificationRentalResponse", data, "classification"); err != nil {
		return err
	}
	type plain ClassificationRentalResponse
	return decodeExtra(data, (*plain)(r), &r.Extra)
}

func (r ClassificationRentalResponse) MarshalJSON() ([]byte, error) {
	type plain ClassificationRentalResponse
	return encodeExtra(plain(r), r.Extra)
}

// AgentRunCost is the resource usage of an agent workflow run.
type AgentRunCost struct {
	TotalTokens int     `json:"total_tokens"`
	TotalTime   float64 `json:"total_time"`
	TotalCost   float64 `json:"total_cost"`
}

// WorkflowInfo identifies an agent workflow.
type WorkflowInfo struct {
	Name string `json:"name"`
	WID  string `json:"wid"`
}

// AgentClassifierWorkflowOutput is the result of the agent classifier
// workflow.
type AgentClassifierWorkflowOutput struct {
	Result       ClassificationRentalResponse `json:"result"`
	Metadata     map[string]any               `json:"metadata,omitempty"`
	Cost         *AgentRunCost                `json:"cost,omitempty"`
	WorkflowInfo *WorkflowInfo                `json:"workflow_info,omitempty"`

	Extra map[string]any `json:"-"`
}

func (o *AgentClassifierWorkflowOutput) UnmarshalJSON(data []byte) error {
	if err := requireKeys("AgentClassifierWorkflowOutput", data, "result"); err != nil {
		return err
	}
	type plain AgentClassifierWorkflowOutput
	return decodeExtra(data, (*plain)(o), &o.Extra)
}

func (o AgentClassifierWorkflowOutput) MarshalJSON() ([]byte, error) {
	type plain AgentClassifierWorkflowOutput
	return encodeExtra(plain(o), o.Extra)
}

// ClassifierUpdates holds exactly one of the two classifier result shapes
// accepted by UpdateDocSuggestions.
type ClassifierUpdates struct {
	AWS   *AwsClassifierResult
	Agent *AgentClassifierWorkflowOutput
}

// UnmarshalJSON decodes the first shape that fits: an AWS result when the
// object has job and inference, else an agent workflow output.
func (u *ClassifierUpdates) UnmarshalJSON(data []byte) error {
	var aws AwsClassifierResult
	awsErr := json.Unmarshal(data, &aws)
	if awsErr == nil {
		*u = ClassifierUpdates{AWS: &aws}
		return nil
	}
	var agent AgentClassifierWorkflowOutput
	agentErr := json.Unmarshal(data, &agent)
	if agentErr == nil {
		*u = ClassifierUpdates{Agent: &agent}
		return nil
	}
	return fmt.Errorf("ClassifierUpdates: %w: %w; %w", errUnionNoMatch, awsErr, agentErr)
}

// MarshalJSON encodes whichever shape is set.
func (u ClassifierUpdates) MarshalJSON() ([]byte, error) {
	switch {
	case u.AWS != nil:
		return json.Marshal(u.AWS)
	case u.Agent != nil:
		return json.Marshal(u.Agent)
	}
	return []byte("null"), nil
}

// Validate checks exactly one shape is set.
func (u *ClassifierUpdates) Validate() error {
	if (u.AWS == nil) == (u.Agent == nil) {
		return errors.New("ClassifierUpdates: exactly one of the AWS or agent result must be set")
	}
	return nil
}
