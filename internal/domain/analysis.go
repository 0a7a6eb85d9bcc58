package domain

// Suggested response-type tags produced by analysis.
const (
	ResponseTypeImmediateCallBack      = "immediate_call_back"
	ResponseTypeTechnicalResponse      = "technical_response"
	ResponseTypeBillingDocumentation   = "billing_documentation"
	ResponseTypeFeatureAcknowledgement = "feature_acknowledgement"
	ResponseTypeSecurityVerification   = "security_verification"
	ResponseTypeGeneral                = "general"
)

// TicketAnalysis is the structured result of ticket analysis. It is
// produced once per ticket and immutable thereafter.
type TicketAnalysis struct {
	Category              TicketCategory
	Priority              Priority
	UrgencyIndicators     []string
	KeyPoints             []string
	RequiredExpertise     []string
	SuggestedResponseType string
}

// ResponseSuggestion is the drafted reply plus its quality metadata.
type ResponseSuggestion struct {
	ResponseText     string
	ConfidenceScore  float64
	RequiresApproval bool
	SuggestedActions []string
}
