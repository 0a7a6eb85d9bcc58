package planner

// Catalog maps template keys to templated response text with
// {{placeholder}} variables. A usable catalog always carries a
// "general" entry; its absence is a configuration fault.
type Catalog map[string]string

// FallbackKey is the catalog entry every catalog must provide.
const FallbackKey = "general"

// DefaultCatalog returns the stock response templates.
func DefaultCatalog() Catalog {
	return Catalog{
		"access": `Hello {{name}},

I understand you're having trouble accessing your account. Let me help you resolve this.

What we found: {{key_points}}

Our {{expertise}} team is reviewing the access issue.

Priority: {{priority}}
ETA: {{eta}}

Please let me know if you need any clarification.

Best regards,
Support Team`,

		"billing": `Hi {{name}},

Thank you for your billing inquiry regarding: {{key_points}}.

Our {{expertise}} team will review the records and follow up.

Priority: {{priority}}
ETA: {{eta}}

If you have any questions, don't hesitate to ask.

Best regards,
Billing Team`,

		"technical": `Dear {{name}},

We've identified this as a technical issue covering: {{key_points}}.

Our {{expertise}} team is investigating.

Priority: {{priority}}
ETA: {{eta}}

Best regards,
Technical Support Team`,

		"feature": `Hi {{name}},

Thank you for your suggestion!

Our product team will review this request:
- Request details: {{key_points}}
- Priority: {{priority}}
- Expected review timeline: {{eta}}

Next Steps:
1. We'll add this to our feature backlog
2. You'll receive updates on ticket {{ticket_id}}

Best regards,
Product Team`,

		"immediate_call_back": `URGENT: {{name}}

We're prioritizing your request.

Next Steps:
- A senior agent will call within {{eta}}
- Reference: {{ticket_id}}
- Topics on file: {{key_points}}

On-call team: {{expertise}}
Priority: {{priority}}`,

		FallbackKey: `Hello {{name}},

Thank you for contacting support.

We're currently reviewing: {{key_points}}

Priority: {{priority}}
We'll provide another update by {{eta}}.

Best regards,
Support Team`,
	}
}
