package prompts

// Acknowledgement is the fixed assistant message that opens every reasoning
// loop.
const Acknowledgement = "Understood. I will begin my reasoning steps now."

// UserTemplate renders the seeding user message. Fields: .Problem and
// .PreviousSolution ("" for the first stage).
const UserTemplate = `Problem:
{{.Problem}}

{{if .PreviousSolution}}Previous Solution:
{{.PreviousSolution}}

Please proceed with your analysis.{{else}}Please provide your solution.{{end}}`

// SummaryTemplate renders the summarisation request. Field: .Solution.
const SummaryTemplate = `Please provide a simple, clear summary of the following technical response.
Focus on the main findings and explain them in a way that a non-technical person would understand:
when returning code, return the complete code in a code block, returned by the agent.

{{.Solution}}

Keep your response concise and friendly. Avoid technical jargon where possible.`
