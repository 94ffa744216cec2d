// Package tools wires the model's function calls to the domain
// services and audits every dispatch.
package tools

import (
	"encoding/json"

	"github.com/digital-twin-ai/platform/internal/llm"
)

const (
	ToolCaptureVisitor    = "captureVisitor"
	ToolCheckAvailability = "checkAvailability"
	ToolCreateBooking     = "createBooking"
	ToolGenerateSummary   = "generateSummary"
)

// Definitions returns the tool schemas advertised to the model.
func Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ToolCaptureVisitor,
			Description: "Save the visitor's contact details once they share their name and email. Call this before creating any booking.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Visitor's full name"},
					"email": {"type": "string", "description": "Visitor's email address"},
					"role": {"type": "string", "enum": ["recruiter", "hiring_manager", "collaborator", "interested_party", "other"], "description": "Visitor's professional role"},
					"context": {"type": "string", "description": "Why the visitor is here, in their own words"},
					"linkedin": {"type": "string", "description": "LinkedIn profile URL if shared"}
				},
				"required": ["name", "email"]
			}`),
		},
		{
			Name:        ToolCheckAvailability,
			Description: "Check which meeting times are free on a given date before proposing one.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"date": {"type": "string", "description": "Date to check, formatted YYYY-MM-DD"},
					"timeSlot": {"type": "string", "enum": ["morning", "afternoon", "evening"], "description": "Part of the day the visitor prefers"}
				},
				"required": ["date", "timeSlot"]
			}`),
		},
		{
			Name:        ToolCreateBooking,
			Description: "Book a meeting for a captured visitor at a confirmed time.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"visitorId": {"type": "string", "description": "Id returned by captureVisitor"},
					"requestedDatetime": {"type": "string", "description": "Meeting start, ISO 8601 (e.g. 2025-06-10T09:00:00)"},
					"meetingType": {"type": "string", "enum": ["quick_call", "technical_discussion", "collaboration_exploration", "general_inquiry"], "description": "What the meeting is about"},
					"notes": {"type": "string", "description": "Anything the visitor wants discussed"}
				},
				"required": ["visitorId", "requestedDatetime", "meetingType"]
			}`),
		},
		{
			Name:        ToolGenerateSummary,
			Description: "Summarize the conversation so far for the visitor.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"focusArea": {"type": "string", "enum": ["skills_discussed", "projects_discussed", "availability", "next_steps", "full_summary"], "description": "What aspect to focus on in the summary"}
				},
				"required": []
			}`),
		},
	}
}
