package engine

import (
	"fmt"
	"strings"
)

// analyzerDirective is the fixed system instruction for the context analyzer.
const analyzerDirective = `You are the growth engine of a conversational system.
Given the conversation so far (the substrate) and the newest user input (the spore),
you must:
1. Classify the conversational patterns in the new input: question, imperative,
   continuation, disagreement. List every pattern that applies.
2. Assess how deeply the new input is nested in or related to prior turns
   (shallow, medium or deep) and describe the continuity with the existing context.
3. Identify a dialectical opportunity: the strongest counter-position or tension
   worth surfacing.
4. Propose exactly five growth paths, each of a DIFFERENT type, chosen from:
   clarify, expand, create, connect, challenge, crystallize.
   For each path give a short title, a one-sentence description of what executing
   it would produce, your reasoning, and a confidence between 0 and 1.
Respond only with JSON matching the required schema.`

// analysisSchema constrains the analyzer response (Gemini responseSchema
// format, uppercase type names).
var analysisSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"patterns_detected": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
		"history_depth": map[string]any{
			"type": "STRING",
			"enum": []string{"shallow", "medium", "deep"},
		},
		"context_continuity":      map[string]any{"type": "STRING"},
		"dialectical_opportunity": map[string]any{"type": "STRING"},
		"suggestions": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"type": map[string]any{
						"type": "STRING",
						"enum": []string{"clarify", "expand", "create", "connect", "challenge", "crystallize"},
					},
					"title":       map[string]any{"type": "STRING"},
					"description": map[string]any{"type": "STRING"},
					"reasoning":   map[string]any{"type": "STRING"},
					"confidence":  map[string]any{"type": "NUMBER"},
				},
				"required": []string{"type", "title", "description", "reasoning", "confidence"},
			},
		},
	},
	"required": []string{"patterns_detected", "history_depth", "context_continuity", "dialectical_opportunity", "suggestions"},
}

// taskDirectives give the executor's per-category instruction.
var taskDirectives = map[SuggestionType]string{
	SuggestClarify:     "Ask the questions that would resolve the ambiguity this path identifies, then answer what can already be answered.",
	SuggestExpand:      "Broaden the topic with relevant context, background and adjacent material. Use the search tool if external grounding would improve the answer.",
	SuggestCreate:      "Produce the proposed artifact in full. Do not describe what you would make; make it.",
	SuggestConnect:     "Draw the connections this path identifies to other domains, prior turns or external sources. Use the search tool if external grounding would improve the answer.",
	SuggestChallenge:   "Argue the strongest counter-position to what has been said. Be rigorous, not contrarian for its own sake.",
	SuggestCrystallize: "Distill the essence of the conversation so far into its sharpest, most compact form.",
	suggestStandard:    "Reply directly and helpfully to the user's latest message.",
}

// formatSubstrate serializes the conversation history for inclusion in a prompt.
func formatSubstrate(history []Message) string {
	if len(history) == 0 {
		return "(the conversation is just beginning)"
	}
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildAnalysisPrompt assembles the single structured prompt the analyzer
// sends: full substrate plus the new spore.
func buildAnalysisPrompt(history []Message, newInput string) string {
	var sb strings.Builder
	sb.WriteString("SUBSTRATE (conversation so far):\n")
	sb.WriteString(formatSubstrate(history))
	sb.WriteString("\nSPORE (newest user input):\n")
	sb.WriteString(newInput)
	return sb.String()
}

// buildTaskPrompt assembles the executor's prompt for a selected growth path.
func buildTaskPrompt(sug Suggestion, history []Message, lastInput string) string {
	directive, ok := taskDirectives[sug.Type]
	if !ok {
		directive = taskDirectives[suggestStandard]
	}

	var sb strings.Builder
	sb.WriteString("CONVERSATION SO FAR:\n")
	sb.WriteString(formatSubstrate(history))
	sb.WriteString("\nLATEST USER INPUT:\n")
	sb.WriteString(lastInput)
	sb.WriteString("\n\nSELECTED GROWTH PATH:\n")
	fmt.Fprintf(&sb, "type: %s\ntitle: %s\ndescription: %s\nreasoning: %s\n", sug.Type, sug.Title, sug.Description, sug.Reasoning)
	sb.WriteString("\nINSTRUCTION:\n")
	sb.WriteString(directive)
	return sb.String()
}
