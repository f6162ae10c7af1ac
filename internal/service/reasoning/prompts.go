// Package reasoning builds the prompts sent to the reasoning service and
// decodes its replies into typed results.
package reasoning

import "fmt"

// ScoringPrompt asks for a -2..+2 score of one indicator from scraped page text.
func ScoringPrompt(currency, indicator, rules, data string) string {
	return fmt.Sprintf(
		"Analyze the economic data for %s regarding %q. Based on the rules and data, determine a score from -2 to +2. "+
			`Respond ONLY with a valid JSON object: {"score": <number>, "rationale": "<brief reasoning>"}. `+
			"\n\nRules: %s\n\nData: %s",
		currency, indicator, rules, data,
	)
}

// RecapPrompt asks for a narrative recap from the serialized score map and the live event stream.
func RecapPrompt(currency, scoresJSON, events string) string {
	return fmt.Sprintf(
		"Analyze the scored data for %s: %s. Also consider the following live economic events stream for context: %s. "+
			"Provide an economic recap. "+
			`Respond ONLY with a valid JSON object: {"bias": "<string>", "narrativeReasoning": "<string>", `+
			`"eventModifiers": [{"heading": "<string>", "flag": "<'Green Flag'|'Yellow Flag'|'Red Flag'>", "description": "<string>"}]}`,
		currency, scoresJSON, events,
	)
}
