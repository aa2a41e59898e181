package rewrite

import (
	"fmt"
	"strings"
)

// Action selects how a body is rewritten.
type Action string

const (
	ActionGrammar  Action = "grammar"
	ActionFriendly Action = "friendly"
	ActionFormal   Action = "formal"
)

// ParseAction validates a user-supplied action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := instructions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

var instructions = map[Action]string{
	ActionGrammar: "You are a professional assistant. Correct grammar, spelling, and punctuation " +
		"in the following email. Preserve any placeholders that are in the form {PlaceholderName}. " +
		"Keep the meaning and tone unchanged unless necessary for clarity. " +
		"Return only the corrected email body (no commentary).",
	ActionFriendly: "You are a friendly professional assistant. Rewrite the email below to be friendly " +
		"and helpful, keeping placeholders like {ClientName} unchanged. Keep content concise and make " +
		"any phrasing more approachable. Return only the rewritten email body.",
	ActionFormal: "You are a professional copy editor. Rewrite the email below to be formal and " +
		"professional, preserving placeholders like {ClientName}. Avoid casual language. " +
		"Return only the rewritten email body.",
}

// Prompt builds the model prompt for rewriting body with action.
func Prompt(action Action, body string) (string, error) {
	instruction, ok := instructions[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return instruction + "\nEmail:\n---\n" + body, nil
}
