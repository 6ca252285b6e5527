// internal/workers/notification/send-match-notification/templates.go
package sendmatchnotification

import (
	"fmt"
	"strings"
)

type template struct {
	subject string
	body    string
	sms     string
}

var templates = map[string]template{
	TypeBuyerMatches: {
		subject: "{{count}} new business listings match your profile",
		body:    "Hello {{name}},\n\nWe found {{count}} listings that match what you are looking for:\n\n{{list}}\n",
		sms:     "{{count}} new listing matches. Top: {{topTitle}} ({{topScore}}/100).",
	},
	TypeListingMatches: {
		subject: "{{count}} buyers match your listing",
		body:    "Hello {{name}},\n\n{{count}} buyers match your listing:\n\n{{list}}\n",
		sms:     "{{count}} buyers match your listing. Top score {{topScore}}/100.",
	},
}

// renderTemplate replaces {{key}} placeholders and drops any left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func matchList(matches []MatchSummary, max int) string {
	if max <= 0 || max > len(matches) {
		max = len(matches)
	}
	lines := make([]string, 0, max+1)
	for _, m := range matches[:max] {
		label := m.Title
		if label == "" {
			label = m.ID
		}
		lines = append(lines, fmt.Sprintf("- %s (score %d/100)", label, m.Score))
	}
	if rest := len(matches) - max; rest > 0 {
		lines = append(lines, fmt.Sprintf("...and %d more", rest))
	}
	return strings.Join(lines, "\n")
}
