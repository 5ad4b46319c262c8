package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// DefaultScore and DefaultTone make up the documented degraded result
	// substituted when model output cannot be parsed at all.
	DefaultScore = 50
	DefaultTone  = "Neutral"

	parseFailureNotice = "Couldn't parse suggestions from the model output"
)

// Result is the normalized three-field shape every structured-extraction
// call is asked to produce.
type Result struct {
	ViralityScore int      `json:"viralityScore"`
	EmotionalTone string   `json:"emotionalTone"`
	Suggestions   []string `json:"suggestions"`
}

// DegradedResult is returned whenever no JSON object can be recovered from
// the model text. Requests still succeed with this result.
func DegradedResult() Result {
	return Result{
		ViralityScore: DefaultScore,
		EmotionalTone: DefaultTone,
		Suggestions:   []string{parseFailureNotice},
	}
}

// Clamp pins the score into [0,100] and fills empty fields with the
// documented defaults. Upstream models are not contractually bound to emit
// values in range.
func (r Result) Clamp() Result {
	if r.ViralityScore < 0 {
		r.ViralityScore = 0
	}
	if r.ViralityScore > 100 {
		r.ViralityScore = 100
	}
	if strings.TrimSpace(r.EmotionalTone) == "" {
		r.EmotionalTone = DefaultTone
	}
	if len(r.Suggestions) == 0 {
		r.Suggestions = []string{parseFailureNotice}
	}
	return r
}

// rawResult tolerates the looser shapes models actually emit: scores as
// numbers or quoted strings, suggestions with non-string members.
type rawResult struct {
	ViralityScore any    `json:"viralityScore"`
	EmotionalTone string `json:"emotionalTone"`
	Suggestions   []any  `json:"suggestions"`
}

// ExtractResult recovers a Result from free model text. This is a
// heuristic, not a contract the upstream model honors: try a full-body
// parse first, then strip markdown fences, then scan for the first balanced
// {...} substring, then give up and degrade. The second return reports
// whether a JSON object was actually parsed.
func ExtractResult(raw string) (Result, bool) {
	candidates := []string{
		strings.TrimSpace(raw),
		stripFences(raw),
		balancedObject(raw),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var rr rawResult
		if err := json.Unmarshal([]byte(c), &rr); err != nil {
			continue
		}
		return rr.normalize(), true
	}
	return DegradedResult(), false
}

func (rr rawResult) normalize() Result {
	out := Result{EmotionalTone: strings.TrimSpace(rr.EmotionalTone)}

	switch v := rr.ViralityScore.(type) {
	case float64:
		out.ViralityScore = int(v)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			out.ViralityScore = int(n)
		} else {
			out.ViralityScore = DefaultScore
		}
	default:
		out.ViralityScore = DefaultScore
	}

	for _, s := range rr.Suggestions {
		if str, ok := s.(string); ok && strings.TrimSpace(str) != "" {
			out.Suggestions = append(out.Suggestions, str)
		}
	}

	return out.Clamp()
}

// stripFences removes a wrapping ```json ... ``` block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return ""
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// balancedObject returns the first balanced {...} substring, tracking string
// literals and escapes so braces inside string values don't end the scan.
func balancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
