package analyzer

import "encoding/json"

// Normalized is the best-effort extraction from a raw result. Extraction
// never fails: missing or malformed fields fall back to defaults.
type Normalized struct {
	Score           int
	CandidateName   string
	SkillHighlights []string
}

// Normalize applies the extraction rules in fixed order: the nested
// candidate_profile is read first, then a top-level overall_score overwrites
// the score when present (the résumé and LinkedIn payload shapes are not
// reconciled upstream, so both may occur in one payload).
func Normalize(res *RawResult) Normalized {
	out := Normalized{CandidateName: "Unknown"}
	if res == nil {
		return out
	}

	if profile, ok := res.Fields["candidate_profile"].(map[string]any); ok {
		if n, ok := asNumber(profile["total_score"]); ok {
			out.Score = int(n)
		}
		if s, ok := profile["name"].(string); ok && s != "" {
			out.CandidateName = s
		}
		out.SkillHighlights = asStrings(profile["current_skills"])
	}

	if n, ok := asNumber(res.Fields["overall_score"]); ok {
		out.Score = int(n)
	}

	return out
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
