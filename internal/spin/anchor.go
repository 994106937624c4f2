package spin

import (
	"regexp"
	"strings"
)

// anchorSplit captures the leading phrase of a long title, up to the first
// major punctuation or coordinating conjunction.
var anchorSplit = regexp.MustCompile(`(?i)^([^,;:\-–—]+?)(?:\s*[,;:\-–—]|\s+(?:and|or|but)\s)`)

// ExtractAnchorPhrase reduces an item title to a short phrase that rendered
// prompts quote verbatim.
//
// Deterministic by construction: short titles pass through whole, long ones
// are cut at the first punctuation or conjunction, and anything else falls
// back to the first 30 characters.
func ExtractAnchorPhrase(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "this item"
	}
	if len(title) <= 30 {
		return title
	}

	if m := anchorSplit.FindStringSubmatch(title); m != nil {
		phrase := strings.TrimSpace(m[1])
		if len(phrase) >= 5 {
			return phrase
		}
	}

	return strings.TrimRight(title[:30], " ") + "..."
}

// TemplateValues carries the placeholder bindings for RenderTemplate.
// Unset fields leave their placeholders in place.
type TemplateValues struct {
	ItemTitle            string
	ItemBody             string
	AnchorPhrase         string
	SelectedItems        []string
	ArtifactKind         string
	HolologueOutputTitle string
	HolologueOutputBody  string
}

// RenderTemplate substitutes the {{placeholder}} markers of a recipe
// template with the given values.
func RenderTemplate(template string, v TemplateValues) string {
	var pairs []string
	add := func(placeholder, value string) {
		if value != "" {
			pairs = append(pairs, placeholder, value)
		}
	}
	add("{{item_title}}", v.ItemTitle)
	add("{{item_body}}", v.ItemBody)
	add("{{anchor_phrase}}", v.AnchorPhrase)
	if len(v.SelectedItems) > 0 {
		add("{{selected_items}}", strings.Join(v.SelectedItems, ", "))
	}
	add("{{artifact_kind}}", v.ArtifactKind)
	add("{{holologue_output_title}}", v.HolologueOutputTitle)
	add("{{holologue_output_body}}", v.HolologueOutputBody)
	if len(pairs) == 0 {
		return template
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
