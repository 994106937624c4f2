package spin

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/fieldkit/internal/schema"
)

// Output is the generated content for a new item.
type Output struct {
	Title string
	Body  string
}

// BondRequest asks for a transformation of one or more input items under a
// prompt.
type BondRequest struct {
	BondID     string
	Prompt     string
	Inputs     []schema.Item
	OutputType schema.QDPIKind
	RecipeID   string
}

// SynthesisRequest asks for a single artifact synthesized from a selection
// of items.
type SynthesisRequest struct {
	Kind  string // artifact kind: "plan", "checklist", "spec_fragment", ...
	Items []schema.Item
}

// Generator produces content for Bond and Holologue runs. Generation is
// fallible; a failed generation rolls the whole run back to its compensated
// state, so implementations should return errors rather than partial output.
type Generator interface {
	GenerateBond(ctx context.Context, req BondRequest) (Output, error)
	GenerateSynthesis(ctx context.Context, req SynthesisRequest) (Output, error)
}

// StubGenerator renders deterministic markdown from the built-in template
// registry. It is the default generator: no network, no model, same input
// always yields the same output.
type StubGenerator struct{}

// GenerateBond renders the template matching the request's recipe, falling
// back to a generic output shape for unknown recipes.
func (StubGenerator) GenerateBond(_ context.Context, req BondRequest) (Output, error) {
	anchor := "this item"
	snippet := "(no additional context)"
	if len(req.Inputs) > 0 {
		first := req.Inputs[0]
		anchor = ExtractAnchorPhrase(first.Title)
		snippet = bodySnippet(first.Body)
	}

	body, ok := bondTemplates[req.RecipeID]
	if !ok {
		body = bondFallbackTemplate
	}
	body = strings.ReplaceAll(body, "{anchor}", anchor)
	body = strings.ReplaceAll(body, "{snippet}", snippet)

	return Output{
		Title: fmt.Sprintf("Output from Bond %s...", truncate(req.BondID, 12)),
		Body:  body,
	}, nil
}

// GenerateSynthesis renders the artifact-kind template over the selected
// items, defaulting to the plan shape for unknown kinds.
func (StubGenerator) GenerateSynthesis(_ context.Context, req SynthesisRequest) (Output, error) {
	titles := lo.Map(req.Items, func(it schema.Item, _ int) string {
		return "- " + it.Title
	})
	themes := lo.Map(req.Items, func(it schema.Item, _ int) string {
		return "- " + ExtractAnchorPhrase(it.Title)
	})

	body, ok := holologueTemplates[req.Kind]
	if !ok {
		body = holologueTemplates["plan"]
	}
	body = strings.ReplaceAll(body, "{n_items}", fmt.Sprintf("%d", len(req.Items)))
	body = strings.ReplaceAll(body, "{item_titles}", strings.Join(titles, "\n"))
	body = strings.ReplaceAll(body, "{themes}", strings.Join(themes, "\n"))

	return Output{
		Title: fmt.Sprintf("Holologue artifact (%s)", req.Kind),
		Body:  body,
	}, nil
}

// FailingGenerator always fails; used to exercise the compensation paths.
type FailingGenerator struct {
	Reason string
}

func (g FailingGenerator) reason() string {
	if g.Reason == "" {
		return "forced_failure"
	}
	return g.Reason
}

func (g FailingGenerator) GenerateBond(context.Context, BondRequest) (Output, error) {
	return Output{}, fmt.Errorf("generate bond: %s", g.reason())
}

func (g FailingGenerator) GenerateSynthesis(context.Context, SynthesisRequest) (Output, error) {
	return Output{}, fmt.Errorf("generate synthesis: %s", g.reason())
}

// bodySnippet extracts a short context line from an item body, skipping
// front-matter style "Title:" and "PAGE" lines.
func bodySnippet(body string) string {
	if body == "" {
		return "(no additional context)"
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "title:") {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(line), "PAGE") {
			continue
		}
		return truncate(line, 100)
	}
	return "(no additional context)"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
