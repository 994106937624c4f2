package spin

// Suggestion is one content-shaped prompt offered to the user. Suggestions
// are events-only products: presenting them never creates a Bond.
type Suggestion struct {
	PromptText string `json:"prompt_text"`
	IntentType string `json:"intent_type"`
	RecipeID   string `json:"recipe_id"`
}

// suggestionRecipeIDs picks four monologue recipes with distinct intents.
var suggestionRecipeIDs = []string{
	"expand_to_checklist",
	"ground_in_experiment",
	"derive_min_schema",
	"decision_with_reasons",
}

// proposalRecipeIDs picks four recipes with distinct intents for the
// follow-on proposals after a Holologue completes.
var proposalRecipeIDs = []string{
	"expand_to_checklist",
	"derive_min_schema",
	"risk_register",
	"peer_review_objections",
}

// SuggestionsForItem returns exactly four suggestions for an item. The
// anchor phrase extracted from the title appears verbatim in each prompt.
func SuggestionsForItem(title, body string) []Suggestion {
	anchor := ExtractAnchorPhrase(title)
	return renderAll(suggestionRecipeIDs, TemplateValues{
		ItemTitle:    title,
		ItemBody:     body,
		AnchorPhrase: anchor,
	})
}

// ProposalsForHolologue returns exactly four follow-on proposals referencing
// the Holologue's output item.
func ProposalsForHolologue(outputTitle, outputBody string) []Suggestion {
	anchor := ExtractAnchorPhrase(outputTitle)
	return renderAll(proposalRecipeIDs, TemplateValues{
		ItemTitle:            outputTitle,
		ItemBody:             outputBody,
		AnchorPhrase:         anchor,
		HolologueOutputTitle: outputTitle,
		HolologueOutputBody:  outputBody,
	})
}

func renderAll(recipeIDs []string, values TemplateValues) []Suggestion {
	out := make([]Suggestion, 0, len(recipeIDs))
	for _, id := range recipeIDs {
		recipe, ok := RecipeByID(id)
		if !ok {
			continue
		}
		out = append(out, Suggestion{
			PromptText: RenderTemplate(recipe.Template, values),
			IntentType: recipe.IntentType,
			RecipeID:   recipe.ID,
		})
	}
	return out
}
