// Package spin holds the generation side of the workspace: the static recipe
// registry that shapes prompts, and the Generator collaborator that turns a
// prompt or a selection of items into new content.
package spin

import "github.com/samber/lo"

// RecipeCategory groups recipes by the interaction shape they produce.
type RecipeCategory string

const (
	CategoryMonologue RecipeCategory = "monologue"
	CategoryDialogue  RecipeCategory = "dialogue"
	CategoryHolologue RecipeCategory = "holologue"
	CategoryProposal  RecipeCategory = "proposal_generator"
)

// Recipe is a static prompt recipe. Recipes are data, not persisted objects:
// the registry below is the complete set and is never mutated at runtime.
type Recipe struct {
	ID          string
	Category    RecipeCategory
	OutputShape string // QDPI type of the output: "M", "D", "H"
	Template    string
	IntentType  string
	Description string
}

// Recipes is the full registry, in declaration order.
var Recipes = []Recipe{
	// Monologue recipes (Q → M)
	{
		ID:          "clarify_to_testable_claim",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Rewrite '{{anchor_phrase}}' as a single falsifiable claim that could be tested.",
		IntentType:  "clarifies",
		Description: "Transforms ambiguous phrase into testable claim",
	},
	{
		ID:          "expand_to_checklist",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Expand '{{anchor_phrase}}' into a 5-item checklist of things to verify.",
		IntentType:  "expands",
		Description: "Creates verification checklist from concept",
	},
	{
		ID:          "ground_in_experiment",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Propose a minimal experiment to probe '{{anchor_phrase}}'.",
		IntentType:  "grounds_in",
		Description: "Suggests concrete experiment",
	},
	{
		ID:          "derive_min_schema",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Derive the minimal JSON schema for '{{anchor_phrase}}'.",
		IntentType:  "derives",
		Description: "Extracts data structure from concept",
	},
	{
		ID:          "decision_with_reasons",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Write a 5-bullet decision note for '{{anchor_phrase}}' with clear yes/no recommendation.",
		IntentType:  "grounds_in",
		Description: "Creates decision record with rationale",
	},
	{
		ID:          "compare_with_criteria",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Compare two approaches to '{{anchor_phrase}}' across 3 weighted criteria.",
		IntentType:  "grounds_in",
		Description: "Structured comparison framework",
	},
	{
		ID:          "risk_register",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "List top 5 risks for '{{anchor_phrase}}' with likelihood and impact scores.",
		IntentType:  "grounds_in",
		Description: "Risk assessment table",
	},
	{
		ID:          "implementation_plan",
		Category:    CategoryMonologue,
		OutputShape: "M",
		Template:    "Create a step-by-step implementation plan for '{{anchor_phrase}}'.",
		IntentType:  "expands",
		Description: "Actionable implementation steps",
	},

	// Dialogue recipes (Q → D)
	{
		ID:          "peer_review_objections",
		Category:    CategoryDialogue,
		OutputShape: "D",
		Template:    "Play a skeptical peer reviewer for '{{anchor_phrase}}'. List 3 objections, then respond to each.",
		IntentType:  "critiques",
		Description: "Self-critical review dialogue",
	},
	{
		ID:          "debate_two_options",
		Category:    CategoryDialogue,
		OutputShape: "D",
		Template:    "Stage a debate between two options for '{{anchor_phrase}}'. Give each side 2 arguments.",
		IntentType:  "forks",
		Description: "Point-counterpoint dialogue",
	},
	{
		ID:          "refine_prompt_with_constraints",
		Category:    CategoryDialogue,
		OutputShape: "D",
		Template:    "Refine the prompt about '{{anchor_phrase}}' by asking 3 clarifying questions and proposing improved versions.",
		IntentType:  "clarifies",
		Description: "Iterative prompt refinement",
	},
	{
		ID:          "adversarial_test_cases",
		Category:    CategoryDialogue,
		OutputShape: "D",
		Template:    "Generate 3 adversarial test cases for '{{anchor_phrase}}' and explain why each might break it.",
		IntentType:  "critiques",
		Description: "Adversarial testing dialogue",
	},
	{
		ID:          "rubric_and_scoring",
		Category:    CategoryDialogue,
		OutputShape: "D",
		Template:    "Create a rubric for evaluating '{{anchor_phrase}}' with 4 criteria, then score a hypothetical example.",
		IntentType:  "grounds_in",
		Description: "Evaluation rubric creation",
	},
	{
		ID:          "multi_role_negotiation",
		Category:    CategoryDialogue,
		OutputShape: "D",
		Template:    "Simulate a negotiation about '{{anchor_phrase}}' between 3 stakeholders with different priorities.",
		IntentType:  "forks",
		Description: "Multi-stakeholder negotiation",
	},

	// Holologue recipes (many → one)
	{
		ID:          "holologue_plan_from_constellation",
		Category:    CategoryHolologue,
		OutputShape: "H",
		Template:    "Given the selected items ({{selected_items}}), synthesize a comprehensive {{artifact_kind}}.",
		IntentType:  "synthesizes",
		Description: "Synthesizes plan from multiple items",
	},
	{
		ID:          "holologue_spec_fragment_rules",
		Category:    CategoryHolologue,
		OutputShape: "H",
		Template:    "Extract concrete spec rules from ({{selected_items}}) as a numbered list of requirements.",
		IntentType:  "derives",
		Description: "Derives spec from constellation",
	},
	{
		ID:          "holologue_acceptance_checklist",
		Category:    CategoryHolologue,
		OutputShape: "H",
		Template:    "Derive an acceptance test checklist from ({{selected_items}}) with pass/fail criteria.",
		IntentType:  "derives",
		Description: "Creates acceptance criteria",
	},

	// Proposal generators (follow-on prompts)
	{
		ID:          "proposal_pack_from_single_item",
		Category:    CategoryProposal,
		OutputShape: "M",
		Template:    "Based on '{{item_title}}', suggest follow-on prompts.",
		IntentType:  "expands",
		Description: "Generates suggestions for single item",
	},
	{
		ID:          "proposal_pack_from_holologue_output",
		Category:    CategoryProposal,
		OutputShape: "M",
		Template:    "Based on the Holologue output '{{holologue_output_title}}', suggest follow-on prompts.",
		IntentType:  "expands",
		Description: "Generates proposals after Holologue",
	},
}

var recipeByID = lo.KeyBy(Recipes, func(r Recipe) string { return r.ID })

// RecipeByID returns the recipe with the given id, if it exists.
func RecipeByID(id string) (Recipe, bool) {
	r, ok := recipeByID[id]
	return r, ok
}

// RecipesByCategory returns every recipe in the category, in registry order.
func RecipesByCategory(category RecipeCategory) []Recipe {
	return lo.Filter(Recipes, func(r Recipe, _ int) bool {
		return r.Category == category
	})
}
