package spin

// Markdown bodies rendered by StubGenerator. {anchor} and {snippet} come
// from the first input item; {n_items}, {item_titles} and {themes} from the
// Holologue selection.

var bondTemplates = map[string]string{
	"expand_to_checklist": `# Checklist: {anchor}

- [ ] Verify the core assumption holds
- [ ] Identify edge cases and boundary conditions
- [ ] Document the expected inputs and outputs
- [ ] Test with representative data samples
- [ ] Review for security and performance implications

## Definition of done

- All items above are checked and documented
- Edge cases have been enumerated and addressed
- Implementation matches the specification

---
*Based on: {snippet}*
`,

	"ground_in_experiment": `# Experiment: {anchor}

## Hypothesis
If we implement {anchor}, then we will observe measurable improvement in the target metric.

## Method
1. Establish baseline measurements
2. Implement minimal viable change
3. Measure post-implementation metrics
4. Compare against baseline

## Stop rule
Halt if error rate exceeds 10% or if no improvement after 48 hours.

---
*Based on: {snippet}*
`,

	"derive_min_schema": `# Minimal Schema: {anchor}

## Fields

| Field | Type | Required | Description |
|-------|------|----------|-------------|
| id | string | MUST | Unique identifier |
| name | string | MUST | Human-readable label |
| status | enum | MUST | Current state |
| created_at | datetime | MUST | Creation timestamp |

## Invariants
- id MUST be unique across all entities
- status MUST be one of: draft, active, archived
- created_at MUST be immutable after creation

---
*Based on: {snippet}*
`,

	"decision_with_reasons": `# Decision: {anchor}

## Recommendation
**YES** - Proceed with implementation.

## Rationale
1. Aligns with project goals and constraints
2. Technical feasibility has been validated
3. Resource requirements are within budget
4. Risk level is acceptable with mitigations

## Next Steps
1. Create implementation ticket
2. Assign owner and timeline
3. Schedule review checkpoint

---
*Based on: {snippet}*
`,
}

var bondFallbackTemplate = `# Output: {anchor}

Generated content based on the requested transformation.

## Summary
The input has been processed according to the prompt.

## Details
Further refinement may be applied by running additional transformations.

---
*Generated for: {anchor}*
`

var holologueTemplates = map[string]string{
	"plan": `# Synthesis Plan

## Overview
This plan synthesizes insights from {n_items} selected items into a coherent action plan.

## Key Themes
{themes}

## Action Items
1. Consolidate the core concepts identified across items
2. Resolve any conflicts or contradictions
3. Establish clear next steps and ownership
4. Define success criteria and checkpoints

---
*Synthesized from: {item_titles}*
`,

	"checklist": `# Synthesis Checklist

## Items Consolidated
{item_titles}

## Verification Checklist

- [ ] All source items have been reviewed
- [ ] Key points from each item are captured
- [ ] No critical information is missing
- [ ] Conflicts between items are resolved
- [ ] Synthesis is internally consistent

---
*Synthesized from {n_items} items*
`,

	"spec_fragment": `# Spec Fragment

## Source Items
{item_titles}

## Requirements

### Functional Requirements
1. MUST support the core use cases identified
2. MUST maintain consistency with existing specifications
3. SHOULD handle edge cases gracefully

## Acceptance Criteria
- All functional requirements met
- Documentation complete

---
*Derived from {n_items} items*
`,
}
