package schema

import (
	"encoding/json"
	"fmt"
)

// ProvenanceKind tags the origin variant of an Item.
type ProvenanceKind string

const (
	ProvenanceUser      ProvenanceKind = "user"
	ProvenanceBond      ProvenanceKind = "bond"
	ProvenanceHolologue ProvenanceKind = "holologue"
)

// Provenance is a closed sum type with exactly three variants describing how
// an Item came to exist. Unknown variants are rejected at deserialization.
//
// Exactly one of Bond/Holologue is set when the kind matches; the user
// variant carries no payload beyond the acting party.
type Provenance struct {
	Kind      ProvenanceKind
	Actor     string // user variant: "user" or "system"
	Bond      *BondProvenance
	Holologue *HolologueProvenance
}

// BondProvenance records that an Item was produced by a Bond execution.
type BondProvenance struct {
	BondID       string   `json:"bond_id"`
	InputItemIDs []string `json:"input_item_ids"`
}

// HolologueProvenance records that an Item was produced by a Holologue run.
// CompletionEventID references the persisted holologue.completed event.
type HolologueProvenance struct {
	CompletionEventID string   `json:"completion_event_id"`
	SelectedItemIDs   []string `json:"selected_item_ids"`
	ArtifactKind      string   `json:"artifact_kind"`
}

// UserProvenance returns the user-created variant.
func UserProvenance(actor string) Provenance {
	if actor == "" {
		actor = "user"
	}
	return Provenance{Kind: ProvenanceUser, Actor: actor}
}

// FromBond returns the bond-produced variant.
func FromBond(bondID string, inputItemIDs []string) Provenance {
	return Provenance{
		Kind: ProvenanceBond,
		Bond: &BondProvenance{BondID: bondID, InputItemIDs: inputItemIDs},
	}
}

// FromHolologue returns the holologue-produced variant.
func FromHolologue(completionEventID string, selectedItemIDs []string, artifactKind string) Provenance {
	return Provenance{
		Kind: ProvenanceHolologue,
		Holologue: &HolologueProvenance{
			CompletionEventID: completionEventID,
			SelectedItemIDs:   selectedItemIDs,
			ArtifactKind:      artifactKind,
		},
	}
}

// provenanceWire is the persisted shape: a tagged object keyed by created_by.
type provenanceWire struct {
	CreatedBy         string   `json:"created_by"`
	BondID            string   `json:"bond_id,omitempty"`
	InputItemIDs      []string `json:"input_item_ids,omitempty"`
	CompletionEventID string   `json:"completion_event_id,omitempty"`
	SelectedItemIDs   []string `json:"selected_item_ids,omitempty"`
	ArtifactKind      string   `json:"artifact_kind,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Provenance) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case ProvenanceUser:
		actor := p.Actor
		if actor == "" {
			actor = "user"
		}
		return json.Marshal(provenanceWire{CreatedBy: actor})
	case ProvenanceBond:
		if p.Bond == nil {
			return nil, fmt.Errorf("bond provenance missing payload")
		}
		return json.Marshal(provenanceWire{
			CreatedBy:    string(ProvenanceBond),
			BondID:       p.Bond.BondID,
			InputItemIDs: p.Bond.InputItemIDs,
		})
	case ProvenanceHolologue:
		if p.Holologue == nil {
			return nil, fmt.Errorf("holologue provenance missing payload")
		}
		return json.Marshal(provenanceWire{
			CreatedBy:         string(ProvenanceHolologue),
			CompletionEventID: p.Holologue.CompletionEventID,
			SelectedItemIDs:   p.Holologue.SelectedItemIDs,
			ArtifactKind:      p.Holologue.ArtifactKind,
		})
	}
	return nil, fmt.Errorf("unknown provenance kind %q", p.Kind)
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown variants.
func (p *Provenance) UnmarshalJSON(data []byte) error {
	var wire provenanceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode provenance: %w", err)
	}
	switch wire.CreatedBy {
	case "user", "system":
		*p = UserProvenance(wire.CreatedBy)
	case string(ProvenanceBond):
		if wire.BondID == "" {
			return fmt.Errorf("bond provenance missing bond_id")
		}
		*p = FromBond(wire.BondID, wire.InputItemIDs)
	case string(ProvenanceHolologue):
		if wire.CompletionEventID == "" {
			return fmt.Errorf("holologue provenance missing completion_event_id")
		}
		*p = FromHolologue(wire.CompletionEventID, wire.SelectedItemIDs, wire.ArtifactKind)
	default:
		return fmt.Errorf("unknown provenance variant %q", wire.CreatedBy)
	}
	return nil
}
