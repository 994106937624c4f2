package policy

import "testing"

func TestLoadEmbeddedPolicy(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}

	if p.SeedCredits != 100 {
		t.Errorf("seed = %d, want 100", p.SeedCredits)
	}
	if p.Costs.BondRun != 10 {
		t.Errorf("bond cost = %d, want 10", p.Costs.BondRun)
	}
	if p.Costs.HolologueRun != 20 {
		t.Errorf("holologue cost = %d, want 20", p.Costs.HolologueRun)
	}
	if p.Rewards.ItemCreated != 1 {
		t.Errorf("item reward = %d, want 1", p.Rewards.ItemCreated)
	}
	if p.Rewards.BondExecuted != 3 {
		t.Errorf("bond reward = %d, want 3", p.Rewards.BondExecuted)
	}
	if p.Rewards.HolologueCompleted != 5 {
		t.Errorf("holologue reward = %d, want 5", p.Rewards.HolologueCompleted)
	}
}

// Every run must be a net spend; a reward at or above its cost would let the
// balance be inflated by repeating workflows.
func TestRewardsStayBelowCosts(t *testing.T) {
	p := MustLoad()
	if p.Rewards.BondExecuted >= p.Costs.BondRun {
		t.Errorf("bond reward %d >= cost %d", p.Rewards.BondExecuted, p.Costs.BondRun)
	}
	if p.Rewards.HolologueCompleted >= p.Costs.HolologueRun {
		t.Errorf("holologue reward %d >= cost %d", p.Rewards.HolologueCompleted, p.Costs.HolologueRun)
	}
}

func TestMustLoadDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad panicked: %v", r)
		}
	}()
	_ = MustLoad()
}
