package taskqueue

import "testing"

func TestRoleForStage(t *testing.T) {
	cases := []struct {
		stage   string
		role    string
		queued  bool
	}{
		{StageResearch, RoleReporter, true},
		{StageDraft, RoleReporter, true},
		{StageEdit, RoleReporter, true},
		{StageReview, RoleEditor, true},
		{StagePublish, RolePublisher, true},
		{StageDetect, "", false},
		{"nonsense", "", false},
	}

	for _, c := range cases {
		role, ok := RoleForStage(c.stage)
		if ok != c.queued {
			t.Fatalf("RoleForStage(%q) queued = %v, want %v", c.stage, ok, c.queued)
		}
		if ok && role != c.role {
			t.Fatalf("RoleForStage(%q) = %q, want %q", c.stage, role, c.role)
		}
	}
}

func TestStagesForRoleIsInverse(t *testing.T) {
	for stage, role := range roleForStage {
		found := false
		for _, s := range StagesForRole(role) {
			if s == stage {
				found = true
			}
		}
		if !found {
			t.Fatalf("StagesForRole(%q) missing %q", role, stage)
		}
	}
}

func TestDetectNeverQueued(t *testing.T) {
	if _, ok := RoleForStage(StageDetect); ok {
		t.Fatal("detect must never be queueable: the Scout emits story.detected directly")
	}
}
