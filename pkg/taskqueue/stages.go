package taskqueue

// Stage names, per spec.md §3.
const (
	StageDetect  = "detect"
	StageResearch = "research"
	StageDraft   = "draft"
	StageEdit    = "edit"
	StageReview  = "review"
	StagePublish = "publish"
)

// Role names, per spec.md §3.
const (
	RoleChief     = "chief"
	RoleScout     = "scout"
	RoleReporter  = "reporter"
	RoleEditor    = "editor"
	RolePublisher = "publisher"
)

// roleForStage is the single well-known place the role→stage mapping
// lives, per the design note in spec.md §9 ("keep it in a single
// well-known place — a typed table or a pure function — so it is
// auditable"). detect is intentionally absent: it is never queued (the
// Scout ingestion loop produces story.detected events directly, see
// spec.md §4.7), so no role ever claims it.
var roleForStage = map[string]string{
	StageResearch: RoleReporter,
	StageDraft:    RoleReporter,
	StageEdit:     RoleReporter,
	StageReview:   RoleEditor,
	StagePublish:  RolePublisher,
}

// stagesForRole is the inverse of roleForStage, computed once.
var stagesForRole = func() map[string][]string {
	out := make(map[string][]string)
	for stage, role := range roleForStage {
		out[role] = append(out[role], stage)
	}
	return out
}()

// RoleForStage returns the role eligible to claim tasks at stage, and
// whether that stage is queueable at all.
func RoleForStage(stage string) (string, bool) {
	role, ok := roleForStage[stage]
	return role, ok
}

// StagesForRole returns every stage a role may claim.
func StagesForRole(role string) []string {
	return stagesForRole[role]
}
