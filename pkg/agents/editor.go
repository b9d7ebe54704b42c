package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
	"github.com/newsroom-systems/chief/pkg/worker"
)

// textAnalysis is the LLM's structured read on a draft, mirroring
// EditorAgent._analyze_text's JSON return shape.
type textAnalysis struct {
	Claims        []string `json:"claims"`
	Tone          string   `json:"tone"`
	StyleIssues   []string `json:"style_issues"`
	GrammarIssues []string `json:"grammar_issues"`
	Score         float64  `json:"score"`
}

type claimCheck struct {
	Supported bool   `json:"supported"`
	Reason    string `json:"reason"`
}

// Editor handles the review stage: verifies the draft's claims against
// search results, scores style and verification separately, and
// approves or rejects the draft — the same two-axis gate as
// EditorAgent.review_article (verification_score >= 0.8 AND
// style_score >= 0.7 to approve).
type Editor struct {
	chat   externalsvc.Chat
	search externalsvc.Searcher
	log    *slog.Logger
}

// Approval thresholds, per EditorAgent.review_article's decision rule.
const (
	verificationThreshold = 0.8
	styleThreshold        = 0.7
	maxClaimsVerified     = 5
)

// NewEditor builds an Editor backed by chat for analysis/scoring and
// search for claim verification.
func NewEditor(chat externalsvc.Chat, search externalsvc.Searcher) *Editor {
	return &Editor{chat: chat, search: search, log: slog.With("component", "agents.editor")}
}

// Handle reviews a draft, per spec.md §4.5's per-role Handler contract.
func (e *Editor) Handle(ctx context.Context, task *taskqueue.Task) (worker.Output, error) {
	if task.Stage != taskqueue.StageReview {
		return nil, fmt.Errorf("editor cannot handle stage %q", task.Stage)
	}

	draft, _ := task.Input["draft"].(map[string]any)
	article, _ := draft["article"].(string)
	if article == "" {
		return nil, fmt.Errorf("editor: review task missing draft article text")
	}

	analysis, err := e.analyzeText(ctx, article)
	if err != nil {
		e.log.Warn("text analysis failed, defaulting to neutral scores", "story_id", task.StoryID, "error", err)
		analysis = textAnalysis{Tone: "Unknown", Score: 0.5}
	}

	verifiedCount, checked, details := e.verifyClaims(ctx, analysis.Claims)

	verificationScore := 1.0
	if checked > 0 {
		verificationScore = float64(verifiedCount) / float64(checked)
	}
	totalScore := verificationScore*0.6 + analysis.Score*0.4

	decision := worker.DecisionReject
	if verificationScore >= verificationThreshold && analysis.Score >= styleThreshold {
		decision = worker.DecisionApprove
	}

	feedback := compileFeedback(analysis, decision, totalScore, checked, verifiedCount, details)

	out := worker.ReviewOutput{
		Decision:          decision,
		Score:             round2(totalScore),
		VerificationScore: round2(verificationScore),
		StyleScore:        analysis.Score,
		Feedback:          feedback,
	}
	return toOutput(out), nil
}

func (e *Editor) analyzeText(ctx context.Context, article string) (textAnalysis, error) {
	prompt := fmt.Sprintf(`Analyze the following news article draft.

Article:
%s

Extract:
1. List of factual claims made (max 10 key claims).
2. Assessment of tone (Objective, Biased, Sensationalist, Dry).
3. Assessment of style (conciseness, clarity, active voice).
4. List of any grammatical or structural issues.

Return JSON format:
{"claims": ["claim 1"], "tone": "Objective", "style_issues": ["issue 1"], "grammar_issues": ["issue 1"], "score": 0.0}`, article)

	content, err := e.chat.Generate(ctx, "You are an editor analyzing a news article.",
		[]externalsvc.ChatMessage{{Role: "user", Content: prompt}}, 1000, 0.2)
	if err != nil {
		return textAnalysis{}, err
	}

	var out textAnalysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return textAnalysis{}, fmt.Errorf("parsing analysis response: %w", err)
	}
	return out, nil
}

func (e *Editor) verifyClaims(ctx context.Context, claims []string) (verified, checked int, details map[string]claimCheck) {
	details = make(map[string]claimCheck)
	if len(claims) > maxClaimsVerified {
		claims = claims[:maxClaimsVerified]
	}
	for _, claim := range claims {
		checked++
		results, err := e.search.Search(ctx, claim, 3)
		if err != nil {
			details[claim] = claimCheck{Supported: false, Reason: "verification failed"}
			continue
		}
		var snippets []string
		for _, r := range results {
			snippets = append(snippets, r.Snippet)
		}
		check, err := e.checkClaimSupport(ctx, claim, strings.Join(snippets, "\n"))
		if err != nil {
			details[claim] = claimCheck{Supported: false, Reason: "verification failed"}
			continue
		}
		details[claim] = check
		if check.Supported {
			verified++
		}
	}
	return verified, checked, details
}

func (e *Editor) checkClaimSupport(ctx context.Context, claim, context string) (claimCheck, error) {
	prompt := fmt.Sprintf(`Claim: %s

Context:
%s

Does the context support the claim?
Return JSON: {"supported": true/false, "reason": "..."}`, claim, context)

	content, err := e.chat.Generate(ctx, "You are a fact-checker verifying a claim against context.",
		[]externalsvc.ChatMessage{{Role: "user", Content: prompt}}, 200, 0.0)
	if err != nil {
		return claimCheck{}, err
	}
	var out claimCheck
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return claimCheck{}, fmt.Errorf("parsing claim check: %w", err)
	}
	return out, nil
}

func compileFeedback(analysis textAnalysis, decision string, score float64, checked, verified int, details map[string]claimCheck) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Decision: %s (Score: %.2f/1.0)\n", decision, score)
	fmt.Fprintf(&sb, "Style Score: %.2f\n", analysis.Score)
	fmt.Fprintf(&sb, "Fact Check: %d/%d verified\n\nStyle Issues:\n", verified, checked)
	for _, issue := range analysis.StyleIssues {
		fmt.Fprintf(&sb, "- %s\n", issue)
	}
	sb.WriteString("\nUnverified Claims:\n")
	for claim, detail := range details {
		if !detail.Supported {
			fmt.Fprintf(&sb, "- %s: %s\n", claim, detail.Reason)
		}
	}
	return sb.String()
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	return s[start : end+1]
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
