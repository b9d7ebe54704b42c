// Package agents implements reference worker.Handler collaborators for
// the reporter, editor, and publisher roles — concrete stand-ins for
// the pluggable workers pkg/worker only describes the shape of.
// Adapted from the original system's agents/reporter.py,
// agents/editor.py, and agents/publisher.py: same research → draft →
// review → publish reasoning, expressed as Go Handlers talking through
// externalsvc.Chat/Searcher instead of an embedded Python LLM client.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/human"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
	"github.com/newsroom-systems/chief/pkg/worker"
)

// Reporter handles the research, draft, and edit stages, mirroring
// ReporterAgent's combined research()/draft() responsibilities — edit
// reuses draft's prompt shape with revision feedback folded in, the
// way the original treats an edit task as "draft again, with notes."
type Reporter struct {
	chat   externalsvc.Chat
	search externalsvc.Searcher
	humans *human.Store
	log    *slog.Logger
}

// NewReporter builds a Reporter backed by chat for generation, search
// for corroborating sources, and humans for answering pending prompts
// surfaced during research.
func NewReporter(chat externalsvc.Chat, search externalsvc.Searcher, humans *human.Store) *Reporter {
	return &Reporter{chat: chat, search: search, humans: humans, log: slog.With("component", "agents.reporter")}
}

// Handle dispatches on task.Stage, per spec.md §4.5's per-role Handler
// contract.
func (r *Reporter) Handle(ctx context.Context, task *taskqueue.Task) (worker.Output, error) {
	switch task.Stage {
	case taskqueue.StageResearch:
		return r.research(ctx, task)
	case taskqueue.StageDraft, taskqueue.StageEdit:
		return r.draft(ctx, task)
	default:
		return nil, fmt.Errorf("reporter cannot handle stage %q", task.Stage)
	}
}

// research corroborates a detection with search results and, for
// Phase 2 human-prompted stories, answers the pending prompt from the
// gathered context — mirroring ReporterAgent.research's source-count
// verification and _answer_prompt flow.
func (r *Reporter) research(ctx context.Context, task *taskqueue.Task) (worker.Output, error) {
	detection, _ := task.Input["detection_data"].(map[string]any)
	title, _ := detection["title"].(string)
	summary, _ := detection["summary"].(string)
	originalURL, _ := detection["url"].(string)

	sources := []worker.Source{{URL: originalURL, Title: title, Snippet: truncateRunes(summary, 200), Type: "original"}}

	results, err := r.search.Search(ctx, title, 5)
	if err != nil {
		r.log.Warn("corroboration search failed, continuing with original source only", "story_id", task.StoryID, "error", err)
	}
	for _, res := range results {
		if res.URL == originalURL {
			continue
		}
		sources = append(sources, worker.Source{URL: res.URL, Title: res.Title, Snippet: res.Snippet, Type: "corroboration"})
	}

	verified := len(sources) >= 2
	facts := []string{fmt.Sprintf("Story about: %s (source_count=%d, verified=%v)", title, len(sources), verified)}

	if promptID, ok := task.Input["human_prompt_id"].(string); ok && promptID != "" {
		question, _ := task.Input["human_prompt_text"].(string)
		answer, err := r.answerPrompt(ctx, question, title, summary, facts, sources)
		if err != nil {
			r.log.Warn("failed to answer human prompt", "story_id", task.StoryID, "prompt_id", promptID, "error", err)
		} else if err := r.humans.Answer(ctx, promptID, answer); err != nil {
			r.log.Warn("failed to record prompt answer", "prompt_id", promptID, "error", err)
		}
	}

	out := worker.ResearchOutput{
		Facts:    facts,
		Sources:  sources,
		Entities: map[string]any{},
		Verified: verified,
	}
	return toOutput(out), nil
}

func (r *Reporter) answerPrompt(ctx context.Context, question, title, summary string, facts []string, sources []worker.Source) (string, error) {
	var sb strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Title, s.Snippet)
	}
	prompt := fmt.Sprintf(`Story: %s
Summary: %s

Question: %s

Research findings:
%s

Sources consulted:
%s

Answer the question based on the research findings. Be direct and cite sources when applicable.
If the research doesn't provide enough information to answer, say so clearly. Keep your answer
concise (2-3 sentences).`, title, summary, question, strings.Join(facts, "\n"), sb.String())

	return r.chat.Generate(ctx, "You are a research assistant helping a reporter answer a specific question.",
		[]externalsvc.ChatMessage{{Role: "user", Content: prompt}}, 300, 0.3)
}

// draft writes (or revises) the article body from detection and
// research context, mirroring ReporterAgent.draft's prompt shape. An
// edit task additionally folds in the prior review's feedback.
func (r *Reporter) draft(ctx context.Context, task *taskqueue.Task) (worker.Output, error) {
	detection, _ := task.Input["detection_data"].(map[string]any)
	title, _ := detection["title"].(string)
	summary, _ := detection["summary"].(string)
	originalURL, _ := detection["url"].(string)

	research, _ := task.Input["research_data"].(map[string]any)
	facts, _ := research["facts"].([]any)
	sources, _ := research["sources"].([]any)
	verified, _ := research["verified"].(bool)

	var factLines, sourceLines strings.Builder
	for _, f := range facts {
		fmt.Fprintf(&factLines, "- %v\n", f)
	}
	for _, s := range sources {
		fmt.Fprintf(&sourceLines, "- %v\n", s)
	}

	revisionNote := ""
	if feedback, ok := task.Input["feedback"].(string); ok && feedback != "" {
		revisionNote = fmt.Sprintf("\nA previous draft was rejected by the editor with this feedback, address it:\n%s\n", feedback)
	}

	prompt := fmt.Sprintf(`Title: %s
Original Summary: %s
Source URL: %s

Research Findings:
- Verified: %v
- Number of independent sources: %d

Key facts:
%s

Additional sources found:
%s
%s
Write a clear, factual news article (200-400 words) based on this information. Include a
headline and article body. Cite sources appropriately. If the story has only one source,
note that it is unverified.`, title, summary, originalURL, verified, len(sources), factLines.String(), sourceLines.String(), revisionNote)

	articleText, err := r.chat.Generate(ctx, "You are a reporter writing a news article.",
		[]externalsvc.ChatMessage{{Role: "user", Content: prompt}}, 1200, 0.7)
	if err != nil {
		return nil, fmt.Errorf("generating draft: %w", err)
	}

	out := worker.DraftOutput{
		Article:    articleText,
		Headline:   title,
		WordCount:  len(strings.Fields(articleText)),
		IsRevision: task.Stage == taskqueue.StageEdit,
	}
	return toOutput(out), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// toOutput round-trips v through JSON into a worker.Output map, the
// same marshal-then-decode step worker.Output's typed structs exist
// for.
func toOutput(v any) worker.Output {
	b, err := json.Marshal(v)
	if err != nil {
		return worker.Output{}
	}
	var out worker.Output
	if err := json.Unmarshal(b, &out); err != nil {
		return worker.Output{}
	}
	return out
}
