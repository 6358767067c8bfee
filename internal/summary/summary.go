// Package summary turns the accumulated conversation into a structured digest
// using an external text-generation service. It only ever reads point-in-time
// copies of the message log, so a slow or stalled summarizer never touches the
// chat path.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/urmidesai8/gruner-ai-features/internal/chat"
	"github.com/urmidesai8/gruner-ai-features/internal/metrics"
)

const systemPrompt = "You are a helpful assistant that analyzes chat conversations " +
	"and provides structured summaries in JSON format. Always return valid JSON only, " +
	"no markdown code blocks, no additional text."

// Result is the shaped summarization response.
type Result struct {
	Summary       string   `json:"summary"`
	BulletPoints  []string `json:"bullet_points"`
	KeyDecisions  []string `json:"key_decisions"`
	ActionItems   []string `json:"action_items"`
	UnreadSummary string   `json:"unread_summary"`
	TotalMessages int      `json:"total_messages"`
	Participants  []string `json:"participants"`
}

// Completer is the external text-generation call. Fallible, latency-unbounded;
// the service wraps every use in a deadline.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service reads the message log and shapes summarizer output.
type Service struct {
	log          *chat.Log
	completer    Completer
	logger       zerolog.Logger
	historyLimit int
	timeout      time.Duration
}

// NewService creates a summarization service. historyLimit caps how many
// trailing messages are handed to the model (0 means all); timeout bounds
// each external call.
func NewService(log *chat.Log, completer Completer, logger zerolog.Logger, historyLimit int, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		log:          log,
		completer:    completer,
		logger:       logger,
		historyLimit: historyLimit,
		timeout:      timeout,
	}
}

// Summarize generates a summary of the conversation. With a username it
// prefers that user's unread messages and personalizes the what-did-I-miss
// section, advancing the user's read cursor only after success. Failures are
// surfaced to the caller, never retried; the chat path is unaffected.
func (s *Service) Summarize(ctx context.Context, username string) (*Result, error) {
	msgs := s.log.All()
	var unread []chat.Message
	if username != "" {
		unread = s.log.Unread(username)
	}

	focus := msgs
	if len(unread) > 0 {
		focus = unread
	}
	if len(focus) == 0 {
		return emptyResult(), nil
	}
	if s.historyLimit > 0 && len(focus) > s.historyLimit {
		focus = focus[len(focus)-s.historyLimit:]
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(focus, username, len(unread)))
	metrics.SummaryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SummaryRequests.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("user", username).Msg("summarization failed")
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	result, err := shapeResult(raw, s.log.Len(), s.log.Participants(), username, len(unread))
	if err != nil {
		metrics.SummaryRequests.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("user", username).Msg("summarizer returned malformed output")
		return nil, err
	}

	if username != "" {
		s.log.MarkRead(username)
	}
	metrics.SummaryRequests.WithLabelValues("ok").Inc()
	return result, nil
}

func emptyResult() *Result {
	return &Result{
		Summary:       "No messages to summarize.",
		BulletPoints:  []string{},
		KeyDecisions:  []string{},
		ActionItems:   []string{},
		UnreadSummary: "No unread messages.",
		TotalMessages: 0,
		Participants:  []string{},
	}
}

func buildPrompt(msgs []chat.Message, username string, unreadCount int) string {
	var transcript strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&transcript, "[%s] %s: %s\n", m.Timestamp.Format(chat.TimeFormat), m.Sender, m.Body)
	}

	unreadContext := ""
	if username != "" && unreadCount > 0 {
		unreadContext = fmt.Sprintf(
			"\nIMPORTANT: The user %q has %d unread message(s). Provide a 'What did I miss?' summary focusing on these unread messages.\n",
			username, unreadCount)
	}

	return fmt.Sprintf(`You are analyzing a chat conversation. Provide a comprehensive summary in JSON format.

Chat Conversation:
%s%s
Analyze this conversation and return a JSON object with this structure:
{
    "summary": "A brief 2-3 sentence overview of the entire conversation",
    "bullet_points": ["Key point 1", "Key point 2", ...],
    "key_decisions": ["Decision 1 with context", ...],
    "action_items": ["Action item 1 with assignee if mentioned", ...],
    "unread_summary": "A personalized summary of what the user missed"
}

Guidelines:
- bullet_points: the 5-10 most important points as clear bullet points
- key_decisions: decisions, agreements, or choices made (who and what)
- action_items: tasks or todos mentioned (with owner if mentioned)
- unread_summary: if there are unread messages, summarize those; otherwise say "You're all caught up!"
- if a category has no items, return an empty array []
- return ONLY valid JSON, no additional text before or after

Return the JSON response now:`, transcript.String(), unreadContext)
}

// llmSummary is the shape the model is asked to return.
type llmSummary struct {
	Summary       string   `json:"summary"`
	BulletPoints  []string `json:"bullet_points"`
	KeyDecisions  []string `json:"key_decisions"`
	ActionItems   []string `json:"action_items"`
	UnreadSummary string   `json:"unread_summary"`
}

// shapeResult validates the model output and fills the derived fields. The
// participant list covers everyone who took part in the conversation, not
// just the summarized subset and not the live registry.
func shapeResult(raw string, total int, participants []string, username string, unreadCount int) (*Result, error) {
	cleaned := stripFences(raw)

	var parsed llmSummary
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse summarizer output: %w", err)
	}

	result := &Result{
		Summary:       parsed.Summary,
		BulletPoints:  parsed.BulletPoints,
		KeyDecisions:  parsed.KeyDecisions,
		ActionItems:   parsed.ActionItems,
		UnreadSummary: parsed.UnreadSummary,
		TotalMessages: total,
		Participants:  participants,
	}

	if result.Summary == "" {
		result.Summary = fmt.Sprintf("Chat summary: %d messages from %d participant(s): %s",
			total, len(participants), strings.Join(participants, ", "))
	}
	if result.BulletPoints == nil {
		result.BulletPoints = []string{}
	}
	if len(result.KeyDecisions) == 0 {
		result.KeyDecisions = []string{"No explicit decisions identified in the conversation."}
	}
	if len(result.ActionItems) == 0 {
		result.ActionItems = []string{"No action items identified in the conversation."}
	}
	if result.UnreadSummary == "" {
		if username != "" && unreadCount > 0 {
			result.UnreadSummary = fmt.Sprintf("You missed %d message(s).", unreadCount)
		} else {
			result.UnreadSummary = "You're all caught up!"
		}
	}

	return result, nil
}

// stripFences removes markdown code fences some models wrap around JSON
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
