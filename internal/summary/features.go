package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/urmidesai8/gruner-ai-features/internal/metrics"
)

// FeatureMessage is one message handed to the AI feature endpoints. These
// endpoints work on caller-supplied batches, not the relay's own log.
type FeatureMessage struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// ModerationVerdict is the per-message moderation outcome.
type ModerationVerdict struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

// FeatureService runs the single-prompt AI features (priority classification,
// moderation, smart replies) against the same completer the summarizer uses.
type FeatureService struct {
	completer Completer
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewFeatureService creates the feature service. timeout bounds each
// external call.
func NewFeatureService(completer Completer, logger zerolog.Logger, timeout time.Duration) *FeatureService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FeatureService{
		completer: completer,
		logger:    logger,
		timeout:   timeout,
	}
}

// Prioritize classifies each message as Low, Normal, High, or Urgent, keyed
// by message id. An empty batch returns an empty map without an external call.
func (s *FeatureService) Prioritize(ctx context.Context, msgs []FeatureMessage) (map[string]string, error) {
	if len(msgs) == 0 {
		return map[string]string{}, nil
	}

	prompt := fmt.Sprintf(`Analyze the priority of the following messages.
Return a JSON object where keys are IDs and values are one of: 'Low', 'Normal', 'High', 'Urgent'.

Messages:
%s
Return ONLY valid JSON.`, featureTranscript(msgs))

	out := make(map[string]string)
	if err := s.run(ctx, "prioritize", prompt, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Moderate checks each message for spam, scams, or abuse, keyed by message
// id. An empty batch returns an empty map without an external call.
func (s *FeatureService) Moderate(ctx context.Context, msgs []FeatureMessage) (map[string]ModerationVerdict, error) {
	if len(msgs) == 0 {
		return map[string]ModerationVerdict{}, nil
	}

	prompt := fmt.Sprintf(`Check these messages for spam, scams, or abuse.
Return a JSON object where keys are IDs and values are objects like { "safe": true } or { "safe": false, "reason": "spam" }.

Messages:
%s
Return ONLY valid JSON.`, featureTranscript(msgs))

	out := make(map[string]ModerationVerdict)
	if err := s.run(ctx, "moderate", prompt, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SmartReplies suggests three short replies to the last message of the batch.
// An empty batch returns no suggestions without an external call.
func (s *FeatureService) SmartReplies(ctx context.Context, msgs []FeatureMessage) ([]string, error) {
	if len(msgs) == 0 {
		return []string{}, nil
	}

	last := msgs[len(msgs)-1]
	prompt := fmt.Sprintf(`Generate 3 short, context-aware reply suggestions for the following message:
%q

Return a JSON object: { "suggestions": ["Yes", "No", "maybe"] }
Return ONLY valid JSON.`, last.Message)

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := s.run(ctx, "smart_replies", prompt, &out); err != nil {
		return nil, err
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out.Suggestions, nil
}

// run executes one completion and decodes its JSON output into dst. Failures
// surface to the caller, same as summarization; there is no canned fallback.
func (s *FeatureService) run(ctx context.Context, feature, prompt string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		metrics.FeatureRequests.WithLabelValues(feature, "error").Inc()
		s.logger.Error().Err(err).Str("feature", feature).Msg("feature request failed")
		return fmt.Errorf("%s: %w", feature, err)
	}

	if err := json.Unmarshal([]byte(stripFences(raw)), dst); err != nil {
		metrics.FeatureRequests.WithLabelValues(feature, "error").Inc()
		s.logger.Error().Err(err).Str("feature", feature).Msg("feature output malformed")
		return fmt.Errorf("parse %s output: %w", feature, err)
	}

	metrics.FeatureRequests.WithLabelValues(feature, "ok").Inc()
	return nil
}

func featureTranscript(msgs []FeatureMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "ID: %s | Msg: %s\n", m.ID, m.Message)
	}
	return b.String()
}
