package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/teammesh/logging"
	"github.com/hupe1980/teammesh/model"
)

// Delegator is the coordinating runtime entity. It is bound to the fixed
// default model, carries the configuration's routing policy text, and
// optionally sees prior conversation history when choosing a member.
type Delegator struct {
	llm            model.Model
	instructions   string
	historyEnabled bool
	logger         logging.Logger
}

// route asks the delegator's model which member should handle the message
// and resolves the answer to a member. An answer that names no known member
// falls back to the first configured member so one bad routing completion
// never fails the turn.
func (d *Delegator) route(ctx context.Context, history []model.Message, message string, members []*Member, limiter *CallLimiter) (*Member, error) {
	if err := limiter.Increment(); err != nil {
		return nil, fmt.Errorf("delegator: %w", err)
	}

	var msgs []model.Message
	if d.historyEnabled {
		msgs = append(msgs, history...)
	}
	msgs = append(msgs, model.Message{Role: "user", Text: message})

	resp, err := d.llm.Generate(ctx, model.Request{
		Instructions: d.instructions + "\n\n" + roster(members),
		Messages:     msgs,
	})
	if err != nil {
		return nil, fmt.Errorf("delegator: %w", err)
	}

	if m := matchMember(resp.Text, members); m != nil {
		return m, nil
	}
	d.logger.Warn("delegator named no known member, falling back to first",
		"answer", resp.Text, "fallback", members[0].Name())
	return members[0], nil
}

// respond answers directly with the delegator's own model. Used when the
// configuration has no members (valid but non-functional team).
func (d *Delegator) respond(ctx context.Context, history []model.Message, message string, limiter *CallLimiter) (string, error) {
	if err := limiter.Increment(); err != nil {
		return "", fmt.Errorf("delegator: %w", err)
	}

	var msgs []model.Message
	if d.historyEnabled {
		msgs = append(msgs, history...)
	}
	msgs = append(msgs, model.Message{Role: "user", Text: message})

	resp, err := d.llm.Generate(ctx, model.Request{
		Instructions: d.instructions,
		Messages:     msgs,
	})
	if err != nil {
		return "", fmt.Errorf("delegator: %w", err)
	}
	return resp.Text, nil
}

// roster renders the member list (name plus role) appended to the routing
// instructions so the model knows who it can delegate to.
func roster(members []*Member) string {
	var b strings.Builder
	b.WriteString("Your team:\n")
	for _, m := range members {
		b.WriteString("- ")
		b.WriteString(m.Name())
		if role := strings.TrimSpace(m.spec.Role); role != "" {
			b.WriteString(": ")
			b.WriteString(role)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// matchMember resolves a routing answer to a member: exact case-insensitive
// name match first, then substring containment. Returns nil when nothing
// matches.
func matchMember(answer string, members []*Member) *Member {
	trimmed := strings.ToLower(strings.TrimSpace(answer))
	for _, m := range members {
		if strings.ToLower(m.Name()) == trimmed {
			return m
		}
	}
	for _, m := range members {
		if strings.Contains(trimmed, strings.ToLower(m.Name())) {
			return m
		}
	}
	return nil
}
