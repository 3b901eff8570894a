package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/logging"
	"github.com/hupe1980/teammesh/model"
	"github.com/hupe1980/teammesh/tool"
	"github.com/hupe1980/teammesh/transcript"
)

// Member is one assembled agent runtime: a spec snapshot bound to a model
// instance and constructed tool instances. Immutable after assembly.
type Member struct {
	spec  hierarchy.AgentSpec
	llm   model.Model
	tools []tool.Tool
}

// Name returns the member's addressable name.
func (m *Member) Name() string { return m.spec.Name }

// Spec returns a copy of the agent spec this member was assembled from.
func (m *Member) Spec() hierarchy.AgentSpec { return m.spec.Clone() }

// Tools returns the member's constructed tool bindings in spec order.
func (m *Member) Tools() []tool.Tool {
	out := make([]tool.Tool, len(m.tools))
	copy(out, m.tools)
	return out
}

// Model returns the member's model binding.
func (m *Member) Model() model.Model { return m.llm }

// Reply is the outcome of one delegated turn.
type Reply struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	// Agent names the member that produced the answer; empty when the
	// delegator answered directly (no members configured).
	Agent string `json:"agent,omitempty"`
}

// Team is the assembled runtime graph for one (tenant, instance) key. It is
// exclusively owned by the cache entry that created it and safe for
// concurrent Run calls: all per-turn state lives on the stack, session
// identity included.
type Team struct {
	tenantID      string
	instanceID    string
	delegator     *Delegator
	members       []*Member
	transcripts   transcript.Store
	logger        logging.Logger
	maxModelCalls int
}

// TenantID returns the owning tenant namespace.
func (t *Team) TenantID() string { return t.tenantID }

// InstanceID returns the configuration slot this team was assembled for.
func (t *Team) InstanceID() string { return t.instanceID }

// Members returns the assembled member runtimes in configuration order.
func (t *Team) Members() []*Member {
	out := make([]*Member, len(t.members))
	copy(out, t.members)
	return out
}

// Run executes one delegated turn: route the message to the most suitable
// member, run that member's model (with its tools) to completion, log the
// turn under the given session, and return the reply.
//
// A failure here leaves the team fully usable; only this turn fails.
func (t *Team) Run(ctx context.Context, sessionID, message string) (*Reply, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	var history []model.Message
	if t.delegator.historyEnabled {
		tr, err := t.transcripts.Get(ctx, t.tenantID, t.instanceID, sessionID)
		if err == nil {
			history = make([]model.Message, 0, len(tr.Messages))
			for _, msg := range tr.Messages {
				history = append(history, model.Message{Role: msg.Role, Text: msg.Content})
			}
		} else if !errors.Is(err, transcript.ErrNotFound) {
			return nil, fmt.Errorf("load transcript: %w", err)
		}
	}

	limiter := NewCallLimiter(t.maxModelCalls)

	var (
		content   string
		agentName string
	)
	if len(t.members) == 0 {
		// Nobody to delegate to; the delegator answers itself.
		resp, err := t.delegator.respond(ctx, history, message, limiter)
		if err != nil {
			return nil, err
		}
		content = resp
	} else {
		member, err := t.delegator.route(ctx, history, message, t.members, limiter)
		if err != nil {
			return nil, err
		}
		agentName = member.Name()
		content, err = t.runMember(ctx, member, history, message, limiter)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	err := t.transcripts.Append(ctx, t.tenantID, t.instanceID, sessionID,
		transcript.Message{Role: "user", Content: message, CreatedAt: now},
		transcript.Message{Role: "assistant", Content: content, CreatedAt: now},
	)
	if err != nil {
		return nil, fmt.Errorf("append transcript: %w", err)
	}

	return &Reply{SessionID: sessionID, Content: content, Agent: agentName}, nil
}

// runMember drives one member's model to a final text answer, executing tool
// calls in a bounded loop. Tool failures are reported back to the model as
// tool results rather than failing the turn.
func (t *Team) runMember(ctx context.Context, m *Member, history []model.Message, message string, limiter *CallLimiter) (string, error) {
	msgs := append(append([]model.Message{}, history...), model.Message{Role: "user", Text: message})

	defs := make([]model.ToolDefinition, len(m.tools))
	byName := make(map[string]tool.Tool, len(m.tools))
	for i, tl := range m.tools {
		defs[i] = model.ToolDefinition{
			Name:        tl.Name(),
			Description: tl.Description(),
			Parameters:  tl.Parameters(),
		}
		byName[tl.Name()] = tl
	}

	for {
		if err := limiter.Increment(); err != nil {
			return "", fmt.Errorf("agent %q: %w", m.Name(), err)
		}

		resp, err := m.llm.Generate(ctx, model.Request{
			Instructions: m.spec.Role,
			Messages:     msgs,
			Tools:        defs,
		})
		if err != nil {
			return "", fmt.Errorf("agent %q: %w", m.Name(), err)
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		msgs = append(msgs, model.Message{Role: "assistant", Text: resp.Text, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			msgs = append(msgs, t.executeToolCall(ctx, m, byName, call))
		}
	}
}

// executeToolCall runs one tool call and wraps its result (or failure) as a
// tool message for the next model round.
func (t *Team) executeToolCall(ctx context.Context, m *Member, byName map[string]tool.Tool, call model.ToolCall) model.Message {
	start := time.Now()
	result, err := t.callTool(ctx, byName, call)
	if err != nil {
		t.logger.Warn("tool call failed",
			"tenant_id", t.tenantID, "instance_id", t.instanceID,
			"agent", m.Name(), "tool", call.Name, "duration", time.Since(start), "error", err.Error())
		return model.Message{Role: "tool", ToolCallID: call.ID, Text: fmt.Sprintf("tool error: %v", err)}
	}
	t.logger.Debug("tool call completed",
		"tenant_id", t.tenantID, "instance_id", t.instanceID,
		"agent", m.Name(), "tool", call.Name, "duration", time.Since(start))
	return model.Message{Role: "tool", ToolCallID: call.ID, Text: result}
}

func (t *Team) callTool(ctx context.Context, byName map[string]tool.Tool, call model.ToolCall) (string, error) {
	tl, ok := byName[call.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}
	result, err := tl.Call(ctx, args)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(out), nil
}
