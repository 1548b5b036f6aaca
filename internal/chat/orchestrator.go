// Package chat turns a free-text user message into zero or more authenticated,
// validated task mutations and a natural-language reply. Turns are stateless:
// the full conversation history is reloaded from durable storage every time,
// so any process instance can serve any turn.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

// SystemPrompt frames the assistant's role and capabilities for the model.
const SystemPrompt = `You are a helpful assistant for a todo/task management application. You can help users manage their tasks by:

- Creating new tasks
- Listing their existing tasks
- Marking tasks as completed
- Deleting tasks
- Updating task titles or descriptions

When a user asks you to perform any task-related action, use the appropriate tool to do it.
Be concise and helpful. After performing an action, confirm what you did.

If a user asks about something unrelated to task management, you can still help with general questions, but remind them that your primary function is task management.`

// FallbackReply is substituted for the assistant reply whenever a model call
// fails. Provider failures are absorbed here so the turn still completes and
// the user's message is never lost.
const FallbackReply = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// emptyReply covers the rare case of a successful model call with no content.
const emptyReply = "I apologize, but I couldn't generate a response."

// ToolCallRecord captures one tool invocation of a turn for observability.
// It is returned to the caller and never persisted.
type ToolCallRecord struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
	Result    map[string]interface{} `json:"result"`
}

// TurnResult is the outcome of one processed chat turn.
type TurnResult struct {
	ConversationID string           `json:"conversation_id"`
	Response       string           `json:"response"`
	ToolCalls      []ToolCallRecord `json:"tool_calls"`
}

// Orchestrator processes chat turns. It is safe for concurrent use; turns on
// the same conversation are not serialized against each other (concurrent
// turns may interleave, last write to updated_at wins).
type Orchestrator struct {
	model    model.ToolCallingChatModel
	registry *Registry
	convs    repository.ConversationStore
	timeout  time.Duration
}

// NewOrchestrator creates an Orchestrator. timeout bounds each model call;
// zero means 60 seconds.
func NewOrchestrator(chatModel model.ToolCallingChatModel, registry *Registry, convs repository.ConversationStore, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		model:    chatModel,
		registry: registry,
		convs:    convs,
		timeout:  timeout,
	}
}

// ProcessTurn runs one user-message-in, assistant-reply-out cycle.
//
// conversationID may be empty to start a new conversation; a non-empty id that
// does not belong to the owner returns repository.ErrNotFound before anything
// is persisted. Once the user message is stored, model and tool failures no
// longer abort the turn: they degrade into error payloads or the fixed
// fallback reply.
func (o *Orchestrator) ProcessTurn(ctx context.Context, owner, conversationID, message string) (*TurnResult, error) {
	var conv *models.Conversation
	var err error
	if conversationID != "" {
		conv, err = o.convs.GetConversation(ctx, owner, conversationID)
	} else {
		conv, err = o.convs.CreateConversation(ctx, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	history, err := o.convs.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// The user's input is durable before the first model call.
	if _, err := o.convs.AppendMessage(ctx, conv.ID, owner, models.RoleUser, message); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	reply, records := o.generateReply(ctx, owner, buildMessages(history, message))

	if _, err := o.convs.AppendMessage(ctx, conv.ID, owner, models.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	if err := o.convs.TouchConversation(ctx, conv.ID); err != nil {
		logger.Warn(ctx, "Touch conversation failed", "conversation_id", conv.ID, "error", err)
	}

	return &TurnResult{
		ConversationID: conv.ID,
		Response:       reply,
		ToolCalls:      records,
	}, nil
}

// buildMessages assembles the model input: system instruction, full history
// in order, then the new user message.
func buildMessages(history []models.Message, current string) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(SystemPrompt))
	for _, m := range history {
		if m.Role == models.RoleAssistant {
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		} else {
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}
	return append(msgs, schema.UserMessage(current))
}

// generateReply runs the model round-trip(s) and any requested tool calls.
// It never fails: model errors collapse into FallbackReply.
func (o *Orchestrator) generateReply(ctx context.Context, owner string, msgs []*schema.Message) (string, []ToolCallRecord) {
	toolModel, err := o.model.WithTools(o.registry.ToolInfos(ctx))
	if err != nil {
		logger.Error(ctx, "Bind tools to model failed", "error", err)
		return FallbackReply, nil
	}

	resp, err := o.generate(ctx, toolModel, msgs)
	if err != nil {
		logger.Error(ctx, "Model call failed", "error", err)
		return FallbackReply, nil
	}

	if len(resp.ToolCalls) == 0 {
		if resp.Content == "" {
			return emptyReply, nil
		}
		return resp.Content, nil
	}

	logger.Info(ctx, "Model requested tool calls", "count", len(resp.ToolCalls))
	msgs = append(msgs, resp)

	// Tool calls run sequentially in the order the model requested them;
	// later calls may depend on state created by earlier ones.
	var records []ToolCallRecord
	for _, tc := range resp.ToolCalls {
		result := o.registry.Dispatch(ctx, owner, tc.Function.Name, tc.Function.Arguments)
		records = append(records, ToolCallRecord{
			Name:      tc.Function.Name,
			Arguments: parseArguments(tc.Function.Arguments),
			Result:    result,
		})

		resultJSON, merr := json.Marshal(result)
		if merr != nil {
			resultJSON = []byte(`{"error":"unserializable tool result"}`)
		}
		msgs = append(msgs, schema.ToolMessage(string(resultJSON), tc.ID, schema.WithToolName(tc.Function.Name)))
	}

	// Second round without tools to produce the final reply.
	final, err := o.generate(ctx, o.model, msgs)
	if err != nil {
		logger.Error(ctx, "Final model call failed", "error", err)
		return FallbackReply, records
	}
	if final.Content == "" {
		return emptyReply, records
	}
	return final.Content, records
}

func (o *Orchestrator) generate(ctx context.Context, m model.BaseChatModel, msgs []*schema.Message) (*schema.Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return m.Generate(callCtx, msgs)
}

// parseArguments decodes tool-call arguments for the turn's record.
// Malformed argument JSON is surfaced raw rather than dropped.
func parseArguments(argumentsInJSON string) map[string]interface{} {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return map[string]interface{}{"_raw": argumentsInJSON}
	}
	return args
}
