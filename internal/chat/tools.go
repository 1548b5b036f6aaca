package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

// ToolSpec declares one tool operation and its argument schema, as presented
// to the language model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec
}

// ParamSpec declares a single tool argument.
type ParamSpec struct {
	Type        string
	Description string
	Required    bool
	Enum        []string
}

// toolInfo converts a ToolSpec to an Eino schema.ToolInfo.
func (s *ToolSpec) toolInfo() *schema.ToolInfo {
	info := &schema.ToolInfo{
		Name: s.Name,
		Desc: s.Description,
	}
	if len(s.Parameters) > 0 {
		params := make(map[string]*schema.ParameterInfo, len(s.Parameters))
		for name, p := range s.Parameters {
			params[name] = &schema.ParameterInfo{
				Type:     paramTypeToDataType(p.Type),
				Desc:     p.Description,
				Required: p.Required,
				Enum:     p.Enum,
			}
		}
		info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	}
	return info
}

func paramTypeToDataType(t string) schema.DataType {
	switch t {
	case "string":
		return schema.String
	case "number":
		return schema.Number
	case "integer":
		return schema.Integer
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}

type ownerCtxKey struct{}

// withOwner returns a context carrying the requesting owner id for tool handlers.
func withOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, owner)
}

// ownerFromContext returns the owner id set by the dispatching orchestrator.
func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerCtxKey{}).(string)
	return owner
}

// MutationHook is invoked after a tool handler durably commits a task
// mutation. The wiring layer uses it for cache invalidation and event
// publishing; it must not affect the mutation's outcome.
type MutationHook func(ctx context.Context, owner, action, taskID string)

// Registry is the fixed catalog of tool operations available to the model.
type Registry struct {
	tools map[string]tool.InvokableTool
	order []string
}

// NewRegistry builds the task tool catalog. hook may be nil.
func NewRegistry(tasks repository.TaskStore, hook MutationHook) *Registry {
	if hook == nil {
		hook = func(context.Context, string, string, string) {}
	}
	r := &Registry{tools: make(map[string]tool.InvokableTool)}
	resolver := NewResolver(tasks)
	for _, t := range []tool.InvokableTool{
		&createTaskTool{tasks: tasks, hook: hook},
		&listTasksTool{tasks: tasks},
		&setTaskStatusTool{tasks: tasks, resolver: resolver, hook: hook},
		&deleteTaskTool{tasks: tasks, resolver: resolver, hook: hook},
		&updateTaskTool{tasks: tasks, resolver: resolver, hook: hook},
	} {
		info, _ := t.Info(context.Background())
		r.tools[info.Name] = t
		r.order = append(r.order, info.Name)
	}
	return r
}

// ToolInfos returns the catalog for binding to the model, in declaration order.
func (r *Registry) ToolInfos(ctx context.Context) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		info, err := r.tools[name].Info(ctx)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Dispatch executes a named tool call scoped to the owner and returns its
// result payload. Failures of any kind (unknown tool, malformed arguments,
// handler errors) come back as an error payload, never as a Go error, so one
// bad tool call cannot abort the turn.
func (r *Registry) Dispatch(ctx context.Context, owner, name, argumentsJSON string) map[string]interface{} {
	t, ok := r.tools[name]
	if !ok {
		return errPayload(fmt.Sprintf("Unknown tool: %s", name))
	}

	out, err := t.InvokableRun(withOwner(ctx, owner), argumentsJSON)
	if err != nil {
		logger.Warn(ctx, "Tool execution failed", "tool", name, "error", err)
		return errPayload(err.Error())
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		logger.Error(ctx, "Tool returned malformed payload", "tool", name, "error", err)
		return errPayload("tool returned a malformed result")
	}
	return result
}

func errPayload(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

// marshalPayload renders a tool result for the model. Marshal failures are
// reported as error payloads rather than propagated.
func marshalPayload(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(b), nil
}

// unmarshalArgs parses tool arguments, tolerating an empty argument string.
func unmarshalArgs(argumentsInJSON string, v interface{}) error {
	if strings.TrimSpace(argumentsInJSON) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), v); err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	return nil
}
