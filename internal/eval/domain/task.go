package domain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
)

// InvocationContext carries correlation identifiers into a task invocation.
type InvocationContext struct {
	RunId     string
	JobId     string
	JobName   string
	ItemIndex int
}

// Invoker is the plainest task capability: it receives only the item's input.
type Invoker interface {
	Invoke(ctx context.Context, input interface{}, ic InvocationContext) (interface{}, error)
}

// ItemInvoker is implemented by tasks that want the whole item, e.g. to read
// the expected output or metadata.
type ItemInvoker interface {
	InvokeItem(ctx context.Context, item Item, ic InvocationContext) (interface{}, error)
}

// FieldsInvoker is implemented by tasks that bind arguments by name. The
// fields map contains the item's metadata plus "input" and "expected".
type FieldsInvoker interface {
	InvokeFields(ctx context.Context, fields map[string]interface{}, ic InvocationContext) (interface{}, error)
}

// TaskFunc adapts a plain function to Invoker.
type TaskFunc func(ctx context.Context, input interface{}, ic InvocationContext) (interface{}, error)

func (f TaskFunc) Invoke(ctx context.Context, input interface{}, ic InvocationContext) (interface{}, error) {
	return f(ctx, input, ic)
}

// Binding identifies how arguments are passed to a task. The strategy is
// chosen once, when the task is bound at job construction, and cached; the
// executor never re-inspects the task per item.
type Binding int

const (
	// BindItem passes the whole Item.
	BindItem Binding = iota
	// BindFields passes a map of named fields.
	BindFields
	// BindInput passes only the item's input.
	BindInput
)

func (b Binding) String() string {
	switch b {
	case BindItem:
		return "item"
	case BindFields:
		return "fields"
	case BindInput:
		return "input"
	}
	return "unknown"
}

// BoundTask is a task capability paired with its precomputed binding
// strategy.
type BoundTask struct {
	Binding Binding

	item   ItemInvoker
	fields FieldsInvoker
	input  Invoker
}

// BindTask inspects the task value once and fixes the argument-binding
// strategy. Richer bindings win: a task exposing InvokeItem gets the whole
// item even if it also implements Invoke.
func BindTask(task interface{}) (*BoundTask, error) {
	if task == nil {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Task",
			Value:   task,
			Message: "not provided",
		})
	}
	if t, ok := task.(ItemInvoker); ok {
		return &BoundTask{Binding: BindItem, item: t}, nil
	}
	if t, ok := task.(FieldsInvoker); ok {
		return &BoundTask{Binding: BindFields, fields: t}, nil
	}
	if t, ok := task.(Invoker); ok {
		return &BoundTask{Binding: BindInput, input: t}, nil
	}
	return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
		Name:    "Task",
		Value:   task,
		Message: "does not implement any task invocation interface",
	})
}

// Invoke calls the underlying task with arguments shaped per the cached
// binding strategy.
func (t *BoundTask) Invoke(ctx context.Context, item Item, ic InvocationContext) (interface{}, error) {
	switch t.Binding {
	case BindItem:
		return t.item.InvokeItem(ctx, item, ic)
	case BindFields:
		fields := make(map[string]interface{}, len(item.Metadata)+2)
		for k, v := range item.Metadata {
			fields[k] = v
		}
		fields["input"] = item.Input
		fields["expected"] = item.Expected
		return t.fields.InvokeFields(ctx, fields, ic)
	default:
		return t.input.Invoke(ctx, item.Input, ic)
	}
}
