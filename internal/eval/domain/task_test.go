package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemTask struct{}

func (itemTask) InvokeItem(_ context.Context, item Item, _ InvocationContext) (interface{}, error) {
	return item.Expected, nil
}

type fieldsTask struct {
	gotFields map[string]interface{}
}

func (t *fieldsTask) InvokeFields(_ context.Context, fields map[string]interface{}, _ InvocationContext) (interface{}, error) {
	t.gotFields = fields
	return fields["input"], nil
}

type richTask struct{}

func (richTask) Invoke(_ context.Context, input interface{}, _ InvocationContext) (interface{}, error) {
	return input, nil
}

func (richTask) InvokeItem(_ context.Context, item Item, _ InvocationContext) (interface{}, error) {
	return item, nil
}

func TestBindTask_InputOnly(t *testing.T) {
	task := TaskFunc(func(_ context.Context, input interface{}, _ InvocationContext) (interface{}, error) {
		return input, nil
	})
	bound, err := BindTask(task)
	require.NoError(t, err)
	assert.Equal(t, BindInput, bound.Binding)

	out, err := bound.Invoke(context.Background(), Item{Input: "hello"}, InvocationContext{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestBindTask_WholeItem(t *testing.T) {
	bound, err := BindTask(itemTask{})
	require.NoError(t, err)
	assert.Equal(t, BindItem, bound.Binding)

	out, err := bound.Invoke(context.Background(), Item{Input: "in", Expected: "exp"}, InvocationContext{})
	require.NoError(t, err)
	assert.Equal(t, "exp", out)
}

func TestBindTask_Fields(t *testing.T) {
	task := &fieldsTask{}
	bound, err := BindTask(task)
	require.NoError(t, err)
	assert.Equal(t, BindFields, bound.Binding)

	item := Item{
		Input:    "in",
		Expected: "exp",
		Metadata: map[string]interface{}{"language": "en"},
	}
	out, err := bound.Invoke(context.Background(), item, InvocationContext{})
	require.NoError(t, err)
	assert.Equal(t, "in", out)
	assert.Equal(t, "en", task.gotFields["language"])
	assert.Equal(t, "exp", task.gotFields["expected"])
}

func TestBindTask_RicherBindingWins(t *testing.T) {
	bound, err := BindTask(richTask{})
	require.NoError(t, err)
	assert.Equal(t, BindItem, bound.Binding)
}

func TestBindTask_RejectsNonTask(t *testing.T) {
	_, err := BindTask(nil)
	assert.Error(t, err)

	_, err = BindTask("not a task")
	assert.Error(t, err)
}
