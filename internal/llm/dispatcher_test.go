package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasaeel/rasaeel/internal/contextload"
)

type fakeInvoker struct {
	raw   string
	err   error
	calls []ToolRequest
}

func (f *fakeInvoker) InvokeTool(ctx context.Context, req ToolRequest) ([]byte, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.raw), nil
}

type fakePlacer struct {
	id     uuid.UUID
	err    error
	placed []OrderEntities
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, entities OrderEntities, customerID string) (uuid.UUID, error) {
	f.placed = append(f.placed, entities)
	return f.id, f.err
}

func analysisArgs(intent Intent, escalate bool, reply string) string {
	return fmt.Sprintf(`{"response_analysis":{"detected_language":"english","customer_intent":%q,"mentioned_products":[],"requires_escalation":%t,"sentiment":"neutral"},"suggested_response":%q}`,
		intent, escalate, reply)
}

func newTestDispatcher(t *testing.T, inv ToolInvoker) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(nil, inv, nil)
	require.NoError(t, err)
	return d
}

func testInput(msg string) DispatchInput {
	return DispatchInput{
		Snapshot:   contextload.Snapshot{Rules: contextload.DefaultRules("Shop")},
		CustomerID: "cust-1",
		Message:    msg,
	}
}

func TestDispatchEscalationKeywordSkipsModel(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{raw: analysisArgs(IntentGeneralChat, false, "hi")}
	out := newTestDispatcher(t, inv).Dispatch(context.Background(), testInput("بدي احكي مع المدير"))

	assert.Empty(t, inv.calls)
	assert.True(t, out.ShortCircuited)
	assert.True(t, out.Escalated)
	assert.Nil(t, out.Analysis())
	assert.Equal(t, EscalationReply+"\n\n"+TagNeedsHuman, out.Reply)
}

func TestDispatchPlainReply(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{raw: analysisArgs(IntentPriceCheck, false, "The dress is 25.500 JOD.")}
	in := testInput("how much is the dress")
	in.Snapshot.Rules.CustomPrompt = "Use emojis"
	out := newTestDispatcher(t, inv).Dispatch(context.Background(), in)

	require.NoError(t, out.Err)
	assert.Equal(t, "The dress is 25.500 JOD.", out.Reply)
	require.NotNil(t, out.Analysis())
	assert.Equal(t, IntentPriceCheck, out.Analysis().CustomerIntent)

	require.Len(t, inv.calls, 1)
	req := inv.calls[0]
	assert.Equal(t, ToolName, req.Tool.Name)
	assert.EqualValues(t, MaxTokens, req.MaxTokens)
	assert.InDelta(t, Temperature, req.Temperature, 0.0001)
	assert.True(t, strings.HasSuffix(req.SystemPrompt, "Use emojis"))
	assert.Contains(t, req.UserContent, `"current_message":"how much is the dress"`)
}

func TestDispatchModelEscalation(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{raw: analysisArgs(IntentComplaint, true, "We are sorry.")}
	out := newTestDispatcher(t, inv).Dispatch(context.Background(), testInput("this is unacceptable"))

	assert.True(t, out.Escalated)
	assert.False(t, out.ShortCircuited)
	assert.Equal(t, "We are sorry.\n\n"+TagNeedsHuman, out.Reply)
}

func TestDispatchFallbacks(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		inv  ToolInvoker
		want error
	}{
		"network":    {inv: &fakeInvoker{err: errors.New("connection reset")}, want: ErrNetwork},
		"parse":      {inv: &fakeInvoker{raw: `{"suggested_response":"x"}`}, want: ErrParse},
		"no tool":    {inv: &fakeInvoker{err: fmt.Errorf("%w: model did not call", ErrParse)}, want: ErrParse},
		"no invoker": {inv: nil, want: ErrNetwork},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out := newTestDispatcher(t, tc.inv).Dispatch(context.Background(), testInput("hello"))
			assert.Equal(t, FallbackReply, out.Reply)
			assert.True(t, out.Fallback)
			assert.ErrorIs(t, out.Err, tc.want)
		})
	}
}

func TestDispatchOrderHandOff(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	cases := map[string]struct {
		placer *fakePlacer
		tag    string
	}{
		"created": {placer: &fakePlacer{id: id}, tag: TagOrderCreated},
		"failed":  {placer: &fakePlacer{err: errors.New("insert failed")}, tag: TagOrderCreationFailed},
		"refused": {placer: &fakePlacer{err: fmt.Errorf("%w: missing phone", ErrOrderRefused)}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := testInput("I want 2 red dresses")
			in.Orders = tc.placer
			out := newTestDispatcher(t, &fakeInvoker{raw: orderArgs}).Dispatch(context.Background(), in)

			require.Len(t, tc.placer.placed, 1)
			assert.Equal(t, "Red Dress", tc.placer.placed[0].ProductName)
			assert.True(t, out.Order.Attempted)
			if tc.tag == "" {
				assert.Equal(t, "تم تسجيل طلبك", out.Reply)
				assert.ErrorIs(t, out.Order.Err, ErrOrderRefused)
				return
			}
			assert.Equal(t, "تم تسجيل طلبك\n\n"+tc.tag, out.Reply)
			if tc.tag == TagOrderCreated {
				assert.Equal(t, id, out.Order.ID)
			}
		})
	}
}

func TestDispatchDryRunDoesNotPlaceOrders(t *testing.T) {
	t.Parallel()

	out := newTestDispatcher(t, &fakeInvoker{raw: orderArgs}).Dispatch(context.Background(), testInput("order"))

	assert.False(t, out.Order.Attempted)
	assert.Equal(t, "تم تسجيل طلبك", out.Reply)
	_, ready := out.Arguments.ReadyOrder()
	assert.True(t, ready)
}
