package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rasaeel/rasaeel/internal/contextload"
)

// OrderPlacer persists a ready order for the current merchant.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, entities OrderEntities, customerID string) (uuid.UUID, error)
}

// ErrOrderRefused is returned by an OrderPlacer that declines an incomplete
// draft. The reply then goes out untagged, since the model already asked for
// the missing fields.
var ErrOrderRefused = errors.New("order refused")

type DispatchInput struct {
	Snapshot   contextload.Snapshot
	CustomerID string
	Message    string
	IsVoice    bool
	// Orders is nil for dry runs; ready orders are then reported, not placed.
	Orders OrderPlacer
}

// OrderResult describes the order hand-off of one dispatch.
type OrderResult struct {
	Attempted bool
	ID        uuid.UUID
	Err       error
}

// Outcome is always usable: Reply is the text to send even when Err is set.
type Outcome struct {
	Reply string
	// Arguments is nil after a short-circuit or a failed model call.
	Arguments      *ToolArguments
	ShortCircuited bool
	Escalated      bool
	Fallback       bool
	Order          OrderResult
	Err            error
}

// Analysis returns the model's analysis when one is available.
func (o Outcome) Analysis() *ResponseAnalysis {
	if o.Arguments == nil {
		return nil
	}
	return &o.Arguments.Analysis
}

type Dispatcher struct {
	invoker    ToolInvoker
	parser     *ArgumentParser
	escalation *EscalationMatcher
	logger     *slog.Logger
}

func NewDispatcher(log *slog.Logger, invoker ToolInvoker, escalation *EscalationMatcher) (*Dispatcher, error) {
	if log == nil {
		log = slog.Default()
	}
	parser, err := NewArgumentParser()
	if err != nil {
		return nil, err
	}
	if escalation == nil {
		escalation = NewEscalationMatcher(DefaultEscalationKeywords)
	}
	return &Dispatcher{
		invoker:    invoker,
		parser:     parser,
		escalation: escalation,
		logger:     log.With(slog.String("service", "llm")),
	}, nil
}

// Dispatch produces the reply for one customer message.
func (d *Dispatcher) Dispatch(ctx context.Context, in DispatchInput) Outcome {
	if kw, ok := d.escalation.Match(in.Message); ok {
		d.logger.Info("escalation keyword matched", slog.String("keyword", kw), slog.String("customer_id", in.CustomerID))
		return Outcome{
			Reply:          appendTag(EscalationReply, TagNeedsHuman),
			ShortCircuited: true,
			Escalated:      true,
		}
	}

	args, err := d.invoke(ctx, in)
	if err != nil {
		d.logger.Error("dispatch failed", slog.String("customer_id", in.CustomerID), slog.Any("error", err))
		return Outcome{Reply: FallbackReply, Fallback: true, Err: err}
	}

	out := Outcome{Reply: args.SuggestedResponse, Arguments: &args}
	if args.Analysis.RequiresEscalation {
		out.Escalated = true
		out.Reply = appendTag(out.Reply, TagNeedsHuman)
	}
	if order, ready := args.ReadyOrder(); ready && in.Orders != nil {
		out.Order.Attempted = true
		id, err := in.Orders.PlaceOrder(ctx, order, in.CustomerID)
		switch {
		case err == nil:
			out.Order.ID = id
			out.Reply = appendTag(out.Reply, TagOrderCreated)
		case errors.Is(err, ErrOrderRefused):
			out.Order.Err = err
			d.logger.Warn("order refused", slog.String("customer_id", in.CustomerID), slog.Any("error", err))
		default:
			out.Order.Err = err
			out.Reply = appendTag(out.Reply, TagOrderCreationFailed)
			d.logger.Error("order creation failed", slog.String("customer_id", in.CustomerID), slog.Any("error", err))
		}
	}
	return out
}

func (d *Dispatcher) invoke(ctx context.Context, in DispatchInput) (ToolArguments, error) {
	if d.invoker == nil {
		return ToolArguments{}, fmt.Errorf("%w: no model configured", ErrNetwork)
	}
	payload, err := BuildContext(in.Snapshot, in.CustomerID, in.Message, in.IsVoice).JSON()
	if err != nil {
		return ToolArguments{}, fmt.Errorf("%w: encode context: %v", ErrParse, err)
	}
	raw, err := d.invoker.InvokeTool(ctx, ToolRequest{
		SystemPrompt: SystemPrompt(in.Snapshot.Rules.CustomPrompt),
		UserContent:  payload,
		Tool:         Tool(),
		MaxTokens:    MaxTokens,
		Temperature:  Temperature,
	})
	if err != nil {
		if errors.Is(err, ErrParse) || errors.Is(err, ErrNetwork) {
			return ToolArguments{}, err
		}
		return ToolArguments{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return d.parser.Parse(raw)
}

func appendTag(reply, tag string) string {
	return strings.TrimRight(reply, " \n") + "\n\n" + tag
}
