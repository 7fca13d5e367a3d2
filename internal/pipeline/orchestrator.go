// Package pipeline runs one Instagram messaging event from merchant
// resolution to the outbound reply.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rasaeel/rasaeel/internal/contextload"
	"github.com/rasaeel/rasaeel/internal/conversation"
	"github.com/rasaeel/rasaeel/internal/instagram"
	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/merchants"
	"github.com/rasaeel/rasaeel/internal/observability"
	"github.com/rasaeel/rasaeel/internal/orders"
	"github.com/rasaeel/rasaeel/internal/speech"
)

const tracerName = "github.com/rasaeel/rasaeel/internal/pipeline"

// Repository is everything the pipeline reads and writes for one merchant.
type Repository interface {
	contextload.Source
	conversation.TurnWriter
	orders.Repository
}

// ScopeFunc returns the repository bound to a merchant.
type ScopeFunc func(merchantID uuid.UUID) Repository

type MerchantResolver interface {
	Resolve(ctx context.Context, pageID string) (merchants.Merchant, error)
	ByID(ctx context.Context, id uuid.UUID) (merchants.Merchant, error)
}

type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, audioURL string) speech.Result
}

type Sender interface {
	SendText(ctx context.Context, pageToken, recipientID, text string) error
}

// Skip reasons reported for events that end before a reply is produced.
const (
	SkipNotMessage    = "not_message"
	SkipInvalidEvent  = "invalid_event"
	SkipEmpty         = "empty"
	SkipVoiceDisabled = "voice_disabled"
)

// Result summarises one handled event.
type Result struct {
	Skipped    string
	MerchantID uuid.UUID
	CustomerID string
	Text       string
	IsVoice    bool
	Reply      string
	Outcome    llm.Outcome
	Recorded   bool
	Sent       bool
}

type Deps struct {
	Resolver    MerchantResolver
	Scopes      ScopeFunc
	Loader      *contextload.Loader
	Transcriber Transcriber
	Dispatcher  *llm.Dispatcher
	Orders      *orders.Extractor
	Recorder    *conversation.Recorder
	Sender      Sender
}

type Orchestrator struct {
	deps   Deps
	tracer trace.Tracer
	logger *slog.Logger
}

func NewOrchestrator(log *slog.Logger, deps Deps) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if deps.Loader == nil {
		deps.Loader = contextload.NewLoader(log)
	}
	if deps.Orders == nil {
		deps.Orders = orders.NewExtractor(log)
	}
	if deps.Recorder == nil {
		deps.Recorder = conversation.NewRecorder(log)
	}
	return &Orchestrator{
		deps:   deps,
		tracer: otel.Tracer(tracerName),
		logger: log.With(slog.String("service", "pipeline")),
	}
}

// HandleEvent processes one messaging event addressed to pageID. Each step
// ends the event on failure; side effects already persisted remain.
func (o *Orchestrator) HandleEvent(ctx context.Context, pageID string, event instagram.MessagingEvent) (res Result, err error) {
	ctx, end := observability.Track(ctx, o.tracer, "pipeline.handle_event",
		attribute.String("page_id", pageID),
		attribute.String("customer_id", event.Sender.ID),
	)
	defer func() { end(err) }()

	if !event.IsMessage() {
		return Result{Skipped: SkipNotMessage}, nil
	}
	if !event.Valid() {
		return Result{Skipped: SkipInvalidEvent}, nil
	}
	res.CustomerID = event.Sender.ID
	res.Text = event.Text()
	audioURL, hasAudio := event.AudioURL()
	if res.Text == "" && !hasAudio {
		return Result{Skipped: SkipEmpty, CustomerID: res.CustomerID}, nil
	}

	if res.Text == "" {
		if o.deps.Transcriber == nil || !o.deps.Transcriber.Enabled() {
			o.logger.Warn("voice message skipped", slog.String("customer_id", res.CustomerID), slog.Any("error", ErrVoiceDisabled))
			return Result{Skipped: SkipVoiceDisabled, CustomerID: res.CustomerID}, nil
		}
		tctx, tend := observability.Track(ctx, o.tracer, "pipeline.transcribe")
		tr := o.deps.Transcriber.Transcribe(tctx, audioURL)
		tend(tr.Err)
		res.Text, res.IsVoice = tr.Text, true
		if tr.Failed() {
			o.logger.Warn("continuing with transcription sentinel", slog.String("customer_id", res.CustomerID), slog.Any("error", tr.Err))
		}
	}

	rctx, rend := observability.Track(ctx, o.tracer, "pipeline.resolve_merchant")
	merchant, err := o.deps.Resolver.Resolve(rctx, pageID)
	rend(err)
	if err != nil {
		o.logger.Warn("merchant not resolved", slog.String("page_id", pageID), slog.Any("error", err))
		return res, err
	}
	res.MerchantID = merchant.ID
	return o.respond(ctx, merchant, res)
}

func (o *Orchestrator) respond(ctx context.Context, merchant merchants.Merchant, res Result) (Result, error) {
	log := o.logger.With(slog.String("merchant_id", merchant.ID.String()), slog.String("customer_id", res.CustomerID))
	repo := o.deps.Scopes(merchant.ID)

	snap, err := o.load(ctx, repo, merchant, res.CustomerID)
	if err != nil {
		log.Error("context load failed", slog.Any("error", err))
		return res, err
	}

	dctx, dend := observability.Track(ctx, o.tracer, "pipeline.dispatch")
	out := o.deps.Dispatcher.Dispatch(dctx, llm.DispatchInput{
		Snapshot:   snap,
		CustomerID: res.CustomerID,
		Message:    res.Text,
		IsVoice:    res.IsVoice,
		Orders:     o.deps.Orders.For(repo),
	})
	dend(out.Err)
	res.Outcome, res.Reply = out, out.Reply

	cctx, cend := observability.Track(ctx, o.tracer, "pipeline.record")
	err = o.deps.Recorder.Record(cctx, repo, conversation.RecordInput{
		CustomerID:   res.CustomerID,
		CustomerText: res.Text,
		IsVoice:      res.IsVoice,
		Reply:        out.Reply,
		Analysis:     out.Analysis(),
		Catalog:      snap.Catalog,
	})
	cend(err)
	if err != nil {
		log.Error("conversation not recorded", slog.Any("error", err))
	} else {
		res.Recorded = true
	}

	sctx, send := observability.Track(ctx, o.tracer, "pipeline.send")
	err = o.deps.Sender.SendText(sctx, merchant.PageAccessToken, res.CustomerID, out.Reply)
	send(err)
	if err != nil {
		log.Error("reply not sent", slog.Any("error", err))
		return res, err
	}
	res.Sent = true
	log.Info("reply sent",
		slog.Bool("escalated", out.Escalated),
		slog.Bool("fallback", out.Fallback),
		slog.Bool("order_attempted", out.Order.Attempted),
		slog.Bool("voice", res.IsVoice),
	)
	return res, nil
}

func (o *Orchestrator) load(ctx context.Context, repo Repository, merchant merchants.Merchant, customerID string) (contextload.Snapshot, error) {
	ctx, end := observability.Track(ctx, o.tracer, "pipeline.load_context")
	snap, err := o.deps.Loader.Load(ctx, repo, customerID, merchant.BusinessName)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrContextLoad, err)
	}
	end(err)
	return snap, err
}

// Preview is the dry-run result of Simulate.
type Preview struct {
	Reply   string
	Outcome llm.Outcome
}

// Simulate runs context loading and dispatch for a merchant without placing
// orders, recording turns or sending.
func (o *Orchestrator) Simulate(ctx context.Context, merchantID uuid.UUID, customerID, text string) (Preview, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Preview{}, ErrEmptyMessage
	}
	merchant, err := o.deps.Resolver.ByID(ctx, merchantID)
	if err != nil {
		return Preview{}, err
	}
	if strings.TrimSpace(customerID) == "" {
		customerID = "simulator"
	}
	snap, err := o.load(ctx, o.deps.Scopes(merchant.ID), merchant, customerID)
	if err != nil {
		return Preview{}, err
	}
	out := o.deps.Dispatcher.Dispatch(ctx, llm.DispatchInput{
		Snapshot:   snap,
		CustomerID: customerID,
		Message:    text,
	})
	return Preview{Reply: out.Reply, Outcome: out}, nil
}
