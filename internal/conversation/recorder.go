// Package conversation records customer and assistant turns.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

// TurnWriter is the append-only turn store; *tenant.Scope implements it.
type TurnWriter interface {
	AppendTurns(ctx context.Context, turns ...tenant.Turn) error
}

// VoicePrefix marks customer turns that came from a voice note.
const VoicePrefix = "[Voice] "

type RecordInput struct {
	CustomerID   string
	CustomerText string
	IsVoice      bool
	Reply        string
	// Analysis is nil when the model was not consulted or failed.
	Analysis *llm.ResponseAnalysis
	Catalog  []tenant.CatalogItem
}

type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{logger: log.With(slog.String("service", "conversation"))}
}

// Record appends the customer turn followed by the assistant turn.
func (r *Recorder) Record(ctx context.Context, w TurnWriter, in RecordInput) error {
	customer, assistant := r.Turns(in)
	if err := w.AppendTurns(ctx, customer, assistant); err != nil {
		return fmt.Errorf("record conversation: %w", err)
	}
	r.logger.Debug("conversation recorded",
		slog.String("customer_id", in.CustomerID),
		slog.String("intent", customer.Intent),
		slog.String("sentiment", customer.Sentiment),
	)
	return nil
}

// Turns builds the two turns Record would write.
func (r *Recorder) Turns(in RecordInput) (tenant.Turn, tenant.Turn) {
	customer := tenant.Turn{
		CustomerID: in.CustomerID,
		Text:       in.CustomerText,
		Role:       tenant.RoleCustomer,
	}
	if in.IsVoice {
		customer.Text = VoicePrefix + in.CustomerText
	}
	if a := in.Analysis; a != nil && a.Sentiment != "" && a.CustomerIntent != "" {
		customer.Sentiment = string(a.Sentiment)
		customer.Intent = string(a.CustomerIntent)
		customer.Products = slices.Clone(a.MentionedProducts)
	} else {
		c := Classify(in.CustomerText, in.Catalog)
		customer.Sentiment, customer.Intent, customer.Products = c.Sentiment, c.Intent, c.Products
	}
	if customer.Products == nil {
		customer.Products = []string{}
	}
	assistant := tenant.Turn{
		CustomerID: in.CustomerID,
		Text:       in.Reply,
		Role:       tenant.RoleAssistant,
		Sentiment:  string(llm.SentimentNeutral),
		Intent:     IntentResponse,
		Products:   []string{},
	}
	return customer, assistant
}
