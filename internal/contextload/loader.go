package contextload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rasaeel/rasaeel/internal/tenant"
)

const (
	CatalogLimit   = 10
	KnowledgeLimit = 5
	HistoryLimit   = 10
)

// Source is the merchant-bound read surface; *tenant.Scope implements it.
type Source interface {
	Catalog(ctx context.Context, limit int) ([]tenant.CatalogItem, error)
	BusinessRules(ctx context.Context) (tenant.BusinessRules, bool, error)
	KnowledgeBase(ctx context.Context, limit int) ([]tenant.KnowledgeDoc, error)
	RecentTurns(ctx context.Context, customerID string, limit int) ([]tenant.Turn, error)
}

// Snapshot is everything the dispatcher needs about one merchant and customer.
type Snapshot struct {
	Catalog   []tenant.CatalogItem
	Rules     tenant.BusinessRules
	HasRules  bool
	Knowledge []tenant.KnowledgeDoc
	// History is newest first, as stored.
	History []tenant.Turn
}

type Loader struct {
	logger *slog.Logger
}

func NewLoader(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{logger: log.With(slog.String("service", "contextload"))}
}

// Load reads the four context sources concurrently. businessName fills the
// default rules used when the merchant has none.
func (l *Loader) Load(ctx context.Context, src Source, customerID, businessName string) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := src.Catalog(gctx, CatalogLimit)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		snap.Catalog = items
		return nil
	})
	g.Go(func() error {
		rules, found, err := src.BusinessRules(gctx)
		if err != nil {
			return fmt.Errorf("business rules: %w", err)
		}
		snap.Rules, snap.HasRules = rules, found
		return nil
	})
	g.Go(func() error {
		docs, err := src.KnowledgeBase(gctx, KnowledgeLimit)
		if err != nil {
			return fmt.Errorf("knowledge base: %w", err)
		}
		snap.Knowledge = docs
		return nil
	})
	g.Go(func() error {
		turns, err := src.RecentTurns(gctx, customerID, HistoryLimit)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		snap.History = turns
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	if !snap.HasRules {
		snap.Rules = DefaultRules(businessName)
	} else if strings.TrimSpace(snap.Rules.BusinessName) == "" {
		snap.Rules.BusinessName = businessName
	}
	clip(&snap)
	l.logger.Debug("context loaded",
		slog.Int("catalog", len(snap.Catalog)),
		slog.Int("knowledge", len(snap.Knowledge)),
		slog.Int("history", len(snap.History)),
		slog.Bool("has_rules", snap.HasRules),
	)
	return snap, nil
}

// DefaultRules are applied when a merchant has not configured business rules.
func DefaultRules(businessName string) tenant.BusinessRules {
	if strings.TrimSpace(businessName) == "" {
		businessName = "our store"
	}
	return tenant.BusinessRules{
		BusinessName:       businessName,
		BusinessType:       "online store",
		WorkingHours:       "Daily 9:00-21:00",
		DeliveryInfo:       "Delivery available; ask for details",
		PaymentMethods:     "Cash on delivery",
		LanguagePreference: "auto",
		ResponseTone:       "friendly",
	}
}

func clip(snap *Snapshot) {
	if len(snap.Catalog) > CatalogLimit {
		snap.Catalog = snap.Catalog[:CatalogLimit]
	}
	if len(snap.Knowledge) > KnowledgeLimit {
		snap.Knowledge = snap.Knowledge[:KnowledgeLimit]
	}
	if len(snap.History) > HistoryLimit {
		snap.History = snap.History[:HistoryLimit]
	}
}
