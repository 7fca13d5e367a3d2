// Package pipelinetest provides in-memory collaborators for exercising the
// pipeline end to end without Postgres, OpenAI, Azure or the Graph API.
package pipelinetest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/merchants"
	"github.com/rasaeel/rasaeel/internal/pipeline"
	"github.com/rasaeel/rasaeel/internal/speech"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

// StoredOrder is an order written through a merchant scope.
type StoredOrder struct {
	ID         uuid.UUID
	MerchantID uuid.UUID
	Status     string
	Order      tenant.NewOrder
}

// StoredTurn is a conversation turn with its owner.
type StoredTurn struct {
	MerchantID uuid.UUID
	Turn       tenant.Turn
}

// Store is an in-memory merchant directory and tenant repository.
type Store struct {
	mu        sync.Mutex
	merchants []merchants.Merchant
	catalog   map[uuid.UUID][]tenant.CatalogItem
	rules     map[uuid.UUID]tenant.BusinessRules
	turns     []StoredTurn
	orders    []StoredOrder
	clock     time.Time
	// FailTurns makes AppendTurns fail.
	FailTurns error
}

func NewStore() *Store {
	return &Store{
		catalog: map[uuid.UUID][]tenant.CatalogItem{},
		rules:   map[uuid.UUID]tenant.BusinessRules{},
		clock:   time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// AddMerchant registers a connected merchant for pageID.
func (s *Store) AddMerchant(pageID, businessName string) merchants.Merchant {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := merchants.Merchant{
		ID:              uuid.New(),
		UserIdentifier:  "user-" + pageID,
		PageIdentifier:  pageID,
		BusinessName:    businessName,
		PageAccessToken: "token-" + pageID,
	}
	s.merchants = append(s.merchants, m)
	return m
}

func (s *Store) AddCatalogItem(merchantID uuid.UUID, item tenant.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.catalog[merchantID] = append(s.catalog[merchantID], item)
}

func (s *Store) SetRules(merchantID uuid.UUID, rules tenant.BusinessRules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[merchantID] = rules
}

func (s *Store) Turns() []StoredTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.turns)
}

func (s *Store) Orders() []StoredOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

func (s *Store) Resolve(ctx context.Context, pageID string) (merchants.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.merchants {
		if m.PageIdentifier == pageID {
			return m, nil
		}
	}
	for _, m := range s.merchants {
		if m.UserIdentifier == pageID {
			return m, nil
		}
	}
	return merchants.Merchant{}, fmt.Errorf("%w: page %s", merchants.ErrUnknownMerchant, pageID)
}

func (s *Store) ByID(ctx context.Context, id uuid.UUID) (merchants.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.merchants {
		if m.ID == id {
			return m, nil
		}
	}
	return merchants.Merchant{}, fmt.Errorf("%w: id %s", merchants.ErrUnknownMerchant, id)
}

// Scope returns the repository bound to merchantID.
func (s *Store) Scope(merchantID uuid.UUID) pipeline.Repository {
	return &scope{store: s, merchantID: merchantID}
}

type scope struct {
	store      *Store
	merchantID uuid.UUID
}

func (c *scope) Catalog(ctx context.Context, limit int) ([]tenant.CatalogItem, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	items := c.store.catalog[c.merchantID]
	if len(items) > limit {
		items = items[:limit]
	}
	return slices.Clone(items), nil
}

func (c *scope) BusinessRules(ctx context.Context) (tenant.BusinessRules, bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	rules, ok := c.store.rules[c.merchantID]
	return rules, ok, nil
}

func (c *scope) KnowledgeBase(ctx context.Context, limit int) ([]tenant.KnowledgeDoc, error) {
	return nil, nil
}

func (c *scope) RecentTurns(ctx context.Context, customerID string, limit int) ([]tenant.Turn, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	var out []tenant.Turn
	for i := len(c.store.turns) - 1; i >= 0 && len(out) < limit; i-- {
		st := c.store.turns[i]
		if st.MerchantID == c.merchantID && st.Turn.CustomerID == customerID {
			out = append(out, st.Turn)
		}
	}
	return out, nil
}

func (c *scope) AppendTurns(ctx context.Context, turns ...tenant.Turn) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.FailTurns != nil {
		return c.store.FailTurns
	}
	for _, t := range turns {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		c.store.clock = c.store.clock.Add(time.Second)
		t.CreatedAt = c.store.clock
		c.store.turns = append(c.store.turns, StoredTurn{MerchantID: c.merchantID, Turn: t})
	}
	return nil
}

func (c *scope) CreateOrder(ctx context.Context, productName string, build tenant.OrderBuilder) (uuid.UUID, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	var (
		item  tenant.CatalogItem
		found bool
	)
	needle := strings.ToLower(productName)
	for _, it := range c.store.catalog[c.merchantID] {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			item, found = it, true
			break
		}
	}
	order, err := build(item, found)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	c.store.orders = append(c.store.orders, StoredOrder{ID: id, MerchantID: c.merchantID, Status: tenant.StatusPending, Order: order})
	return id, nil
}

// Invoker is a scripted llm.ToolInvoker.
type Invoker struct {
	mu       sync.Mutex
	requests []llm.ToolRequest
	// Respond returns the raw tool arguments for a request.
	Respond func(req llm.ToolRequest) (string, error)
}

func (i *Invoker) InvokeTool(ctx context.Context, req llm.ToolRequest) ([]byte, error) {
	i.mu.Lock()
	i.requests = append(i.requests, req)
	respond := i.Respond
	i.mu.Unlock()
	if respond == nil {
		return nil, fmt.Errorf("%w: no scripted response", llm.ErrNetwork)
	}
	raw, err := respond(req)
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (i *Invoker) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.requests)
}

// Requests returns the received requests in order.
func (i *Invoker) Requests() []llm.ToolRequest {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.requests)
}

// Args renders process_customer_message arguments.
func Args(analysis llm.ResponseAnalysis, order *llm.OrderEntities, reply string) string {
	if analysis.MentionedProducts == nil {
		analysis.MentionedProducts = []string{}
	}
	doc := map[string]any{
		"response_analysis":  analysis,
		"suggested_response": reply,
	}
	if order != nil {
		o := *order
		if o.MissingInfo == nil {
			o.MissingInfo = []string{}
		}
		doc["order_entities"] = o
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// Transcriber returns a fixed result.
type Transcriber struct {
	Disabled bool
	Result   speech.Result
	mu       sync.Mutex
	urls     []string
}

func (t *Transcriber) Enabled() bool { return !t.Disabled }

func (t *Transcriber) Transcribe(ctx context.Context, audioURL string) speech.Result {
	t.mu.Lock()
	t.urls = append(t.urls, audioURL)
	t.mu.Unlock()
	return t.Result
}

func (t *Transcriber) URLs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.urls)
}

// SentMessage is one SendText call.
type SentMessage struct {
	PageToken   string
	RecipientID string
	Text        string
}

// Sender records outbound messages.
type Sender struct {
	mu   sync.Mutex
	sent []SentMessage
	Err  error
}

func (s *Sender) SendText(ctx context.Context, pageToken, recipientID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentMessage{PageToken: pageToken, RecipientID: recipientID, Text: text})
	return s.Err
}

func (s *Sender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sent)
}

// Harness wires an Orchestrator to in-memory collaborators.
type Harness struct {
	Store        *Store
	Invoker      *Invoker
	Transcriber  *Transcriber
	Sender       *Sender
	Orchestrator *pipeline.Orchestrator
}

func NewHarness(tb testing.TB) *Harness {
	tb.Helper()
	h := &Harness{
		Store:       NewStore(),
		Invoker:     &Invoker{},
		Transcriber: &Transcriber{},
		Sender:      &Sender{},
	}
	dispatcher, err := llm.NewDispatcher(nil, h.Invoker, nil)
	if err != nil {
		tb.Fatalf("new dispatcher: %v", err)
	}
	h.Orchestrator = pipeline.NewOrchestrator(nil, pipeline.Deps{
		Resolver:    h.Store,
		Scopes:      h.Store.Scope,
		Transcriber: h.Transcriber,
		Dispatcher:  dispatcher,
		Sender:      h.Sender,
	})
	return h
}
