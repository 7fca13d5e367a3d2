// Package tenant exposes the merchant-owned tables through a repository bound
// to a single merchant. Every query helper passes the bound merchant id as the
// first statement parameter.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rasaeel/rasaeel/internal/db/sqlc"
)

// DB is the connection surface the store needs; *pgxpool.Pool satisfies it.
type DB interface {
	sqlc.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store hands out merchant-bound scopes.
type Store struct {
	db     DB
	logger *slog.Logger
}

func NewStore(log *slog.Logger, db DB) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, logger: log.With(slog.String("service", "tenant"))}
}

// ForMerchant returns a repository whose queries only see merchantID's rows.
func (s *Store) ForMerchant(merchantID uuid.UUID) *Scope {
	return &Scope{
		merchantID: merchantID,
		db:         s.db,
		queries:    sqlc.New(s.db),
		logger:     s.logger.With(slog.String("merchant_id", merchantID.String())),
	}
}

// Scope is a repository bound to one merchant.
type Scope struct {
	merchantID uuid.UUID
	db         DB
	queries    *sqlc.Queries
	logger     *slog.Logger
}

func (s *Scope) MerchantID() uuid.UUID {
	return s.merchantID
}

// Catalog lists up to limit catalog items.
func (s *Scope) Catalog(ctx context.Context, limit int) ([]CatalogItem, error) {
	rows, err := s.queries.ListCatalogItems(ctx, sqlc.ListCatalogItemsParams{
		UserID: s.merchantID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	items := make([]CatalogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, CatalogItem{
			ID:          row.ID,
			SKU:         row.Sku,
			Name:        row.Name,
			Description: row.Description,
			Price:       row.Price,
			Stock:       row.Stock,
			Category:    row.Category,
			ProductLink: row.ProductLink,
			MediaLink:   row.MediaLink,
		})
	}
	return items, nil
}

// BusinessRules returns the merchant's rules; found is false when none exist.
func (s *Scope) BusinessRules(ctx context.Context) (BusinessRules, bool, error) {
	row, err := s.queries.GetBusinessRules(ctx, s.merchantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return BusinessRules{}, false, nil
	}
	if err != nil {
		return BusinessRules{}, false, fmt.Errorf("get business rules: %w", err)
	}
	return BusinessRules{
		BusinessName:       row.BusinessName,
		BusinessType:       row.BusinessType,
		WorkingHours:       row.WorkingHours,
		DeliveryInfo:       row.DeliveryInfo,
		PaymentMethods:     row.PaymentMethods,
		ReturnPolicy:       row.ReturnPolicy,
		Terms:              row.Terms,
		ContactInfo:        row.ContactInfo,
		CustomPrompt:       row.CustomPrompt,
		AIInstructions:     row.AiInstructions,
		LanguagePreference: row.LanguagePreference,
		ResponseTone:       row.ResponseTone,
	}, true, nil
}

// KnowledgeBase lists up to limit documents, newest first.
func (s *Scope) KnowledgeBase(ctx context.Context, limit int) ([]KnowledgeDoc, error) {
	rows, err := s.queries.ListKBDocuments(ctx, sqlc.ListKBDocumentsParams{
		UserID: s.merchantID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list knowledge base: %w", err)
	}
	docs := make([]KnowledgeDoc, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, KnowledgeDoc{
			ID:        row.ID,
			Title:     row.Title,
			Content:   row.Content,
			CreatedAt: row.CreatedAt.Time,
		})
	}
	return docs, nil
}

// RecentTurns lists the customer's last limit turns, newest first.
func (s *Scope) RecentTurns(ctx context.Context, customerID string, limit int) ([]Turn, error) {
	rows, err := s.queries.ListRecentConversationTurns(ctx, sqlc.ListRecentConversationTurnsParams{
		UserID:     s.merchantID,
		CustomerID: customerID,
		Limit:      int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list conversation turns: %w", err)
	}
	turns := make([]Turn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, Turn{
			ID:         row.ID,
			CustomerID: row.CustomerID,
			Text:       row.MessageText,
			Role:       row.Role,
			Sentiment:  row.Sentiment,
			Intent:     row.Intent,
			Products:   row.ProductsMentioned,
			CreatedAt:  row.CreatedAt.Time,
		})
	}
	return turns, nil
}

// AppendTurns inserts turns in order inside one transaction. Turns are never
// updated afterwards.
func (s *Scope) AppendTurns(ctx context.Context, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return s.inTx(ctx, func(q *sqlc.Queries) error {
		for _, turn := range turns {
			id := turn.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			products := turn.Products
			if products == nil {
				products = []string{}
			}
			if _, err := q.InsertConversationTurn(ctx, sqlc.InsertConversationTurnParams{
				UserID:            s.merchantID,
				ID:                id,
				CustomerID:        turn.CustomerID,
				MessageText:       turn.Text,
				Role:              turn.Role,
				Sentiment:         turn.Sentiment,
				Intent:            turn.Intent,
				ProductsMentioned: products,
			}); err != nil {
				return fmt.Errorf("insert %s turn: %w", turn.Role, err)
			}
		}
		return nil
	})
}

// CreateOrder looks up productName in the catalog and inserts the order built
// from the match inside a single transaction.
func (s *Scope) CreateOrder(ctx context.Context, productName string, build OrderBuilder) (uuid.UUID, error) {
	var orderID uuid.UUID
	err := s.inTx(ctx, func(q *sqlc.Queries) error {
		var (
			item  CatalogItem
			found bool
		)
		row, err := q.FindCatalogItemByName(ctx, sqlc.FindCatalogItemByNameParams{
			UserID: s.merchantID,
			Name:   containsPattern(productName),
		})
		switch {
		case err == nil:
			found = true
			item = CatalogItem{
				ID:          row.ID,
				SKU:         row.Sku,
				Name:        row.Name,
				Description: row.Description,
				Price:       row.Price,
				Stock:       row.Stock,
				Category:    row.Category,
				ProductLink: row.ProductLink,
				MediaLink:   row.MediaLink,
			}
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return fmt.Errorf("find catalog item: %w", err)
		}

		order, err := build(item, found)
		if err != nil {
			return err
		}
		orderID, err = q.InsertOrder(ctx, sqlc.InsertOrderParams{
			UserID:          s.merchantID,
			ID:              uuid.New(),
			Sku:             order.SKU,
			Quantity:        order.Quantity,
			CustomerName:    order.CustomerName,
			CustomerPhone:   order.CustomerPhone,
			DeliveryAddress: order.DeliveryAddress,
			TotalAmount:     order.TotalAmount,
			Notes:           order.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return orderID, nil
}

func (s *Scope) inTx(ctx context.Context, fn func(q *sqlc.Queries) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Warn("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()
	if err = fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching name as a literal substring.
func containsPattern(name string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(name)) + "%"
}
