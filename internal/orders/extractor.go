package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

var (
	// ErrMissingFields wraps llm.ErrOrderRefused so the dispatcher leaves the
	// reply untagged.
	ErrMissingFields   = fmt.Errorf("order-missing-fields: %w", llm.ErrOrderRefused)
	ErrInvalidQuantity = fmt.Errorf("order-invalid-quantity: %w", llm.ErrOrderRefused)
	ErrInsertFailed    = errors.New("order-insert-failed")
)

// Repository is the merchant-bound order write path; *tenant.Scope implements it.
type Repository interface {
	CreateOrder(ctx context.Context, productName string, build tenant.OrderBuilder) (uuid.UUID, error)
}

// draft is the validated view of the model's order entities.
type draft struct {
	ProductName  string `validate:"required"`
	CustomerName string `validate:"required"`
	PhoneNumber  string `validate:"required"`
	Address      string `validate:"required"`
	CustomerID   string `validate:"required"`
	Quantity     int32
	Size         string
	Color        string
	TotalPrice   decimal.Decimal
}

type Extractor struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		validate: validator.New(),
		logger:   log.With(slog.String("service", "orders")),
	}
}

// Create validates the entities and inserts a pending order in one
// transaction. The catalog lookup and the insert share that transaction.
func (e *Extractor) Create(ctx context.Context, repo Repository, entities llm.OrderEntities, customerID string) (uuid.UUID, error) {
	if repo == nil {
		return uuid.Nil, fmt.Errorf("%w: merchant", ErrMissingFields)
	}
	if entities.Quantity > llm.MaxOrderQuantity {
		e.logger.Warn("order refused", slog.Int("quantity", entities.Quantity), slog.String("customer_id", customerID))
		return uuid.Nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidQuantity, entities.Quantity, llm.MaxOrderQuantity)
	}
	d := newDraft(entities, customerID)
	if err := e.validate.Struct(d); err != nil {
		missing := missingFields(err)
		e.logger.Warn("order refused", slog.Any("missing", missing), slog.String("customer_id", customerID))
		return uuid.Nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	id, err := repo.CreateOrder(ctx, d.ProductName, func(item tenant.CatalogItem, found bool) (tenant.NewOrder, error) {
		return buildOrder(d, item, found), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	e.logger.Info("order created", slog.String("order_id", id.String()), slog.String("customer_id", customerID))
	return id, nil
}

// For binds the extractor to one merchant's repository.
func (e *Extractor) For(repo Repository) llm.OrderPlacer {
	return placer{extractor: e, repo: repo}
}

type placer struct {
	extractor *Extractor
	repo      Repository
}

func (p placer) PlaceOrder(ctx context.Context, entities llm.OrderEntities, customerID string) (uuid.UUID, error) {
	return p.extractor.Create(ctx, p.repo, entities, customerID)
}

// newDraft expects Quantity already bounded by llm.MaxOrderQuantity.
func newDraft(e llm.OrderEntities, customerID string) draft {
	qty := min(max(e.Quantity, 1), llm.MaxOrderQuantity)
	return draft{
		ProductName:  strings.TrimSpace(e.ProductName),
		CustomerName: strings.TrimSpace(e.CustomerName),
		PhoneNumber:  strings.TrimSpace(e.PhoneNumber),
		Address:      strings.TrimSpace(e.Address),
		CustomerID:   strings.TrimSpace(customerID),
		Quantity:     int32(qty),
		Size:         strings.TrimSpace(e.Size),
		Color:        strings.TrimSpace(e.Color),
		TotalPrice:   e.TotalPrice,
	}
}

func buildOrder(d draft, item tenant.CatalogItem, found bool) tenant.NewOrder {
	sku := SynthesizeSKU(d.ProductName)
	total := d.TotalPrice
	if found {
		sku = item.SKU
		if total.IsZero() {
			total = item.Price.Mul(decimal.NewFromInt32(d.Quantity))
		}
	}
	return tenant.NewOrder{
		SKU:             sku,
		Quantity:        d.Quantity,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.PhoneNumber,
		DeliveryAddress: d.Address,
		TotalAmount:     total.Round(3),
		Notes:           Notes(d.Size, d.Color, d.CustomerID),
	}
}

// SynthesizeSKU derives a SKU for products missing from the catalog.
func SynthesizeSKU(productName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(productName)), " ", "_")
}

// Notes joins the non-empty order annotations with semicolons.
func Notes(size, color, customerID string) string {
	parts := make([]string, 0, 3)
	if size != "" {
		parts = append(parts, "Size: "+size)
	}
	if color != "" {
		parts = append(parts, "Color: "+color)
	}
	if customerID != "" {
		parts = append(parts, "Instagram ID: "+customerID)
	}
	return strings.Join(parts, "; ")
}

var fieldNames = map[string]string{
	"ProductName":  "product_name",
	"CustomerName": "customer_name",
	"PhoneNumber":  "phone_number",
	"Address":      "address",
	"CustomerID":   "customer_id",
}

func missingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := fieldNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		out = append(out, name)
	}
	return out
}
