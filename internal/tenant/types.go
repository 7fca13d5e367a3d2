package tenant

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Turn roles.
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// Order statuses. The pipeline only ever writes StatusPending.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// CatalogItem is one product offered by a merchant.
type CatalogItem struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int32
	Category    string
	ProductLink string
	MediaLink   string
}

// Available reports whether the item has stock left.
func (c CatalogItem) Available() bool {
	return c.Stock > 0
}

// BusinessRules holds the merchant's free-text operating rules.
type BusinessRules struct {
	BusinessName       string
	BusinessType       string
	WorkingHours       string
	DeliveryInfo       string
	PaymentMethods     string
	ReturnPolicy       string
	Terms              string
	ContactInfo        string
	CustomPrompt       string
	AIInstructions     string
	LanguagePreference string
	ResponseTone       string
}

// KnowledgeDoc is a merchant knowledge-base entry.
type KnowledgeDoc struct {
	ID        uuid.UUID
	Title     string
	Content   string
	CreatedAt time.Time
}

// Turn is one persisted conversation message.
type Turn struct {
	ID         uuid.UUID
	CustomerID string
	Text       string
	Role       string
	Sentiment  string
	Intent     string
	Products   []string
	CreatedAt  time.Time
}

// NewOrder carries the validated fields of an order about to be inserted.
type NewOrder struct {
	SKU             string
	Quantity        int32
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TotalAmount     decimal.Decimal
	Notes           string
}

// OrderBuilder turns the optional catalog match into the order to insert.
// Returning an error aborts the transaction without inserting.
type OrderBuilder func(item CatalogItem, found bool) (NewOrder, error)
