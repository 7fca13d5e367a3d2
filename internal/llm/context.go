package llm

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/rasaeel/rasaeel/internal/contextload"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

// KnowledgeContentLimit clips knowledge documents passed to the model.
const KnowledgeContentLimit = 500

// Context is the structured JSON document sent as the user turn.
type Context struct {
	MerchantProfile     MerchantProfile     `json:"merchant_profile"`
	BusinessOperations  BusinessOperations  `json:"business_operations"`
	ProductCatalog      []CatalogEntry      `json:"product_catalog"`
	KnowledgeBase       []KnowledgeEntry    `json:"knowledge_base"`
	ConversationContext ConversationContext `json:"conversation_context"`
}

type MerchantProfile struct {
	BusinessName       string `json:"business_name"`
	BusinessType       string `json:"business_type"`
	LanguagePreference string `json:"language_preference"`
	ResponseTone       string `json:"response_tone"`
	ContactInfo        string `json:"contact_info,omitempty"`
	CustomPrompt       string `json:"custom_prompt,omitempty"`
	AIInstructions     string `json:"ai_instructions,omitempty"`
}

type BusinessOperations struct {
	WorkingHours   string `json:"working_hours,omitempty"`
	DeliveryInfo   string `json:"delivery_info,omitempty"`
	PaymentMethods string `json:"payment_methods,omitempty"`
	ReturnPolicy   string `json:"return_policy,omitempty"`
	Terms          string `json:"terms,omitempty"`
}

type CatalogEntry struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Stock       int32  `json:"stock"`
	IsAvailable bool   `json:"is_available"`
	Category    string `json:"category,omitempty"`
	ProductLink string `json:"product_link,omitempty"`
	MediaLink   string `json:"media_link,omitempty"`
}

type KnowledgeEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type HistoryEntry struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionStats struct {
	TotalMessages    int  `json:"total_messages"`
	CustomerMessages int  `json:"customer_messages"`
	IsFirstContact   bool `json:"is_first_contact"`
	IsVoiceMessage   bool `json:"is_voice_message"`
}

type ConversationContext struct {
	CustomerID     string         `json:"customer_id"`
	CurrentMessage string         `json:"current_message"`
	History        []HistoryEntry `json:"history"`
	SessionStats   SessionStats   `json:"session_stats"`
}

// BuildContext assembles the model input from a loaded snapshot.
func BuildContext(snap contextload.Snapshot, customerID, message string, isVoice bool) Context {
	rules := snap.Rules
	out := Context{
		MerchantProfile: MerchantProfile{
			BusinessName:       rules.BusinessName,
			BusinessType:       rules.BusinessType,
			LanguagePreference: rules.LanguagePreference,
			ResponseTone:       rules.ResponseTone,
			ContactInfo:        rules.ContactInfo,
			CustomPrompt:       rules.CustomPrompt,
			AIInstructions:     rules.AIInstructions,
		},
		BusinessOperations: BusinessOperations{
			WorkingHours:   rules.WorkingHours,
			DeliveryInfo:   rules.DeliveryInfo,
			PaymentMethods: rules.PaymentMethods,
			ReturnPolicy:   rules.ReturnPolicy,
			Terms:          rules.Terms,
		},
		ProductCatalog: make([]CatalogEntry, 0, len(snap.Catalog)),
		KnowledgeBase:  make([]KnowledgeEntry, 0, len(snap.Knowledge)),
	}
	for _, item := range limitSlice(snap.Catalog, contextload.CatalogLimit) {
		out.ProductCatalog = append(out.ProductCatalog, CatalogEntry{
			SKU:         item.SKU,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price.StringFixed(3),
			Stock:       item.Stock,
			IsAvailable: item.Available(),
			Category:    item.Category,
			ProductLink: item.ProductLink,
			MediaLink:   item.MediaLink,
		})
	}
	for _, doc := range limitSlice(snap.Knowledge, contextload.KnowledgeLimit) {
		out.KnowledgeBase = append(out.KnowledgeBase, KnowledgeEntry{
			Title:   doc.Title,
			Content: clipRunes(doc.Content, KnowledgeContentLimit),
		})
	}

	history := slices.Clone(limitSlice(snap.History, contextload.HistoryLimit))
	slices.Reverse(history)
	entries := make([]HistoryEntry, 0, len(history))
	customerTurns := 0
	for _, turn := range history {
		role := normalizeRole(turn.Role)
		if role == tenant.RoleCustomer {
			customerTurns++
		}
		entries = append(entries, HistoryEntry{Role: role, Message: turn.Text, Timestamp: turn.CreatedAt})
	}
	out.ConversationContext = ConversationContext{
		CustomerID:     customerID,
		CurrentMessage: message,
		History:        entries,
		SessionStats: SessionStats{
			TotalMessages:    len(entries),
			CustomerMessages: customerTurns,
			IsFirstContact:   len(entries) == 0,
			IsVoiceMessage:   isVoice,
		},
	}
	return out
}

// JSON renders the context for the user turn.
func (c Context) JSON() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case tenant.RoleAssistant, "bot", "ai", "merchant":
		return tenant.RoleAssistant
	default:
		return tenant.RoleCustomer
	}
}

func limitSlice[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
