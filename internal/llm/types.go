package llm

import (
	"github.com/shopspring/decimal"
)

type Intent string

const (
	IntentProductInquiry Intent = "product_inquiry"
	IntentPriceCheck     Intent = "price_check"
	IntentOrderPlacement Intent = "order_placement"
	IntentSupportRequest Intent = "support_request"
	IntentGeneralChat    Intent = "general_chat"
	IntentComplaint      Intent = "complaint"
)

var intents = []Intent{
	IntentProductInquiry,
	IntentPriceCheck,
	IntentOrderPlacement,
	IntentSupportRequest,
	IntentGeneralChat,
	IntentComplaint,
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentAngry    Sentiment = "angry"
)

var sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentAngry}

type Language string

const (
	LanguageArabic  Language = "arabic"
	LanguageEnglish Language = "english"
	LanguageMixed   Language = "mixed"
)

var languages = []Language{LanguageArabic, LanguageEnglish, LanguageMixed}

// Reply tags appended to outbound text.
const (
	TagNeedsHuman          = "[NEEDS_HUMAN_ATTENTION]"
	TagOrderCreated        = "[ORDER_CREATED]"
	TagOrderCreationFailed = "[ORDER_CREATION_FAILED]"
)

// ResponseAnalysis is the model's classification of the customer message.
type ResponseAnalysis struct {
	DetectedLanguage   Language  `json:"detected_language"`
	CustomerIntent     Intent    `json:"customer_intent"`
	MentionedProducts  []string  `json:"mentioned_products"`
	RequiresEscalation bool      `json:"requires_escalation"`
	Sentiment          Sentiment `json:"sentiment"`
}

// OrderEntities is the order draft extracted from the conversation.
type OrderEntities struct {
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	CustomerName string          `json:"customer_name"`
	PhoneNumber  string          `json:"phone_number"`
	Address      string          `json:"address"`
	MissingInfo  []string        `json:"missing_info"`
	OrderReady   bool            `json:"order_ready"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// ToolArguments is the decoded process_customer_message call. Order is only
// set when the intent is order_placement.
type ToolArguments struct {
	Analysis          ResponseAnalysis
	Order             *OrderEntities
	SuggestedResponse string
}

// ReadyOrder returns the order draft when the model marked it complete.
func (a ToolArguments) ReadyOrder() (OrderEntities, bool) {
	if a.Order == nil || !a.Order.OrderReady {
		return OrderEntities{}, false
	}
	return *a.Order, true
}
