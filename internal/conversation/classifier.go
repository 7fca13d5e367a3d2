package conversation

import (
	"strings"

	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

// Lexical intents recorded when no model analysis is available.
const (
	IntentOrderPlacement  = "order_placement"
	IntentPriceInquiry    = "price_inquiry"
	IntentStockCheck      = "stock_check"
	IntentDeliveryInquiry = "delivery_inquiry"
	IntentGeneralInquiry  = "general_inquiry"
	IntentComplaint       = "complaint"
	// IntentResponse marks assistant turns.
	IntentResponse = "response"
)

var (
	positiveWords = []string{
		"thanks", "thank you", "great", "love", "perfect", "amazing", "awesome", "nice", "excellent",
		"شكرا", "مشكور", "يسلمو", "حلو", "رائع", "ممتاز", "بجنن", "تسلم", "يعطيك العافية",
	}
	negativeWords = []string{
		"bad", "delayed", "broken", "wrong", "disappointed", "problem", "not happy", "poor",
		"سيء", "سيئ", "متأخر", "مكسور", "غلط", "مشكلة", "مش مبسوط", "خربان",
	}
	angryWords = []string{
		"angry", "furious", "worst", "scam", "ridiculous", "unacceptable", "i hate",
		"زعلان", "معصب", "نصب", "حرامية", "اسوأ", "مش مقبول", "قرف",
	}

	// Checked in order; the first group with a hit wins.
	intentGroups = []struct {
		intent   string
		keywords []string
	}{
		{IntentOrderPlacement, []string{"order", "buy", "purchase", "i want", "i'll take", "بدي اطلب", "اطلب", "بدي اشتري", "اشتري", "حجز"}},
		{IntentPriceInquiry, []string{"price", "how much", "cost", "كم سعر", "سعر", "بكم", "قديش", "كم حق"}},
		{IntentStockCheck, []string{"available", "in stock", "stock", "do you have", "متوفر", "موجود", "في عندكم", "عندكم"}},
		{IntentDeliveryInquiry, []string{"delivery", "shipping", "deliver", "arrive", "توصيل", "شحن", "بتوصلو", "متى بوصل"}},
	}
)

// Classification is the lexical analysis of one message.
type Classification struct {
	Sentiment string
	Intent    string
	Products  []string
}

// Classify derives sentiment, intent and product mentions from text alone.
func Classify(text string, catalog []tenant.CatalogItem) Classification {
	folded := llm.Fold(text)
	out := Classification{
		Sentiment: sentimentOf(folded),
		Intent:    IntentGeneralInquiry,
		Products:  MentionedProducts(folded, catalog),
	}
	if out.Sentiment == string(llm.SentimentNegative) || out.Sentiment == string(llm.SentimentAngry) {
		out.Intent = IntentComplaint
		return out
	}
	for _, group := range intentGroups {
		if containsAny(folded, group.keywords) {
			out.Intent = group.intent
			break
		}
	}
	return out
}

func sentimentOf(folded string) string {
	switch {
	case containsAny(folded, angryWords):
		return string(llm.SentimentAngry)
	case containsAny(folded, negativeWords):
		return string(llm.SentimentNegative)
	case containsAny(folded, positiveWords):
		return string(llm.SentimentPositive)
	default:
		return string(llm.SentimentNeutral)
	}
}

// MentionedProducts returns catalog names contained in text, in catalog order.
func MentionedProducts(text string, catalog []tenant.CatalogItem) []string {
	folded := llm.Fold(text)
	out := []string{}
	for _, item := range catalog {
		name := llm.Fold(item.Name)
		if name != "" && strings.Contains(folded, name) {
			out = append(out, item.Name)
		}
	}
	return out
}

func containsAny(folded string, words []string) bool {
	for _, w := range words {
		if strings.Contains(folded, llm.Fold(w)) {
			return true
		}
	}
	return false
}
