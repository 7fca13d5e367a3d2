package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasaeel/rasaeel/internal/instagram"
	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/pipeline"
	"github.com/rasaeel/rasaeel/internal/pipeline/pipelinetest"
	"github.com/rasaeel/rasaeel/internal/speech"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

func textEvent(sender, page, text string) instagram.MessagingEvent {
	return instagram.MessagingEvent{
		Sender:    instagram.Party{ID: sender},
		Recipient: instagram.Party{ID: page},
		Message:   &instagram.Message{MID: "m-" + sender, Text: text},
	}
}

func audioEvent(sender, page, url string) instagram.MessagingEvent {
	return instagram.MessagingEvent{
		Sender:    instagram.Party{ID: sender},
		Recipient: instagram.Party{ID: page},
		Message: &instagram.Message{MID: "m-audio", Attachments: []instagram.Attachment{
			{Type: "audio", Payload: instagram.AttachmentPayload{URL: url}},
		}},
	}
}

func TestGreetingArabic(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	m := h.Store.AddMerchant("P1", "متجر لينا")
	h.Invoker.Respond = func(req llm.ToolRequest) (string, error) {
		return pipelinetest.Args(llm.ResponseAnalysis{
			DetectedLanguage: llm.LanguageArabic,
			CustomerIntent:   llm.IntentGeneralChat,
			Sentiment:        llm.SentimentPositive,
		}, nil, "أهلاً وسهلاً! كيف بقدر أساعدك؟"), nil
	}

	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", textEvent("C1", "P1", "مرحبا"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.Invoker.Calls())
	require.NotNil(t, res.Outcome.Analysis())
	assert.Equal(t, llm.IntentGeneralChat, res.Outcome.Analysis().CustomerIntent)
	assert.Equal(t, llm.LanguageArabic, res.Outcome.Analysis().DetectedLanguage)
	assert.Contains(t, h.Invoker.Requests()[0].UserContent, `"is_first_contact":true`)

	turns := h.Store.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, m.ID, turns[0].MerchantID)
	assert.Equal(t, tenant.RoleCustomer, turns[0].Turn.Role)
	assert.Equal(t, "مرحبا", turns[0].Turn.Text)
	assert.Equal(t, "general_chat", turns[0].Turn.Intent)
	assert.Equal(t, tenant.RoleAssistant, turns[1].Turn.Role)

	sent := h.Sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, pipelinetest.SentMessage{PageToken: "token-P1", RecipientID: "C1", Text: "أهلاً وسهلاً! كيف بقدر أساعدك؟"}, sent[0])
	assert.Empty(t, h.Store.Orders())
	assert.True(t, res.Sent)
	assert.True(t, res.Recorded)
}

func TestCompleteOrderArabic(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	m := h.Store.AddMerchant("P1", "Boutique")
	h.Store.AddCatalogItem(m.ID, tenant.CatalogItem{SKU: "DRS-BLUE", Name: "فستان صيفي أزرق", Price: decimal.RequireFromString("35.000"), Stock: 10})
	h.Invoker.Respond = func(req llm.ToolRequest) (string, error) {
		return pipelinetest.Args(llm.ResponseAnalysis{
			DetectedLanguage:  llm.LanguageArabic,
			CustomerIntent:    llm.IntentOrderPlacement,
			MentionedProducts: []string{"فستان صيفي أزرق"},
			Sentiment:         llm.SentimentPositive,
		}, &llm.OrderEntities{
			ProductName:  "فستان صيفي أزرق",
			Quantity:     1,
			Size:         "M",
			CustomerName: "أحمد",
			PhoneNumber:  "0791234567",
			Address:      "شارع الملك حسين عمان",
			OrderReady:   true,
			TotalPrice:   decimal.RequireFromString("35"),
		}, "تمام يا أحمد، سجلنا طلبك"), nil
	}

	msg := "بدي أطلب فستان صيفي أزرق مقاس M، اسمي أحمد، رقمي 0791234567، عنواني شارع الملك حسين عمان"
	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", textEvent("C1", "P1", msg))
	require.NoError(t, err)

	orders := h.Store.Orders()
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, m.ID, o.MerchantID)
	assert.Equal(t, tenant.StatusPending, o.Status)
	assert.Equal(t, "DRS-BLUE", o.Order.SKU)
	assert.EqualValues(t, 1, o.Order.Quantity)
	assert.Contains(t, o.Order.Notes, "Size: M; Instagram ID: C1")
	assert.True(t, decimal.NewFromInt(35).Equal(o.Order.TotalAmount))
	assert.Equal(t, o.ID, res.Outcome.Order.ID)

	sent := h.Sender.Sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasSuffix(sent[0].Text, llm.TagOrderCreated))
	assert.Equal(t, "order_placement", h.Store.Turns()[0].Turn.Intent)
}

func TestPartialOrderAsksForMissingFields(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")
	reply := "أكيد! بس بحتاج اسمك ورقم تلفونك وعنوانك."
	h.Invoker.Respond = func(req llm.ToolRequest) (string, error) {
		return pipelinetest.Args(llm.ResponseAnalysis{
			DetectedLanguage: llm.LanguageArabic,
			CustomerIntent:   llm.IntentOrderPlacement,
			Sentiment:        llm.SentimentNeutral,
		}, &llm.OrderEntities{
			ProductName: "الفستان الأزرق",
			Quantity:    1,
			MissingInfo: []string{"customer_name", "phone_number", "address", "size"},
		}, reply), nil
	}

	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", textEvent("C1", "P1", "بدي أطلب الفستان الأزرق"))
	require.NoError(t, err)

	require.NotNil(t, res.Outcome.Arguments)
	require.NotNil(t, res.Outcome.Arguments.Order)
	assert.False(t, res.Outcome.Arguments.Order.OrderReady)
	assert.NotEmpty(t, res.Outcome.Arguments.Order.MissingInfo)
	assert.False(t, res.Outcome.Order.Attempted)
	assert.Empty(t, h.Store.Orders())
	require.Len(t, h.Sender.Sent(), 1)
	assert.Equal(t, reply, h.Sender.Sent()[0].Text)
}

func TestComplaintShortCircuits(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")

	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", textEvent("C1", "P1", "عندي مشكلة كبيرة مع الطلب"))
	require.NoError(t, err)

	assert.Zero(t, h.Invoker.Calls())
	assert.True(t, res.Outcome.ShortCircuited)
	sent := h.Sender.Sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasSuffix(sent[0].Text, llm.TagNeedsHuman))

	turns := h.Store.Turns()
	require.Len(t, turns, 2)
	assert.Contains(t, []string{"negative", "angry"}, turns[0].Turn.Sentiment)
}

func TestVoiceTranscriptionFailureStillReplies(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")
	h.Transcriber.Result = speech.Result{Text: speech.FailureSentinel, IsVoice: true, Err: speech.ErrTranscriptionFailed}
	h.Invoker.Respond = func(req llm.ToolRequest) (string, error) {
		assert.Contains(t, req.UserContent, `"is_voice_message":true`)
		return pipelinetest.Args(llm.ResponseAnalysis{
			DetectedLanguage: llm.LanguageMixed,
			CustomerIntent:   llm.IntentGeneralChat,
			Sentiment:        llm.SentimentNeutral,
		}, nil, "عذراً ما قدرنا نسمع الرسالة الصوتية، ممكن تكتبلنا؟"), nil
	}

	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", audioEvent("C1", "P1", "https://cdn.example/voice.mp4"))
	require.NoError(t, err)

	assert.True(t, res.IsVoice)
	assert.Equal(t, []string{"https://cdn.example/voice.mp4"}, h.Transcriber.URLs())
	turns := h.Store.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "[Voice] [Voice message - transcription failed]", turns[0].Turn.Text)
	assert.Len(t, h.Sender.Sent(), 1)
}

func TestUnknownPageFailsSecure(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")

	_, err := h.Orchestrator.HandleEvent(context.Background(), "P-unknown", textEvent("C1", "P-unknown", "hello"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrUnknownMerchant)
	assert.Zero(t, h.Invoker.Calls())
	assert.Empty(t, h.Sender.Sent())
	assert.Empty(t, h.Store.Turns())
}

func TestSkippedEvents(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")

	echo := textEvent("P1", "C1", "our reply")
	echo.Message.IsEcho = true
	receipt := instagram.MessagingEvent{Sender: instagram.Party{ID: "C1"}, Recipient: instagram.Party{ID: "P1"}, Read: &instagram.Receipt{Watermark: 1}}
	image := instagram.MessagingEvent{
		Sender:    instagram.Party{ID: "C1"},
		Recipient: instagram.Party{ID: "P1"},
		Message:   &instagram.Message{Attachments: []instagram.Attachment{{Type: "image", Payload: instagram.AttachmentPayload{URL: "https://cdn/x.jpg"}}}},
	}
	noSender := textEvent("", "P1", "hi")

	cases := map[string]struct {
		event instagram.MessagingEvent
		want  string
	}{
		"echo":      {echo, pipeline.SkipNotMessage},
		"receipt":   {receipt, pipeline.SkipNotMessage},
		"image":     {image, pipeline.SkipEmpty},
		"no sender": {noSender, pipeline.SkipInvalidEvent},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Skipped)
		})
	}
	assert.Zero(t, h.Invoker.Calls())
	assert.Empty(t, h.Sender.Sent())
}

func TestVoiceDisabledSkipsEvent(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")
	h.Transcriber.Disabled = true

	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", audioEvent("C1", "P1", "https://cdn/v.mp4"))
	require.NoError(t, err)
	assert.Equal(t, pipeline.SkipVoiceDisabled, res.Skipped)
	assert.Empty(t, h.Transcriber.URLs())
	assert.Empty(t, h.Sender.Sent())
}

func TestRecordFailureStillSends(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")
	h.Store.FailTurns = errors.New("disk full")

	res, err := h.Orchestrator.HandleEvent(context.Background(), "P1", textEvent("C1", "P1", "hello"))
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.True(t, res.Outcome.Fallback)
	require.Len(t, h.Sender.Sent(), 1)
	assert.Equal(t, llm.FallbackReply, h.Sender.Sent()[0].Text)
}

func TestSendFailureIsReported(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	h.Store.AddMerchant("P1", "Boutique")
	h.Sender.Err = instagram.ErrSendFailed

	_, err := h.Orchestrator.HandleEvent(context.Background(), "P1", textEvent("C1", "P1", "manager please"))
	assert.ErrorIs(t, err, pipeline.ErrSendFailed)
	assert.Len(t, h.Store.Turns(), 2, "turns persist before the send")
}

func TestTenantIsolationAcrossMerchants(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	m1 := h.Store.AddMerchant("P1", "One")
	m2 := h.Store.AddMerchant("P2", "Two")
	h.Store.AddCatalogItem(m1.ID, tenant.CatalogItem{SKU: "A", Name: "Secret Item", Price: decimal.NewFromInt(1), Stock: 1})
	h.Invoker.Respond = func(req llm.ToolRequest) (string, error) {
		return pipelinetest.Args(llm.ResponseAnalysis{
			DetectedLanguage: llm.LanguageEnglish,
			CustomerIntent:   llm.IntentProductInquiry,
			Sentiment:        llm.SentimentNeutral,
		}, nil, "ok"), nil
	}

	_, err := h.Orchestrator.HandleEvent(context.Background(), "P2", textEvent("C1", "P2", "what do you sell"))
	require.NoError(t, err)

	reqs := h.Invoker.Requests()
	require.Len(t, reqs, 1)
	assert.NotContains(t, reqs[0].UserContent, "Secret Item")
	for _, st := range h.Store.Turns() {
		assert.Equal(t, m2.ID, st.MerchantID)
	}
	assert.Equal(t, "token-P2", h.Sender.Sent()[0].PageToken)
}

func TestSimulateIsDryRun(t *testing.T) {
	t.Parallel()

	h := pipelinetest.NewHarness(t)
	m := h.Store.AddMerchant("P1", "Boutique")
	h.Invoker.Respond = func(req llm.ToolRequest) (string, error) {
		return pipelinetest.Args(llm.ResponseAnalysis{
			DetectedLanguage: llm.LanguageEnglish,
			CustomerIntent:   llm.IntentOrderPlacement,
			Sentiment:        llm.SentimentPositive,
		}, &llm.OrderEntities{
			ProductName: "Hat", Quantity: 1, CustomerName: "Sam", PhoneNumber: "1", Address: "x", OrderReady: true,
		}, "Done!"), nil
	}

	preview, err := h.Orchestrator.Simulate(context.Background(), m.ID, "", "one hat please")
	require.NoError(t, err)
	assert.Equal(t, "Done!", preview.Reply)
	assert.Empty(t, h.Store.Orders())
	assert.Empty(t, h.Store.Turns())
	assert.Empty(t, h.Sender.Sent())

	_, err = h.Orchestrator.Simulate(context.Background(), m.ID, "", "  ")
	assert.ErrorIs(t, err, pipeline.ErrEmptyMessage)
	_, err = h.Orchestrator.Simulate(context.Background(), uuid.New(), "", "hi")
	assert.ErrorIs(t, err, pipeline.ErrUnknownMerchant)
}
