package pipeline

import (
	"errors"

	"github.com/rasaeel/rasaeel/internal/instagram"
	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/merchants"
	"github.com/rasaeel/rasaeel/internal/orders"
	"github.com/rasaeel/rasaeel/internal/speech"
)

// Error kinds surfaced by the pipeline and the webhook gateway. Most are
// owned by the package that raises them.
var (
	ErrInvalidSignature    = instagram.ErrInvalidSignature
	ErrInvalidJSON         = errors.New("invalid-json")
	ErrUnknownMerchant     = merchants.ErrUnknownMerchant
	ErrTranscriptionFailed = speech.ErrTranscriptionFailed
	ErrLLMNetwork          = llm.ErrNetwork
	ErrLLMParse            = llm.ErrParse
	ErrOrderMissingFields  = orders.ErrMissingFields
	ErrOrderInsertFailed   = orders.ErrInsertFailed
	ErrSendFailed          = instagram.ErrSendFailed

	ErrContextLoad   = errors.New("context-load-failed")
	ErrVoiceDisabled = errors.New("voice transcription is not configured")
	ErrEmptyMessage  = errors.New("message text is required")
)
