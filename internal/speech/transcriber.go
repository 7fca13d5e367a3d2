package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rasaeel/rasaeel/internal/config"
)

const (
	// FailureSentinel replaces the transcript when no language attempt succeeds.
	FailureSentinel = "[Voice message - transcription failed]"

	PrimaryLanguage  = "ar-JO"
	FallbackLanguage = "en-US"

	// MaxAudioBytes bounds downloaded voice notes.
	MaxAudioBytes int64 = 25 << 20

	minTranscriptRunes = 3
	defaultTimeout     = 30 * time.Second
	audioContentType   = "audio/wav; codecs=audio/pcm; samplerate=16000"
)

var (
	// ErrTranscriptionFailed marks a result built from FailureSentinel.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrAudioTooLarge is returned when a voice note exceeds MaxAudioBytes.
	ErrAudioTooLarge = errors.New("audio payload too large")
)

// Result is the outcome of one transcription. IsVoice is always true.
type Result struct {
	Text       string
	Language   string
	Confidence float64
	IsVoice    bool
	// Err is ErrTranscriptionFailed (possibly wrapped) when Text is the sentinel.
	Err error
}

// Failed reports whether Text is the failure sentinel.
func (r Result) Failed() bool {
	return r.Err != nil
}

type Transcriber struct {
	client   *http.Client
	key      string
	endpoint string
	logger   *slog.Logger
}

func NewTranscriber(log *slog.Logger, cfg config.SpeechConfig) *Transcriber {
	if log == nil {
		log = slog.Default()
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" && strings.TrimSpace(cfg.Region) != "" {
		endpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", strings.TrimSpace(cfg.Region))
	}
	return &Transcriber{
		client:   &http.Client{Timeout: timeout},
		key:      strings.TrimSpace(cfg.Key),
		endpoint: endpoint,
		logger:   log.With(slog.String("service", "speech")),
	}
}

// Enabled reports whether a speech key is configured.
func (t *Transcriber) Enabled() bool {
	return t != nil && t.key != "" && t.endpoint != ""
}

// Transcribe downloads audioURL and recognises it as Jordanian Arabic, then
// English when the first attempt yields too little text. It never fails: on
// error the result carries FailureSentinel.
func (t *Transcriber) Transcribe(ctx context.Context, audioURL string) Result {
	audio, err := t.download(ctx, audioURL)
	if err != nil {
		t.logger.Warn("audio download failed", slog.Any("error", err))
		return failed(err)
	}
	var lastErr error
	for _, lang := range []string{PrimaryLanguage, FallbackLanguage} {
		text, confidence, err := t.recognize(ctx, audio, lang)
		if err != nil {
			t.logger.Warn("recognition failed", slog.String("language", lang), slog.Any("error", err))
			lastErr = err
			continue
		}
		if meaningfulRunes(text) >= minTranscriptRunes {
			return Result{Text: text, Language: lang, Confidence: confidence, IsVoice: true}
		}
		lastErr = fmt.Errorf("empty transcript for %s", lang)
	}
	return failed(lastErr)
}

func failed(cause error) Result {
	err := ErrTranscriptionFailed
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrTranscriptionFailed, cause)
	}
	return Result{Text: FailureSentinel, IsVoice: true, Err: err}
}

func (t *Transcriber) download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download audio: status %d", resp.StatusCode)
	}
	return readAllWithLimit(resp.Body, MaxAudioBytes)
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Confidence float64 `json:"Confidence"`
		Display    string  `json:"Display"`
	} `json:"NBest"`
}

func (t *Transcriber) recognize(ctx context.Context, audio []byte, language string) (string, float64, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", 0, fmt.Errorf("parse speech endpoint: %w", err)
	}
	q := u.Query()
	q.Set("language", language)
	q.Set("format", "detailed")
	q.Set("profanity", "masked")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(audio))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", t.key)
	req.Header.Set("Content-Type", audioContentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("speech service status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	var parsed recognitionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("decode speech response: %w", err)
	}
	if len(parsed.NBest) > 0 {
		return strings.TrimSpace(parsed.NBest[0].Display), parsed.NBest[0].Confidence, nil
	}
	return strings.TrimSpace(parsed.DisplayText), 0, nil
}

func readAllWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: maxBytes + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrAudioTooLarge, maxBytes)
	}
	return data, nil
}

func meaningfulRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
