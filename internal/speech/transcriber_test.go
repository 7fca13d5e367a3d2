package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasaeel/rasaeel/internal/config"
)

type speechStub struct {
	mu        sync.Mutex
	languages []string
	replies   map[string]string
	status    int
}

func (s *speechStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/audio.wav", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFF....WAVE"))
	})
	mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "RIFF....WAVE", string(body))
		assert.Equal(t, "key-1", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, audioContentType, r.Header.Get("Content-Type"))
		assert.Equal(t, "detailed", r.URL.Query().Get("format"))
		assert.Equal(t, "masked", r.URL.Query().Get("profanity"))
		lang := r.URL.Query().Get("language")
		s.mu.Lock()
		s.languages = append(s.languages, lang)
		s.mu.Unlock()
		if s.status != 0 {
			w.WriteHeader(s.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s.replies[lang])
	})
	return mux
}

func newTestTranscriber(t *testing.T, stub *speechStub) (*Transcriber, string) {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	tr := NewTranscriber(nil, config.SpeechConfig{Key: "key-1", Endpoint: srv.URL + "/stt"})
	return tr, srv.URL + "/audio.wav"
}

func TestTranscribeArabicFirst(t *testing.T) {
	t.Parallel()

	stub := &speechStub{replies: map[string]string{
		PrimaryLanguage: `{"RecognitionStatus":"Success","NBest":[{"Confidence":0.91,"Display":"بدي أطلب فستان"}]}`,
	}}
	tr, audioURL := newTestTranscriber(t, stub)

	res := tr.Transcribe(context.Background(), audioURL)
	assert.False(t, res.Failed())
	assert.True(t, res.IsVoice)
	assert.Equal(t, "بدي أطلب فستان", res.Text)
	assert.Equal(t, PrimaryLanguage, res.Language)
	assert.InDelta(t, 0.91, res.Confidence, 1e-9)
	assert.Equal(t, []string{PrimaryLanguage}, stub.languages)
}

func TestTranscribeRetriesEnglishOnShortTranscript(t *testing.T) {
	t.Parallel()

	stub := &speechStub{replies: map[string]string{
		PrimaryLanguage:  `{"RecognitionStatus":"Success","NBest":[{"Confidence":0.2,"Display":" ا "}]}`,
		FallbackLanguage: `{"RecognitionStatus":"Success","DisplayText":"I want the blue dress"}`,
	}}
	tr, audioURL := newTestTranscriber(t, stub)

	res := tr.Transcribe(context.Background(), audioURL)
	assert.False(t, res.Failed())
	assert.Equal(t, "I want the blue dress", res.Text)
	assert.Equal(t, FallbackLanguage, res.Language)
	assert.Equal(t, []string{PrimaryLanguage, FallbackLanguage}, stub.languages)
}

func TestTranscribeBothEmptyYieldsSentinel(t *testing.T) {
	t.Parallel()

	stub := &speechStub{replies: map[string]string{
		PrimaryLanguage:  `{"RecognitionStatus":"NoMatch","NBest":[]}`,
		FallbackLanguage: `{"RecognitionStatus":"NoMatch"}`,
	}}
	tr, audioURL := newTestTranscriber(t, stub)

	res := tr.Transcribe(context.Background(), audioURL)
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrTranscriptionFailed)
	assert.True(t, res.IsVoice)
	assert.Equal(t, FailureSentinel, res.Text)
	assert.Len(t, stub.languages, 2)
}

func TestTranscribeServiceErrorYieldsSentinel(t *testing.T) {
	t.Parallel()

	tr, audioURL := newTestTranscriber(t, &speechStub{status: http.StatusUnauthorized})
	res := tr.Transcribe(context.Background(), audioURL)
	assert.Equal(t, FailureSentinel, res.Text)
}

func TestTranscribeDownloadFailureYieldsSentinel(t *testing.T) {
	t.Parallel()

	stub := &speechStub{}
	tr, audioURL := newTestTranscriber(t, stub)
	res := tr.Transcribe(context.Background(), strings.Replace(audioURL, "audio.wav", "missing.wav", 1))
	assert.Equal(t, FailureSentinel, res.Text)
	assert.Empty(t, stub.languages)
}

func TestEnabledRequiresKey(t *testing.T) {
	t.Parallel()

	assert.False(t, NewTranscriber(nil, config.SpeechConfig{Region: "westeurope"}).Enabled())
	tr := NewTranscriber(nil, config.SpeechConfig{Key: "k", Region: "westeurope"})
	assert.True(t, tr.Enabled())
	assert.Equal(t, "https://westeurope.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", tr.endpoint)
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	_, err := readAllWithLimit(strings.NewReader("abcdef"), 5)
	assert.ErrorIs(t, err, ErrAudioTooLarge)
	data, err := readAllWithLimit(strings.NewReader("abc"), 5)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}
