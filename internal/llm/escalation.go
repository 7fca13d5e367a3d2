package llm

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// EscalationReply is sent instead of a model reply when a keyword matches.
const EscalationReply = "شكراً لتواصلك معنا. تم تحويل محادثتك إلى أحد أعضاء فريقنا وسيتواصل معك في أقرب وقت ممكن."

// DefaultEscalationKeywords merges the Arabic and English trigger lists.
// Single English words that show up in product questions ("human hair",
// "refund policy") are left out.
var DefaultEscalationKeywords = []string{
	"manager",
	"complaint",
	"real person",
	"speak to a human",
	"talk to a human",
	"مدير",
	"المدير",
	"مسؤول",
	"شكوى",
	"بدي أشتكي",
	"زعلان",
	"زعلانة",
	"مشكلة كبيرة",
	"نصب",
	"احتيال",
	"استرجاع المبلغ",
	"بدي احكي مع حدا",
}

// EscalationMatcher finds escalation keywords in customer messages.
type EscalationMatcher struct {
	keywords []keyword
}

// keyword is a folded trigger. Keywords written in Latin script only match
// whole words; Arabic ones match anywhere so attached prefixes still hit.
type keyword struct {
	text  string
	whole bool
}

func NewEscalationMatcher(keywords []string) *EscalationMatcher {
	m := &EscalationMatcher{}
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		folded := Fold(kw)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		m.keywords = append(m.keywords, keyword{text: folded, whole: hasLatin(folded)})
	}
	return m
}

type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadEscalationMatcher reads a YAML keyword list from path, falling back to
// DefaultEscalationKeywords when path is empty.
func LoadEscalationMatcher(path string) (*EscalationMatcher, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewEscalationMatcher(DefaultEscalationKeywords), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read escalation keywords: %w", err)
	}
	var file keywordFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse escalation keywords: %w", err)
	}
	if len(file.Keywords) == 0 {
		return nil, fmt.Errorf("escalation keywords file %s is empty", path)
	}
	return NewEscalationMatcher(file.Keywords), nil
}

// Match returns the first keyword contained in message.
func (m *EscalationMatcher) Match(message string) (string, bool) {
	if m == nil {
		return "", false
	}
	folded := Fold(message)
	for _, kw := range m.keywords {
		if kw.matches(folded) {
			return kw.text, true
		}
	}
	return "", false
}

func (k keyword) matches(s string) bool {
	if !k.whole {
		return strings.Contains(s, k.text)
	}
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], k.text)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(k.text)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		off = start + size
	}
	return false
}

// isWordRune reports whether r continues a word. utf8.RuneError marks the
// start or end of the string.
func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func hasLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// Fold normalises text for keyword comparison: NFKC, case folding, Arabic
// diacritics and tatweel removed, alef variants unified, whitespace collapsed.
func Fold(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '\u064B' && r <= '\u0652', r == '\u0640':
			continue
		case r == '\u0623' || r == '\u0625' || r == '\u0622':
			b.WriteRune('\u0627')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
