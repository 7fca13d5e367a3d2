package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "i want the manager", Fold("  I WANT   the\tManager "))
	// Diacritics and tatweel are removed, hamza forms unified.
	assert.Equal(t, "اريد المدير", Fold("أُريـــد المُدير"))
	assert.Equal(t, "ابي", Fold("إبي"))
}

func TestEscalationMatcherMatch(t *testing.T) {
	t.Parallel()

	m := NewEscalationMatcher(DefaultEscalationKeywords)

	kw, ok := m.Match("I need to talk to your MANAGER now")
	require.True(t, ok)
	assert.Equal(t, "manager", kw)

	_, ok = m.Match("عندي مشكلة   كبيرة بالطلب")
	assert.True(t, ok)

	_, ok = m.Match("أنا زعلان منكم")
	assert.True(t, ok)

	_, ok = m.Match("كم سعر الفستان؟")
	assert.False(t, ok)

	kw, ok = m.Match("can I speak to a human?")
	require.True(t, ok)
	assert.Equal(t, "speak to a human", kw)

	_, ok = m.Match("بدي احكي مع المدير")
	assert.True(t, ok, "arabic keywords match inside attached words")
}

func TestEscalationMatcherIgnoresOrdinaryQuestions(t *testing.T) {
	t.Parallel()

	m := NewEscalationMatcher(DefaultEscalationKeywords)
	for _, msg := range []string{
		"do you sell human hair wigs?",
		"is the refund policy 14 days?",
		"I bought it from the management store",
	} {
		_, ok := m.Match(msg)
		assert.False(t, ok, msg)
	}
}

func TestEscalationMatcherWholeWords(t *testing.T) {
	t.Parallel()

	m := NewEscalationMatcher([]string{"refund"})

	cases := map[string]bool{
		"refund":                true,
		"I want a REFUND.":      true,
		"refund, now":           true,
		"refunds are slow":      false,
		"nonrefundable deposit": false,
		"refund2":               false,
	}
	for msg, want := range cases {
		_, ok := m.Match(msg)
		assert.Equal(t, want, ok, msg)
	}
}

func TestEscalationMatcherNil(t *testing.T) {
	t.Parallel()

	var m *EscalationMatcher
	_, ok := m.Match("manager")
	assert.False(t, ok)
}

func TestLoadEscalationMatcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - speak to owner\n  - \"بدي المالك\"\n"), 0o600))

	m, err := LoadEscalationMatcher(path)
	require.NoError(t, err)
	_, ok := m.Match("Can I speak to owner please")
	assert.True(t, ok)
	_, ok = m.Match("manager")
	assert.False(t, ok, "file replaces the default list")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("keywords: []\n"), 0o600))
	_, err = LoadEscalationMatcher(empty)
	assert.Error(t, err)

	_, err = LoadEscalationMatcher(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadEscalationMatcher("")
	require.NoError(t, err)
	_, ok = def.Match("complaint please")
	assert.True(t, ok)
}
