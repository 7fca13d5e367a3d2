package instagram

import "strings"

// MaxMessageRunes is the Instagram limit for one DM text.
const MaxMessageRunes = 1000

// ChunkText splits text at line boundaries into pieces of at most limit
// runes. Lines longer than limit are cut.
func ChunkText(text string, limit int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if limit <= 0 || runeLen(trimmed) <= limit {
		return []string{trimmed}
	}
	var (
		chunks []string
		buf    []string
		bufLen int
	)
	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(buf, "\n")))
			buf, bufLen = buf[:0], 0
		}
	}
	for _, line := range strings.Split(trimmed, "\n") {
		lineLen := runeLen(line)
		sep := 0
		if len(buf) > 0 {
			sep = 1
		}
		if bufLen+sep+lineLen <= limit {
			buf = append(buf, line)
			bufLen += sep + lineLen
			continue
		}
		flush()
		if lineLen <= limit {
			buf = append(buf, line)
			bufLen = lineLen
			continue
		}
		chunks = append(chunks, splitLongLine(line, limit)...)
	}
	flush()
	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}

func splitLongLine(line string, limit int) []string {
	runes := []rune(line)
	var out []string
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		if seg := strings.TrimSpace(string(runes[start:end])); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
