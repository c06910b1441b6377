package conversation

import "strings"

const (
	// DefaultChunkSize and DefaultChunkOverlap match the chunking the site
	// content was originally indexed with.
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

var chunkSeparators = []string{"\n\n", "\n", " "}

// SplitText breaks raw site text into retrieval chunks of roughly chunkSize
// characters with chunkOverlap characters carried between neighbours. It
// prefers paragraph boundaries, then line and word boundaries, and only hard
// cuts text with no separators at all.
func SplitText(text string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return splitRecursive(text, chunkSeparators, chunkSize, chunkOverlap)
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= size {
		return []string{trimmed}
	}
	if len(seps) == 0 {
		return hardCut(trimmed, size, overlap)
	}

	sep := seps[0]
	if !strings.Contains(trimmed, sep) {
		return splitRecursive(trimmed, seps[1:], size, overlap)
	}

	parts := strings.Split(trimmed, sep)
	var chunks []string
	var cur []string
	curLen := 0
	fresh := 0 // parts added since the last flush

	flush := func() {
		if fresh == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(cur, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		// Carry a tail of parts as overlap into the next chunk.
		var tail []string
		tailLen := 0
		for i := len(cur) - 1; i >= 0; i-- {
			l := len(cur[i]) + len(sep)
			if tailLen+l > overlap {
				break
			}
			tail = append([]string{cur[i]}, tail...)
			tailLen += l
		}
		cur, curLen, fresh = tail, tailLen, 0
	}

	for _, p := range parts {
		if len(p) > size {
			flush()
			cur, curLen, fresh = nil, 0, 0
			chunks = append(chunks, splitRecursive(p, seps[1:], size, overlap)...)
			continue
		}
		if curLen+len(p)+len(sep) > size {
			flush()
		}
		cur = append(cur, p)
		curLen += len(p) + len(sep)
		fresh++
	}
	flush()
	return chunks
}

func hardCut(text string, size, overlap int) []string {
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var out []string
	for i := 0; i < len(text); i += step {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[i:end])
		if end == len(text) {
			break
		}
	}
	return out
}
