package index

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraphs, lines, then sentence ends.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?"}

// Splitter cuts a document into chunks of at most Size characters, with neighbouring
// chunks sharing up to Overlap characters. It prefers the coarsest separator that
// occurs in the text and only falls back to finer ones for pieces that are still too
// large. Separators stay attached to the end of the piece they terminate.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

// Split returns the trimmed, non-empty chunks of text in document order.
func (s *Splitter) Split(text string) []string {
	var out []string
	for _, chunk := range s.split(text, s.Separators) {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var finer []string
	for i, candidate := range separators {
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardSplit(text)
	}

	var chunks, fitting []string
	for _, piece := range splitKeep(text, sep) {
		if length(piece) <= s.Size {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting)...)
			fitting = nil
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting)...)
	}
	return chunks
}

// merge packs small pieces into chunks, carrying a tail of at most Overlap
// characters from the previous chunk into the next one.
func (s *Splitter) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := length(piece)
		if total+n > s.Size && len(current) > 0 {
			out = append(out, strings.Join(current, ""))
			for len(current) > 0 && (total > s.Overlap || total+n > s.Size) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, ""))
	}
	return out
}

// hardSplit cuts text with no usable separator into fixed windows.
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.Size - s.Overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.Size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func splitKeep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
