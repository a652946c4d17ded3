package services

import "strings"

// Moderator decides whether a comment is hidden from readers.
type Moderator interface {
	Blocked(content string) bool
}

// WordListModerator blocks content containing any of its words, ignoring case.
type WordListModerator struct {
	words []string
}

func NewWordListModerator(words []string) *WordListModerator {
	m := &WordListModerator{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m.words = append(m.words, w)
		}
	}
	return m
}

func (m *WordListModerator) Blocked(content string) bool {
	if m == nil || len(m.words) == 0 {
		return false
	}
	lower := strings.ToLower(content)
	for _, w := range m.words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
