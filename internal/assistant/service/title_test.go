package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestConversationTitleTruncatesOnRuneBoundary(t *testing.T) {
	short := "How much did Acme pay in March?"
	assert.Equal(t, short, conversationTitle(short))

	long := strings.Repeat("ä", 100)
	title := conversationTitle(long)
	assert.Equal(t, 80, utf8.RuneCountInString(title))
	assert.True(t, utf8.ValidString(title))
}
