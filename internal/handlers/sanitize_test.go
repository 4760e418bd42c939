package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMessageContentStripsScripts(t *testing.T) {
	out, err := SanitizeMessageContent(`hi <script>alert(1)</script> there`)
	assert.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hi")
}

func TestSanitizeMessageContentRejectsEmpty(t *testing.T) {
	_, err := SanitizeMessageContent("   ")
	assert.Error(t, err)

	_, err = SanitizeMessageContent("<script>only()</script>")
	assert.Error(t, err)
}

func TestValidateMessageType(t *testing.T) {
	assert.True(t, ValidateMessageType("text"))
	assert.True(t, ValidateMessageType("image"))
	assert.True(t, ValidateMessageType("audio"))
	assert.False(t, ValidateMessageType("system"))
	assert.False(t, ValidateMessageType(""))
}
