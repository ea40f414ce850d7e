package postgres

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidIDRequiresCanonicalForm(t *testing.T) {
	id := uuid.NewString()

	assert.True(t, validID(id))
	for _, v := range []string{
		strings.ToUpper(id),
		"{" + id + "}",
		"urn:uuid:" + id,
		strings.ReplaceAll(id, "-", ""),
		"not-a-uuid",
		"",
	} {
		assert.False(t, validID(v), v)
	}
}
