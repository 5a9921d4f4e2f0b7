package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jane@corp.com", Normalize("  Jane@Corp.COM \n"))
	assert.Equal(t, "", Normalize("   "))
}
