package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "idem:cmd:abc", Key(" abc ", "order.commands", 1, 42))
	assert.Equal(t, "idem:order.commands:1:42", Key("", "order.commands", 1, 42))
}
