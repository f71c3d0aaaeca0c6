package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinWithAnd(t *testing.T) {
	assert.Equal(t, "", JoinWithAnd(nil))
	assert.Equal(t, "Ada", JoinWithAnd([]string{"Ada"}))
	assert.Equal(t, "Ada and Grace", JoinWithAnd([]string{"Ada", "Grace"}))
	assert.Equal(t, "Ada, Grace and Alan", JoinWithAnd([]string{"Ada", "Grace", "Alan"}))
}
