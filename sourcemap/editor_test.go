package sourcemap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandEditor_Defaults(t *testing.T) {
	e := NewCommandEditor("", "/work/app", nil)
	assert.Equal(t, "code", e.Command)
}

func TestCommandEditor_OpenFile(t *testing.T) {
	e := NewCommandEditor("true", t.TempDir(), nil)
	assert.NoError(t, e.OpenFile(context.Background(), "src/App.tsx", 10, 4))
}

func TestCommandEditor_MissingBinary(t *testing.T) {
	e := NewCommandEditor("autoview-no-such-editor", t.TempDir(), nil)
	assert.Error(t, e.OpenFile(context.Background(), "src/App.tsx", 0, 0))
}
