package pipeerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageCarriesContext(t *testing.T) {
	err := Upstream("flat_field", "sci.fits", errors.New("shape mismatch"))
	assert.Equal(t, "upstream pipeline error [step=flat_field] [exposure=sci.fits]: shape mismatch", err.Error())
}

func TestError_IsMatchesKindAndCause(t *testing.T) {
	err := WrapAssociation(fs.ErrNotExist, "bkg.fits", "member not readable")
	wrapped := fmt.Errorf("resolve: %w", err)

	assert.True(t, IsAssociation(wrapped))
	assert.False(t, IsConfiguration(wrapped))
	assert.False(t, IsUpstream(wrapped))
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)

	var pe *Error
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "bkg.fits", pe.Exposure)
}

func TestConfigf(t *testing.T) {
	err := Configf("unknown step %q", "bogus")
	assert.True(t, IsConfiguration(err))
	assert.Equal(t, `configuration error: unknown step "bogus"`, err.Error())
}

func TestError_NilReceiver(t *testing.T) {
	var e *Error
	assert.Equal(t, "", e.Error())
}
