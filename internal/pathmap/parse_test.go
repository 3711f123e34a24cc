package pathmap

import (
	"testing"

	"github.com/sosgo/hostcore/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral(t *testing.T) {
	e, err := ParseLiteral("/a -> /b")
	require.NoError(t, err)
	assert.Equal(t, "/a", e.LocalPrefix)
	assert.Equal(t, "/b", e.RemotePrefix)
}

func TestParseLiteral_TooManyArrows(t *testing.T) {
	_, err := ParseLiteral("/a -> /b -> /c")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "/a -> /b -> /c")
}

func TestParseLiteral_NoArrow(t *testing.T) {
	_, err := ParseLiteral("/a /b")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
