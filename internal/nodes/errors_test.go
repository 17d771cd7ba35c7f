package nodes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/wferr"
)

var (
	errMissing       = wferr.ErrMissingInputData
	errNoCase        = wferr.ErrNoSwitchCaseFulfilled
	errUnimplemented = wferr.ErrUnimplementedFeature
	errInvocation    = wferr.ErrInvocationFailure
	errParse         = wferr.ErrResultParse
)

func assertKind(t *testing.T, err error, kind error) *wferr.NodeError {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	ne, ok := wferr.Innermost(err)
	require.True(t, ok, "expected a node error, got %v", err)
	return ne
}
