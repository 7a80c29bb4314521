package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
)

func TestNativeTransformer_TransformUnregisteredFails(t *testing.T) {
	tr := &NativeTransformer{}
	_, err := tr.Transform("/src/a.native", contracts.TransformOptions{})
	assert.Error(t, err)
}

func TestNativeTransformer_TransformFallsBackToPluginLoad(t *testing.T) {
	tr := &NativeTransformer{}
	_, err := tr.Transform("/nonexistent/not-a-plugin.so", contracts.TransformOptions{})
	require.Error(t, err, "a missing file must still fail, just after trying the plugin path")
	assert.Contains(t, err.Error(), "not a registered body or a loadable plugin")
}

func TestNativeTransformer_TransformReturnsRegisteredWrapper(t *testing.T) {
	tr := &NativeTransformer{}
	called := false
	tr.Register("/src/a.native", func(args contracts.WrapperArgs) error {
		called = true
		return nil
	})

	script, err := tr.Transform("/src/a.native", contracts.TransformOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/src/a.native", script.Filename())

	ns, ok := script.(*NativeScript)
	require.True(t, ok)
	require.NoError(t, ns.Wrapper()(contracts.WrapperArgs{}))
	assert.True(t, called)
}

func TestNativeTransformer_InstrumentHookRunsBeforeWrapper(t *testing.T) {
	tr := &NativeTransformer{}
	var order []string
	tr.Register("/src/a.native", func(args contracts.WrapperArgs) error {
		order = append(order, "wrapper")
		return nil
	})

	opts := contracts.TransformOptions{
		Instrument: func(source, filename string) (string, error) {
			order = append(order, "instrument")
			return source, nil
		},
	}
	script, err := tr.Transform("/src/a.native", opts)
	require.NoError(t, err)

	ns := script.(*NativeScript)
	require.NoError(t, ns.Wrapper()(contracts.WrapperArgs{}))
	assert.Equal(t, []string{"instrument", "wrapper"}, order)
}
