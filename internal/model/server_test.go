package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	inits    int
	destroys int
	failNext int
	libPath  string
}

func installFakeRuntime(t *testing.T) *fakeRuntime {
	t.Helper()
	rt := &fakeRuntime{}

	prevSet, prevInit, prevDestroy := ortSetLibraryPath, ortInitialize, ortDestroy
	envMu.Lock()
	prevReady := envReady
	envReady = false
	envMu.Unlock()

	ortSetLibraryPath = func(path string) { rt.libPath = path }
	ortInitialize = func() error {
		rt.inits++
		if rt.failNext > 0 {
			rt.failNext--
			return errors.New("libonnxruntime.so: cannot open shared object file")
		}
		return nil
	}
	ortDestroy = func() error {
		rt.destroys++
		return nil
	}

	t.Cleanup(func() {
		ortSetLibraryPath, ortInitialize, ortDestroy = prevSet, prevInit, prevDestroy
		envMu.Lock()
		envReady = prevReady
		envMu.Unlock()
	})
	return rt
}

func TestInitEnvironmentRetriesAfterFailure(t *testing.T) {
	rt := installFakeRuntime(t)
	rt.failNext = 1

	require.Error(t, initEnvironment("/opt/ort/lib.so"))
	require.NoError(t, initEnvironment("/opt/ort/lib.so"))
	assert.Equal(t, 2, rt.inits)
	assert.Equal(t, "/opt/ort/lib.so", rt.libPath)

	require.NoError(t, initEnvironment(""))
	assert.Equal(t, 2, rt.inits, "a ready runtime is not initialized twice")
}

func TestShutdownAllowsReinitialization(t *testing.T) {
	rt := installFakeRuntime(t)

	require.NoError(t, Shutdown())
	assert.Equal(t, 0, rt.destroys, "nothing to destroy before init")

	require.NoError(t, initEnvironment(""))
	require.NoError(t, Shutdown())
	assert.Equal(t, 1, rt.destroys)

	require.NoError(t, initEnvironment(""))
	assert.Equal(t, 2, rt.inits)
}

func TestCloseKeepsRuntime(t *testing.T) {
	rt := installFakeRuntime(t)
	require.NoError(t, initEnvironment(""))

	(&Server{}).Close()
	assert.Equal(t, 0, rt.destroys)

	require.NoError(t, initEnvironment(""))
	assert.Equal(t, 1, rt.inits)
}
