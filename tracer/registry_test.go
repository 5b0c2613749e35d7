package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Install mutates process-wide state, so these tests do not run in parallel.

func TestInstall_Lifecycle(t *testing.T) {
	a := NewClient(Config{})
	b := NewClient(Config{})

	require.NoError(t, Install(a))
	defer Uninstall(a)

	assert.Same(t, a, Installed())
	assert.NoError(t, Install(a), "re-installing the same tracer is fine")
	assert.ErrorIs(t, Install(b), ErrAlreadyInstalled)

	Uninstall(b)
	assert.Same(t, a, Installed(), "uninstalling another tracer is a no-op")

	Uninstall(a)
	assert.Nil(t, Installed())
}

func TestActive_UsesInstalledTracer(t *testing.T) {
	assert.Nil(t, Active(context.Background()), "no tracer installed")

	tr := NewClient(Config{})
	require.NoError(t, Install(tr))
	defer Uninstall(tr)

	tx := tr.StartTransaction(context.Background())
	ctx, release := tr.Activate(context.Background(), tx)
	defer release()
	span := tr.StartSpan(ctx, "query")
	sctx, releaseSpan := tr.Activate(ctx, span)
	defer releaseSpan()

	assert.Same(t, span, Active(sctx))
	assert.Same(t, tx, ActiveTransaction(sctx))
}
