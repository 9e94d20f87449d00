package tracer

import (
	"context"
	"testing"

	"product-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporters(t *testing.T) {
	ctx := context.Background()

	exps, err := exporters(ctx, &config.Config{AppName: "product-api"})
	require.NoError(t, err)
	assert.Empty(t, exps)

	exps, err = exporters(ctx, &config.Config{AppName: "product-api", TraceStdout: true})
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.NoError(t, exps[0].Shutdown(ctx))
}
