package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerProvider_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracerProvider("shadow-auth-test", &buf)
	require.NoError(t, err)

	_, span := Tracer.Start(context.Background(), "resolve-account")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "resolve-account")
	assert.Contains(t, buf.String(), "shadow-auth-test")
}
