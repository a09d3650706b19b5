package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupProductionWritesJSON(t *testing.T) {
	prev := L
	defer func() { L = prev }()

	var buf bytes.Buffer
	Setup("production", &buf)
	Info("order placed", "order_id", 7)
	Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"order placed"`)
	assert.Contains(t, out, `"order_id":7`)
	assert.NotContains(t, out, "hidden")
}

func TestWithCtxFallsBackToBase(t *testing.T) {
	prev := L
	defer func() { L = prev }()

	assert.Same(t, L, WithCtx(context.Background()))

	var buf bytes.Buffer
	reqLog := Setup("local", &buf).With("request_id", "abc")
	ctx := InjectLogger(context.Background(), reqLog)
	WithCtx(ctx).Info("hello")

	assert.True(t, strings.Contains(buf.String(), "request_id=abc"))
}
