package xmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("x")))
}

func TestNoopRecorder(t *testing.T) {
	var r CacheRecorder = NoopRecorder{}
	ctx := context.Background()
	r.Hit(ctx, "c")
	r.Miss(ctx, "c")
	r.Eviction(ctx, "c")

	got, span := r.StartCompute(ctx, "c")
	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() { span.End(errors.New("x")) })

	//nolint:staticcheck // 验证 nil ctx 容错
	got, _ = r.StartCompute(nil, "c")
	assert.NotNil(t, got)
}

type nilRecorder struct{ NoopRecorder }

func (nilRecorder) StartCompute(context.Context, string) (context.Context, ComputeSpan) {
	return nil, nil
}

func TestStartCompute(t *testing.T) {
	t.Run("nil recorder", func(t *testing.T) {
		ctx, span := StartCompute(context.Background(), nil, "c")
		assert.NotNil(t, ctx)
		assert.NotNil(t, span)
	})

	t.Run("nil ctx", func(t *testing.T) {
		//nolint:staticcheck // 验证 nil ctx 容错
		ctx, span := StartCompute(nil, NoopRecorder{}, "c")
		assert.NotNil(t, ctx)
		assert.NotNil(t, span)
	})

	t.Run("recorder returns nils", func(t *testing.T) {
		parent := context.Background()
		ctx, span := StartCompute(parent, nilRecorder{}, "c")
		assert.Equal(t, parent, ctx)
		assert.NotPanics(t, func() { span.End(nil) })
	})
}
