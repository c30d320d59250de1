package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xmemo/xmetrics"

	metricHits            = "xmemo.cache.hits"
	metricMisses          = "xmemo.cache.misses"
	metricEvictions       = "xmemo.cache.evictions"
	metricComputeDuration = "xmemo.compute.duration"

	spanCompute = "xmemo.compute"

	attrCache  = "cache"
	attrStatus = "status"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Recorder 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称，空字符串被忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，nil 被忽略。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 被忽略。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

type otelRecorder struct {
	tracer    trace.Tracer
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewOTelRecorder 创建基于 OpenTelemetry 的 CacheRecorder。
func NewOTelRecorder(opts ...Option) (CacheRecorder, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	r := &otelRecorder{tracer: cfg.tracerProvider.Tracer(cfg.instrumentationName)}

	var err error
	if r.hits, err = meter.Int64Counter(metricHits,
		metric.WithDescription("cache lookups that found a value"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricHits, err)
	}
	if r.misses, err = meter.Int64Counter(metricMisses,
		metric.WithDescription("cache lookups that found nothing"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricMisses, err)
	}
	if r.evictions, err = meter.Int64Counter(metricEvictions,
		metric.WithDescription("entries evicted to stay within capacity"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricEvictions, err)
	}
	if r.duration, err = meter.Float64Histogram(metricComputeDuration,
		metric.WithDescription("time spent computing values on cache miss"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricComputeDuration, err)
	}
	return r, nil
}

func cacheAttr(cache string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(attrCache, cache))
}

func (r *otelRecorder) Hit(ctx context.Context, cache string) {
	r.hits.Add(normalize(ctx), 1, cacheAttr(cache))
}

func (r *otelRecorder) Miss(ctx context.Context, cache string) {
	r.misses.Add(normalize(ctx), 1, cacheAttr(cache))
}

func (r *otelRecorder) Eviction(ctx context.Context, cache string) {
	r.evictions.Add(normalize(ctx), 1, cacheAttr(cache))
}

func (r *otelRecorder) StartCompute(ctx context.Context, cache string) (context.Context, ComputeSpan) {
	ctx, span := r.tracer.Start(normalize(ctx), spanCompute,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(attrCache, cache)),
	)
	return ctx, &otelSpan{
		recorder: r,
		span:     span,
		ctx:      ctx,
		cache:    cache,
		start:    time.Now(),
	}
}

type otelSpan struct {
	recorder *otelRecorder
	span     trace.Span
	ctx      context.Context
	cache    string
	start    time.Time
	once     sync.Once
}

func (s *otelSpan) End(err error) {
	s.once.Do(func() {
		status := StatusOf(err)
		if err != nil {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()

		s.recorder.duration.Record(context.WithoutCancel(s.ctx), time.Since(s.start).Seconds(),
			metric.WithAttributes(
				attribute.String(attrCache, s.cache),
				attribute.String(attrStatus, string(status)),
			))
	})
}

func normalize(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
