// Package tracing 提供 OpenTelemetry 分布式追踪
package tracing

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// 导出器类型
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// Config 追踪配置
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       string // otlp | stdout
	Endpoint       string // OTLP endpoint
	SampleRate     float64
	Enabled        bool
}

// Tracer 追踪器包装
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   *Config
}

var (
	defaultTracer *Tracer
	mu            sync.RWMutex
)

// Init 初始化追踪器
// 未启用时返回 noop 追踪器，业务代码无需判断
func Init(cfg *Config) (*Tracer, error) {
	if cfg == nil {
		cfg = &Config{
			ServiceName: "hotel-inventory-backend",
			Environment: "development",
			Exporter:    ExporterStdout,
			SampleRate:  1.0,
			Enabled:     true,
		}
	}

	if !cfg.Enabled {
		t := &Tracer{
			tracer: noop.NewTracerProvider().Tracer(cfg.ServiceName),
			config: cfg,
		}
		setDefault(t)
		return t, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源失败: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Tracer{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
		config:   cfg,
	}
	setDefault(t)
	return t, nil
}

func newExporter(cfg *Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterOTLP, "":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("OTLP 导出器缺少 endpoint")
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		exporter, err := otlptrace.New(context.Background(), client)
		if err != nil {
			return nil, fmt.Errorf("创建 OTLP 导出器失败: %w", err)
		}
		return exporter, nil
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("创建 stdout 导出器失败: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("不支持的导出器: %s", cfg.Exporter)
	}
}

func setDefault(t *Tracer) {
	mu.Lock()
	defaultTracer = t
	mu.Unlock()
}

// GetTracer 获取默认追踪器，未初始化时使用全局 TracerProvider
func GetTracer() *Tracer {
	mu.RLock()
	t := defaultTracer
	mu.RUnlock()
	if t != nil {
		return t
	}
	return &Tracer{tracer: otel.Tracer("hotel-inventory-backend")}
}

// Shutdown 关闭追踪器
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start 开始一个带属性的 span
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Start 使用默认追踪器开始 span
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name, attrs...)
}

// End 结束 span，err 非空时记录错误状态
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AddEvent 添加事件到当前 span
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes 设置 span 属性
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// 常用属性键
var (
	AttrRoomID        = attribute.Key("hotel.room.id")
	AttrCheckInID     = attribute.Key("hotel.check_in.id")
	AttrReservationID = attribute.Key("hotel.reservation.id")
	AttrReservationNo = attribute.Key("hotel.reservation.no")
	AttrStay          = attribute.Key("hotel.stay")
	AttrOperation     = attribute.Key("operation")
)

// WithRoomID 房间 ID 属性
func WithRoomID(id int64) attribute.KeyValue {
	return AttrRoomID.Int64(id)
}

// WithCheckInID 入住 ID 属性
func WithCheckInID(id int64) attribute.KeyValue {
	return AttrCheckInID.Int64(id)
}

// WithReservationID 预订 ID 属性
func WithReservationID(id int64) attribute.KeyValue {
	return AttrReservationID.Int64(id)
}

// WithReservationNo 预订号属性
func WithReservationNo(no string) attribute.KeyValue {
	return AttrReservationNo.String(no)
}

// WithStay 入住区间属性
func WithStay(s fmt.Stringer) attribute.KeyValue {
	return AttrStay.String(s.String())
}

// WithOperation 操作属性
func WithOperation(op string) attribute.KeyValue {
	return AttrOperation.String(op)
}
