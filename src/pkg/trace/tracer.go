package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer    trace.Tracer
	recorder  *spanRecorder
	runID     string
	outputDir string
)

type spanRecorder struct {
	spans []spanRecord
}

type spanRecord struct {
	Name     string
	Start    time.Time
	End      time.Time
	SpanID   string
	ParentID string
}

// SpanInfo is one recorded span in the run report.
type SpanInfo struct {
	Name       string     `json:"name"`
	DurationMs float64    `json:"durationMs"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Children   []SpanInfo `json:"children,omitempty"`
}

// RunReport is the per-run span report written next to the outcome.
type RunReport struct {
	RunID           string     `json:"runId"`
	Spans           []SpanInfo `json:"spans"`
	TotalDurationMs float64    `json:"totalDurationMs"`
	Timestamp       string     `json:"timestamp"`
}

// InitTracer initializes OpenTelemetry tracing for one gate run. The
// returned shutdown function flushes the provider and exports the span
// report to outDir.
func InitTracer(serviceName string, enabled bool, outDir string) (func(), error) {
	if !enabled {
		return func() {}, nil
	}

	recorder = &spanRecorder{spans: make([]spanRecord, 0)}
	runID = uuid.NewString()
	outputDir = outDir

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(&recordingSpanProcessor{recorder: recorder}),
	)

	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
		_ = ExportReport()
	}

	return shutdown, nil
}

// StartSpan starts a new span. A no-op when tracing is disabled.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name)
}

type recordingSpanProcessor struct {
	recorder *spanRecorder
}

func (p *recordingSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {}

func (p *recordingSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.recorder == nil {
		return
	}
	parentID := ""
	if s.Parent().IsValid() {
		parentID = s.Parent().SpanID().String()
	}
	p.recorder.spans = append(p.recorder.spans, spanRecord{
		Name:     s.Name(),
		Start:    s.StartTime(),
		End:      s.EndTime(),
		SpanID:   s.SpanContext().SpanID().String(),
		ParentID: parentID,
	})
}

func (p *recordingSpanProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *recordingSpanProcessor) ForceFlush(ctx context.Context) error { return nil }

// ExportReport writes the recorded spans to <outputDir>/trace-report.json.
func ExportReport() error {
	if recorder == nil || len(recorder.spans) == 0 || outputDir == "" {
		return nil
	}

	roots := buildHierarchy(recorder.spans)

	totalDurationMs := 0.0
	for _, span := range roots {
		totalDurationMs += span.DurationMs
	}

	report := RunReport{
		RunID:           runID,
		Spans:           roots,
		TotalDurationMs: totalDurationMs,
		Timestamp:       time.Now().Format(time.RFC3339Nano),
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	reportPath := filepath.Join(outputDir, "trace-report.json")
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// buildHierarchy nests flat span records under their parents.
func buildHierarchy(records []spanRecord) []SpanInfo {
	spanMap := make(map[string]*SpanInfo)
	for _, record := range records {
		spanMap[record.SpanID] = &SpanInfo{
			Name:       record.Name,
			DurationMs: float64(record.End.Sub(record.Start).Microseconds()) / 1000.0,
			Start:      record.Start.Format(time.RFC3339Nano),
			End:        record.End.Format(time.RFC3339Nano),
		}
	}

	var roots []SpanInfo
	for _, record := range records {
		if parent, ok := spanMap[record.ParentID]; ok {
			parent.Children = append(parent.Children, *spanMap[record.SpanID])
			continue
		}
		roots = append(roots, *spanMap[record.SpanID])
	}

	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Start < roots[j].Start
	})

	return roots
}
