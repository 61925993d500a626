package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/xqin/go-blog-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSetupOTel_ExporterErrorPropagates(t *testing.T) {
	orig := newOTLPExporterFn
	t.Cleanup(func() { newOTLPExporterFn = orig })
	newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("boom")
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: true, Insecure: true}, "test")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("want exporter error, got %v", err)
	}
}

func TestSetupOTel_ResourceErrorPropagates(t *testing.T) {
	origExp := newOTLPExporterFn
	origRes := newServiceResourceFn
	t.Cleanup(func() {
		newOTLPExporterFn = origExp
		newServiceResourceFn = origRes
	})
	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return &otlptrace.Exporter{}, nil
	}
	newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, errors.New("res boom")
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: true, Insecure: true}, "test")
	if err == nil || err.Error() != "res boom" {
		t.Fatalf("want resource error, got %v", err)
	}
}
