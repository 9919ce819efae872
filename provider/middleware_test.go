package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/kbukum/speechkit/errors"
	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/observability"
	"github.com/kbukum/speechkit/provider"
)

type errorProvider struct {
	name string
	err  error
}

func (p *errorProvider) Name() string                       { return p.name }
func (p *errorProvider) IsAvailable(_ context.Context) bool { return true }
func (p *errorProvider) Execute(_ context.Context, _ string) (string, error) {
	return "", p.err
}

func TestChain_Empty(t *testing.T) {
	p := &echoProvider{name: "test"}
	wrapped := provider.Chain[string, string]()(p)
	if wrapped.Name() != "test" {
		t.Fatalf("expected 'test', got %q", wrapped.Name())
	}
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(tag string) provider.Middleware[string, string] {
		return func(inner rr) rr {
			return provider.Func(inner.Name(), func(ctx context.Context, in string) (string, error) {
				order = append(order, tag)
				return inner.Execute(ctx, in)
			})
		}
	}

	wrapped := provider.Chain(mark("a"), mark("b"), mark("c"))(&echoProvider{name: "test"})
	if _, err := wrapped.Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, "") != "abc" {
		t.Errorf("expected outermost-first order abc, got %v", order)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test")

	ok := provider.WithLogging[string, string](log)(&echoProvider{name: "batch"})
	if _, err := ok.Execute(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"backend":"batch"`) {
		t.Errorf("expected backend field in log, got %s", buf.String())
	}

	buf.Reset()
	failing := provider.WithLogging[string, string](log)(&errorProvider{
		name: "whispercli",
		err:  apperrors.ProcessFailure("whisper-cli", 2, "bad model"),
	})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "PROCESS_FAILURE") {
		t.Errorf("expected error code in log, got %s", buf.String())
	}
}

func TestWithMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	wrapped := provider.WithMetrics[string, string](metrics)(&echoProvider{name: "batch"})
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}

	errWrapped := provider.WithMetrics[string, string](metrics)(&errorProvider{name: "batch", err: errors.New("boom")})
	if _, err := errWrapped.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error to pass through")
	}
}

func TestWithTracing(t *testing.T) {
	wrapped := provider.WithTracing[string, string]("speechkit")(&echoProvider{name: "batch"})
	if wrapped.Name() != "batch" {
		t.Errorf("expected name to pass through, got %q", wrapped.Name())
	}
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestFullChain(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer

	wrapped := provider.Chain(
		provider.WithLogging[string, string](logger.NewWithWriter(&buf, "test")),
		provider.WithMetrics[string, string](metrics),
		provider.WithTracing[string, string]("speechkit"),
	)(&echoProvider{name: "batch"})

	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}
