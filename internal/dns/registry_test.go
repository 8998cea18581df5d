package dns

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-logr/logr"
)

type nopProvider struct{ settings map[string]string }

func (nopProvider) ResolveZone(context.Context, string) (string, error) { return "", nil }
func (nopProvider) Change(context.Context, string, Action, Record) (string, error) {
	return "", nil
}

func TestNewProvider(t *testing.T) {
	Register("test-nop", func(_ logr.Logger, _ aws.Config, settings map[string]string) (Provider, error) {
		return nopProvider{settings: settings}, nil
	})

	p, err := NewProvider("test-nop", logr.Discard(), aws.Config{}, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.(nopProvider).settings["k"]; got != "v" {
		t.Errorf("expected settings to be passed through, got %q", got)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider("does-not-exist", logr.Discard(), aws.Config{}, nil); err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := func(logr.Logger, aws.Config, map[string]string) (Provider, error) { return nopProvider{}, nil }
	Register("test-dup", f)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("test-dup", f)
}
