package mercadopago

import (
	"context"
	"errors"
	"testing"
)

// fakeHandle records which surface produced it.
type fakeHandle struct {
	via string
}

func (h *fakeHandle) Bricks() BricksBuilder { return &restBricksBuilder{} }

// constructorOnly exposes just the constructor surface.
type constructorOnly struct {
	err error
}

func (e *constructorOnly) Name() string { return "constructor-only" }
func (e *constructorOnly) New(publicKey string, opts Options) (Handle, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &fakeHandle{via: "constructor"}, nil
}

// legacyInstances exposes constructor (broken) plus the instances surface.
type legacyInstances struct {
	constructorErr error
}

func (e *legacyInstances) Name() string { return "legacy-instances" }
func (e *legacyInstances) New(publicKey string, opts Options) (Handle, error) {
	return nil, e.constructorErr
}
func (e *legacyInstances) Instance(publicKey string) (Handle, error) {
	return &fakeHandle{via: "instances"}, nil
}

// publicKeyOnly exposes only the oldest surface.
type publicKeyOnly struct{}

func (e *publicKeyOnly) Name() string { return "public-key-only" }
func (e *publicKeyOnly) SetPublicKey(publicKey string) (Handle, error) {
	return &fakeHandle{via: "setPublicKey"}, nil
}

// bareEntrypoint exposes no initialization surface at all.
type bareEntrypoint struct{}

func (e *bareEntrypoint) Name() string { return "bare" }

func TestInitialize_ConstructorFirst(t *testing.T) {
	h, err := Initialize(&constructorOnly{}, "pk-test", Options{Locale: "es-CO"})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if h.(*fakeHandle).via != "constructor" {
		t.Errorf("surface: got %q, want constructor", h.(*fakeHandle).via)
	}
}

func TestInitialize_FallsBackWhenConstructorFails(t *testing.T) {
	ep := &legacyInstances{constructorErr: errors.New("not a constructor")}
	h, err := Initialize(ep, "pk-test", Options{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if h.(*fakeHandle).via != "instances" {
		t.Errorf("surface: got %q, want instances", h.(*fakeHandle).via)
	}
}

func TestInitialize_LegacySetPublicKey(t *testing.T) {
	h, err := Initialize(&publicKeyOnly{}, "pk-test", Options{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if h.(*fakeHandle).via != "setPublicKey" {
		t.Errorf("surface: got %q, want setPublicKey", h.(*fakeHandle).via)
	}
}

func TestInitialize_NoSurface(t *testing.T) {
	_, err := Initialize(&bareEntrypoint{}, "pk-test", Options{})
	if !errors.Is(err, ErrInitFailed) {
		t.Errorf("got %v, want ErrInitFailed", err)
	}
}

func TestInitialize_AllSurfacesFail(t *testing.T) {
	boom := errors.New("key rejected")
	_, err := Initialize(&constructorOnly{err: boom}, "pk-test", Options{})
	if !errors.Is(err, ErrInitFailed) {
		t.Errorf("got %v, want ErrInitFailed", err)
	}
}

func TestRESTEntrypoint_RequiresPublicKey(t *testing.T) {
	if _, err := Initialize(NewRESTEntrypoint(), "", Options{}); err == nil {
		t.Error("expected error for empty public key")
	}
}

func TestAdapter_InitBrickReplacesPrevious(t *testing.T) {
	srv := sdkServer(t)
	withEntrypoint(t, &countingEntrypoint{})

	adapter := NewAdapter(NewLoader(srv.URL), nil, "pk-test", "es-CO")

	settings := brickSettings("50000")
	if err := adapter.InitBrick(context.Background(), "payment-form", settings); err != nil {
		t.Fatalf("first InitBrick: %v", err)
	}
	if err := adapter.InitBrick(context.Background(), "payment-form", settings); err != nil {
		t.Fatalf("second InitBrick: %v", err)
	}

	ep := registeredEntrypoint().(*countingEntrypoint)
	if ep.created.Load() != 2 {
		t.Errorf("bricks created: got %d, want 2", ep.created.Load())
	}
	if ep.unmounted.Load() != 1 {
		t.Errorf("bricks unmounted: got %d, want 1", ep.unmounted.Load())
	}
}

func TestAdapter_InitBrickRejectsNonPositiveAmount(t *testing.T) {
	adapter := NewAdapter(NewLoader("http://127.0.0.1:1"), nil, "pk-test", "es-CO")

	err := adapter.InitBrick(context.Background(), "payment-form", brickSettings("0"))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestAdapter_TeardownUnknownContainerIsNoop(t *testing.T) {
	adapter := NewAdapter(NewLoader("http://127.0.0.1:1"), nil, "pk-test", "es-CO")
	adapter.Teardown("never-mounted")
}

func TestAdapter_TeardownUnmountsBrick(t *testing.T) {
	srv := sdkServer(t)
	withEntrypoint(t, &countingEntrypoint{})

	adapter := NewAdapter(NewLoader(srv.URL), nil, "pk-test", "es-CO")
	if err := adapter.InitBrick(context.Background(), "payment-form", brickSettings("25000")); err != nil {
		t.Fatalf("InitBrick: %v", err)
	}

	adapter.Teardown("payment-form")

	ep := registeredEntrypoint().(*countingEntrypoint)
	if ep.unmounted.Load() != 1 {
		t.Errorf("bricks unmounted: got %d, want 1", ep.unmounted.Load())
	}
}
