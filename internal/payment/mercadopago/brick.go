package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mesafacil/api/internal/payment"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount guards brick creation: the embedded form renders a
// charge, so a non-positive amount is a caller bug, not a vendor error.
var ErrInvalidAmount = errors.New("mercadopago: brick amount must be positive")

// BricksBuilder creates embedded payment form controllers.
type BricksBuilder interface {
	Create(ctx context.Context, brickType, containerID string, settings BrickSettings) (BrickController, error)
}

// BrickController is a live embedded form. Unmount releases it.
type BrickController interface {
	Unmount() error
}

// BrickSettings configures a card payment brick.
type BrickSettings struct {
	Amount          decimal.Decimal
	PayerEmail      string
	MaxInstallments int
}

// Adapter owns the full Mercado Pago lifecycle for one organisation:
// loading the SDK, initializing it once, mounting/replacing bricks per
// container, and submitting tokenized payments.
type Adapter struct {
	loader    *Loader
	processor *Client
	publicKey string
	locale    string

	mu     sync.Mutex
	handle Handle
	bricks map[string]BrickController
}

func NewAdapter(loader *Loader, processor *Client, publicKey, locale string) *Adapter {
	return &Adapter{
		loader:    loader,
		processor: processor,
		publicKey: publicKey,
		locale:    locale,
		bricks:    make(map[string]BrickController),
	}
}

// Initialize loads the SDK and produces a handle. Safe to call repeatedly;
// after the first success it is a no-op.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initializeLocked(ctx)
}

func (a *Adapter) initializeLocked(ctx context.Context) error {
	if a.handle != nil {
		return nil
	}
	ep, err := a.loader.Load(ctx)
	if err != nil {
		return err
	}
	h, err := Initialize(ep, a.publicKey, Options{Locale: a.locale})
	if err != nil {
		return err
	}
	a.handle = h
	return nil
}

// InitBrick mounts a card payment brick in the given container. If the
// container already holds a brick it is unmounted first and the new mount
// waits for the settle delay, making repeated initialization idempotent
// rather than an error.
func (a *Adapter) InitBrick(ctx context.Context, containerID string, settings BrickSettings) error {
	if !settings.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.initializeLocked(ctx); err != nil {
		return err
	}

	if prev, ok := a.bricks[containerID]; ok {
		if err := prev.Unmount(); err != nil {
			log.Printf("ERROR: unmount previous brick in %q: %v", containerID, err)
		}
		delete(a.bricks, containerID)

		select {
		case <-time.After(settleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ctrl, err := a.handle.Bricks().Create(ctx, "cardPayment", containerID, settings)
	if err != nil {
		return fmt.Errorf("create brick in %q: %w", containerID, err)
	}
	a.bricks[containerID] = ctrl
	return nil
}

// Teardown unmounts the brick in the given container, if any. Unmount
// failures are logged, never surfaced: teardown runs on the way out of a
// checkout and must not block it.
func (a *Adapter) Teardown(containerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctrl, ok := a.bricks[containerID]
	if !ok {
		return
	}
	if err := ctrl.Unmount(); err != nil {
		log.Printf("ERROR: teardown brick in %q: %v", containerID, err)
	}
	delete(a.bricks, containerID)
}

// Submit forwards a tokenized payment to the processing endpoint.
func (a *Adapter) Submit(ctx context.Context, params SubmitParams) (payment.Outcome, *ProcessResponse, error) {
	return a.processor.Process(ctx, params)
}
