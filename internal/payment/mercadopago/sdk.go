// Package mercadopago adapts the Mercado Pago checkout flow: it verifies
// the vendor SDK is reachable, initializes a session against whichever
// integration surface the SDK build exposes, manages embedded payment form
// lifecycles, and submits tokenized card data for processing.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultSDKURL is the published Mercado Pago browser SDK bundle. The
// loader fetches it to distinguish "vendor is down" from "vendor is up but
// our integration surface is missing".
const DefaultSDKURL = "https://sdk.mercadopago.com/js/v2"

// settleDelay is how long InitBrick waits after tearing down a previous
// form before mounting a new one, so in-flight teardown callbacks finish.
const settleDelay = 500 * time.Millisecond

var (
	// ErrSDKUnavailable means the vendor SDK could not be fetched at all.
	ErrSDKUnavailable = errors.New("mercadopago: sdk unavailable")
	// ErrSDKNotAccessible means the SDK was fetched but no integration
	// entrypoint is registered in this process.
	ErrSDKNotAccessible = errors.New("mercadopago: sdk loaded but not accessible")
)

// Entrypoint is the integration surface a concrete SDK binding registers
// at startup. Different bindings expose different initialization methods;
// Initialize probes for them in a fixed order.
type Entrypoint interface {
	Name() string
}

var (
	entrypointMu sync.RWMutex
	entrypoint   Entrypoint
)

// RegisterEntrypoint installs the process-wide SDK binding. Typically
// called once from main with the REST binding; tests swap in fakes.
func RegisterEntrypoint(ep Entrypoint) {
	entrypointMu.Lock()
	entrypoint = ep
	entrypointMu.Unlock()
}

func registeredEntrypoint() Entrypoint {
	entrypointMu.RLock()
	defer entrypointMu.RUnlock()
	return entrypoint
}

// Loader verifies SDK availability and resolves the registered entrypoint.
// A successful load is cached for the lifetime of the loader; failures are
// not, so a vendor outage is retried on the next checkout.
type Loader struct {
	url  string
	http *resty.Client

	mu     sync.Mutex
	loaded Entrypoint
}

func NewLoader(sdkURL string) *Loader {
	if sdkURL == "" {
		sdkURL = DefaultSDKURL
	}
	return &Loader{
		url:  sdkURL,
		http: resty.New().SetTimeout(10 * time.Second),
	}
}

// Load fetches the SDK bundle and returns the registered entrypoint.
// It distinguishes two failure modes: the bundle being unreachable
// (ErrSDKUnavailable) and the bundle loading without any entrypoint
// registered in this process (ErrSDKNotAccessible).
func (l *Loader) Load(ctx context.Context) (Entrypoint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded != nil {
		return l.loaded, nil
	}

	resp, err := l.http.R().SetContext(ctx).Get(l.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSDKUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: fetch returned %d", ErrSDKUnavailable, resp.StatusCode())
	}

	ep := registeredEntrypoint()
	if ep == nil {
		log.Printf("ERROR: mercadopago sdk fetched from %s but no entrypoint registered", l.url)
		return nil, ErrSDKNotAccessible
	}

	l.loaded = ep
	return ep, nil
}
