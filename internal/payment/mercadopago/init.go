package mercadopago

import (
	"errors"
	"fmt"
	"log"
)

// ErrInitFailed means no initialization strategy produced a usable handle.
var ErrInitFailed = errors.New("mercadopago: initialization failed")

// Options carries session-level settings passed to the SDK binding.
type Options struct {
	Locale string
}

// Handle is an initialized SDK session.
type Handle interface {
	Bricks() BricksBuilder
}

// The entrypoint may expose any of these optional surfaces depending on
// the SDK build. Initialize probes them in order and uses the first one
// that is present and succeeds.

type constructorSDK interface {
	New(publicKey string, opts Options) (Handle, error)
}

type instancesSDK interface {
	Instance(publicKey string) (Handle, error)
}

type createSDK interface {
	Create(publicKey string, opts Options) (Handle, error)
}

type initializerSDK interface {
	Init(publicKey string) (Handle, error)
}

type publicKeySDK interface {
	SetPublicKey(publicKey string) (Handle, error)
}

type initStrategy struct {
	name    string
	attempt func(ep Entrypoint, publicKey string, opts Options) (Handle, bool, error)
}

// initStrategies is ordered: newer SDK surfaces first, legacy last. The
// bool return reports whether the entrypoint exposes the surface at all.
var initStrategies = []initStrategy{
	{
		name: "constructor",
		attempt: func(ep Entrypoint, publicKey string, opts Options) (Handle, bool, error) {
			sdk, ok := ep.(constructorSDK)
			if !ok {
				return nil, false, nil
			}
			h, err := sdk.New(publicKey, opts)
			return h, true, err
		},
	},
	{
		name: "instances",
		attempt: func(ep Entrypoint, publicKey string, opts Options) (Handle, bool, error) {
			sdk, ok := ep.(instancesSDK)
			if !ok {
				return nil, false, nil
			}
			h, err := sdk.Instance(publicKey)
			return h, true, err
		},
	},
	{
		name: "create",
		attempt: func(ep Entrypoint, publicKey string, opts Options) (Handle, bool, error) {
			sdk, ok := ep.(createSDK)
			if !ok {
				return nil, false, nil
			}
			h, err := sdk.Create(publicKey, opts)
			return h, true, err
		},
	},
	{
		name: "init",
		attempt: func(ep Entrypoint, publicKey string, opts Options) (Handle, bool, error) {
			sdk, ok := ep.(initializerSDK)
			if !ok {
				return nil, false, nil
			}
			h, err := sdk.Init(publicKey)
			return h, true, err
		},
	},
	{
		name: "setPublicKey",
		attempt: func(ep Entrypoint, publicKey string, opts Options) (Handle, bool, error) {
			sdk, ok := ep.(publicKeySDK)
			if !ok {
				return nil, false, nil
			}
			h, err := sdk.SetPublicKey(publicKey)
			return h, true, err
		},
	},
}

// Initialize tries each known SDK surface in order until one yields a
// handle. A strategy that is present but fails does not abort the probe;
// the next surface is tried. All failures are folded into ErrInitFailed.
func Initialize(ep Entrypoint, publicKey string, opts Options) (Handle, error) {
	var lastErr error
	for _, st := range initStrategies {
		h, present, err := st.attempt(ep, publicKey, opts)
		if !present {
			continue
		}
		if err != nil {
			log.Printf("ERROR: mercadopago init strategy %q on %s: %v", st.name, ep.Name(), err)
			lastErr = err
			continue
		}
		if h != nil {
			return h, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, lastErr)
	}
	return nil, ErrInitFailed
}
