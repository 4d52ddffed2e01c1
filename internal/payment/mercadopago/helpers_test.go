package mercadopago

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

// sdkServer serves a fake SDK bundle for loader tests.
func sdkServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("// sdk bundle"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func brickSettings(amount string) BrickSettings {
	d, _ := decimal.NewFromString(amount)
	return BrickSettings{Amount: d, PayerEmail: "guest@example.com", MaxInstallments: 12}
}

// countingEntrypoint tracks brick lifecycle calls across the adapter.
type countingEntrypoint struct {
	created   atomic.Int32
	unmounted atomic.Int32
}

func (e *countingEntrypoint) Name() string { return "counting" }

func (e *countingEntrypoint) New(publicKey string, opts Options) (Handle, error) {
	return &countingHandle{ep: e}, nil
}

type countingHandle struct {
	ep *countingEntrypoint
}

func (h *countingHandle) Bricks() BricksBuilder {
	return &countingBuilder{ep: h.ep}
}

type countingBuilder struct {
	ep *countingEntrypoint
}

func (b *countingBuilder) Create(ctx context.Context, brickType, containerID string, settings BrickSettings) (BrickController, error) {
	b.ep.created.Add(1)
	return &countingController{ep: b.ep}, nil
}

type countingController struct {
	ep *countingEntrypoint
}

func (c *countingController) Unmount() error {
	c.ep.unmounted.Add(1)
	return nil
}
