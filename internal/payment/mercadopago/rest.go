package mercadopago

import (
	"context"
	"errors"
)

// RESTEntrypoint is the default SDK binding: bricks are tracked as server
// side form sessions and payments flow through the REST processing
// endpoint. It exposes the constructor surface only.
type RESTEntrypoint struct{}

func NewRESTEntrypoint() *RESTEntrypoint { return &RESTEntrypoint{} }

func (e *RESTEntrypoint) Name() string { return "rest" }

func (e *RESTEntrypoint) New(publicKey string, opts Options) (Handle, error) {
	if publicKey == "" {
		return nil, errors.New("mercadopago: public key is required")
	}
	return &restHandle{publicKey: publicKey, locale: opts.Locale}, nil
}

type restHandle struct {
	publicKey string
	locale    string
}

func (h *restHandle) Bricks() BricksBuilder {
	return &restBricksBuilder{}
}

type restBricksBuilder struct{}

func (b *restBricksBuilder) Create(ctx context.Context, brickType, containerID string, settings BrickSettings) (BrickController, error) {
	if containerID == "" {
		return nil, errors.New("mercadopago: container id is required")
	}
	return &restBrickController{}, nil
}

type restBrickController struct{}

func (c *restBrickController) Unmount() error { return nil }
