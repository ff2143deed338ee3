package controller

import (
	"bytes"
	"errors"

	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/pkg/blob"

	"github.com/gofiber/fiber/v2"
)

// blobController serves the signed upload and download URLs issued by the
// local gateway. Auth is the token in the URL, never the API JWT: the whole
// point of signed URLs is that the uploader may not be an API caller.
type IBlobController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
}

type blobController struct {
	gateway *blob.LocalGateway
}

func NewBlobController(gateway *blob.LocalGateway) IBlobController {
	return &blobController{
		gateway: gateway,
	}
}

func (c *blobController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/blob/v1")
	h.Put("/*", c.Upload)
	h.Get("/*", c.Download)
}

func (c *blobController) Upload(ctx *fiber.Ctx) error {
	key := ctx.Params("*")
	token := ctx.Query("token")

	maxBytes, err := c.gateway.AuthorizeUpload(token, key)
	if err != nil {
		return blobAuthError(err)
	}

	written, err := c.gateway.Put(ctx.Context(), key, bytes.NewReader(ctx.Body()), maxBytes)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "upload exceeds declared size")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Upload stored", fiber.Map{"bytes": written}))
}

func (c *blobController) Download(ctx *fiber.Ctx) error {
	key := ctx.Params("*")
	token := ctx.Query("token")

	if err := c.gateway.AuthorizeDownload(token, key); err != nil {
		return blobAuthError(err)
	}

	rc, err := c.gateway.Fetch(ctx.Context(), key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "object not found")
		}
		return err
	}
	return ctx.SendStream(rc)
}

func blobAuthError(err error) error {
	switch {
	case errors.Is(err, blob.ErrTokenUsed):
		return fiber.NewError(fiber.StatusForbidden, "upload token already used")
	case errors.Is(err, blob.ErrInvalidToken):
		return fiber.NewError(fiber.StatusForbidden, "invalid or expired token")
	default:
		return err
	}
}
