package controller

import (
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	InitUpload(ctx *fiber.Ctx) error
	CompleteUpload(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateClassification(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Scrape(ctx *fiber.Ctx) error
}

type documentController struct {
	uploadService   service.IUploadService
	documentService service.IDocumentService
}

func NewDocumentController(uploadService service.IUploadService, documentService service.IDocumentService) IDocumentController {
	return &documentController{
		uploadService:   uploadService,
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("upload/init", c.InitUpload)
	h.Post("upload/:versionId/complete", c.CompleteUpload)
	h.Post("scrape", c.Scrape)
	h.Get(":id", c.Show)
	h.Patch(":id/classification", c.UpdateClassification)
	h.Delete(":id", c.Delete)
}

func (c *documentController) InitUpload(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.InitUploadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.uploadService.InitUpload(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success init upload", res))
}

func (c *documentController) CompleteUpload(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}
	versionId, _ := uuid.Parse(ctx.Params("versionId"))

	var req dto.CompleteUploadRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	req.VersionId = versionId

	res, err := c.uploadService.CompleteUpload(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success complete upload", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.documentService.Show(ctx.Context(), tenantId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) UpdateClassification(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}
	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.UpdateClassificationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.DocumentId = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.UpdateClassification(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update classification", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.documentService.Delete(ctx.Context(), tenantId, id)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Delete scheduled", res))
}

func (c *documentController) Scrape(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ScrapeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Scrape(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Scrape queued", res))
}
