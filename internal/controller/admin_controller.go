package controller

import (
	"hebelki-knowledge-be/internal/dto"
	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Reconcile(ctx *fiber.Ctx) error
	EmbeddingStatus(ctx *fiber.Ctx) error
}

type adminController struct {
	reconcileService service.IReconcileService
}

func NewAdminController(reconcileService service.IReconcileService) IAdminController {
	return &adminController{
		reconcileService: reconcileService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("reconcile", c.Reconcile)
	h.Get("embedding-status", c.EmbeddingStatus)
}

func (c *adminController) Reconcile(ctx *fiber.Ctx) error {
	var req dto.ReconcileRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reconcileService.Reconcile(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Reconciliation finished", res))
}

func (c *adminController) EmbeddingStatus(ctx *fiber.Ctx) error {
	var tenantId *uuid.UUID
	if q := ctx.Query("tenant_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid tenant_id")
		}
		tenantId = &id
	}

	res, err := c.reconcileService.EmbeddingStatus(ctx.Context(), tenantId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success embedding status", res))
}
