package controller

import (
	"hebelki-knowledge-be/internal/pkg/serverutils"
	"hebelki-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IJobController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
}

type jobController struct {
	jobService service.IJobService
}

func NewJobController(jobService service.IJobService) IJobController {
	return &jobController{
		jobService: jobService,
	}
}

func (c *jobController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/job/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id", c.Status)
	h.Post(":id/retry", c.Retry)
}

func (c *jobController) Status(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.jobService.Status(ctx.Context(), tenantId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show job", res))
}

func (c *jobController) Retry(ctx *fiber.Ctx) error {
	tenantId, err := serverutils.TenantFromCtx(ctx)
	if err != nil {
		return err
	}
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.jobService.Retry(ctx.Context(), tenantId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Job requeued", res))
}
