package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"text2sql-be/internal/dto"
	"text2sql-be/internal/pkg/serverutils"
	"text2sql-be/internal/service"
	"text2sql-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
	Models(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type agentController struct {
	service   service.IAgentService
	jwtSecret string
}

func NewAgentController(service service.IAgentService, jwtSecret string) IAgentController {
	return &agentController{service: service, jwtSecret: jwtSecret}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/ask", c.Ask)
	h.Post("/ask/stream", c.AskStream)
	h.Get("/models", c.Models)
	h.Get("/session/:id", c.ShowSession)
	h.Delete("/session/:id", c.DeleteSession)
}

func (c *agentController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ask agent", res))
}

// AskStream answers over server-sent events: one frame per pipeline event,
// then token frames, then an on_done frame carrying the final answer.
func (c *agentController) AskStream(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	svc := c.service
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_ = svc.AskStream(streamCtx, &req, func(frame events.Frame) error {
			raw, err := json.Marshal(frame)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Event, raw); err != nil {
				return err
			}
			return w.Flush()
		})
	}))

	return nil
}

func (c *agentController) Models(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get models", c.service.Models()))
}

func (c *agentController) ShowSession(ctx *fiber.Ctx) error {
	res, err := c.service.ShowSession(ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *agentController) DeleteSession(ctx *fiber.Ctx) error {
	c.service.DeleteSession(ctx.Params("id"))
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}
