// Package server exposes the pipeline validator over HTTP with fiber.
package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"

	"github.com/meikuraledutech/dagcheck"
	"github.com/meikuraledutech/dagcheck/config"
	"github.com/meikuraledutech/dagcheck/logging"
)

const (
	HeaderRequestID    = "X-Request-ID"
	HeaderValidationID = "X-Validation-ID"

	// ParsePath is the validation route.
	ParsePath = "/pipelines/parse"

	// BodyTooLargeMessage is returned when a pipeline exceeds server.body_limit.
	BodyTooLargeMessage = "Pipeline payload too large"

	// PipelineField is the form field carrying the serialized pipeline.
	PipelineField = "pipeline"

	maxHistoryLimit = 1000
	requestIDKey    = "requestid"
)

// New builds the fiber app. A nil store disables the history routes.
func New(cfg config.Config, store dagcheck.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "dagcheck",
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	// requestLogger wraps the recoverer so panicking requests still get a log line.
	app.Use(requestLogger)
	app.Use(recoverer.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	opts := cfg.Validation

	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"Ping": "Pong"})
	})

	// ── Validation ───────────────────────────────────────────────────
	app.Post(ParsePath, func(c fiber.Ctx) error {
		resp := opts.Process(pipelinePayload(c))
		reqID, _ := c.Locals(requestIDKey).(string)
		if resp.OK() {
			logging.Debug("Validator", "request %s: nodes=%d edges=%d is_dag=%t",
				reqID, resp.NumNodes, resp.NumEdges, resp.IsDAG)
		} else {
			logging.Debug("Validator", "request %s: %s", reqID, resp.Error)
		}

		if store != nil {
			rec := dagcheck.NewRecord(resp)
			id, err := store.RecordValidation(c.Context(), rec)
			if err != nil {
				logging.Error("History", err, "request %s: failed to record validation", reqID)
			} else {
				c.Set(HeaderValidationID, id)
			}
		}

		return c.JSON(resp)
	})

	if store == nil {
		return app
	}

	// ── History ──────────────────────────────────────────────────────
	defaultLimit := cfg.History.DefaultLimit

	app.Get("/validations", func(c fiber.Ctx) error {
		limit := defaultLimit
		if q := c.Query("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
			}
			limit = min(n, maxHistoryLimit)
		}
		records, err := store.ListValidations(c.Context(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(records)
	})

	app.Get("/validations/:id", func(c fiber.Ctx) error {
		rec, err := store.GetValidation(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if rec == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "validation not found"})
		}
		return c.JSON(rec)
	})

	app.Delete("/validations/:id", func(c fiber.Ctx) error {
		err := store.DeleteValidation(c.Context(), c.Params("id"))
		if errors.Is(err, dagcheck.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "validation not found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	return app
}

// pipelinePayload returns the raw pipeline: the request body for JSON
// requests, the "pipeline" form field otherwise.
func pipelinePayload(c fiber.Ctx) []byte {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	if strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return c.Body()
	}
	return []byte(c.FormValue(PipelineField))
}

func requestLogger(c fiber.Ctx) error {
	id := c.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(HeaderRequestID, id)
	c.Locals(requestIDKey, id)

	start := time.Now()
	err := c.Next()
	if err != nil {
		logging.Warn("HTTP", "%s %s id=%s took=%s: %v", c.Method(), c.Path(), id, time.Since(start), err)
		return err
	}
	logging.Info("HTTP", "%s %s status=%d id=%s took=%s",
		c.Method(), c.Path(), c.Response().StatusCode(), id, time.Since(start))
	return nil
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	// An oversized pipeline is a validation failure like any other.
	if code == fiber.StatusRequestEntityTooLarge && c.Path() == ParsePath {
		logging.Warn("HTTP", "%s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusOK).JSON(dagcheck.Response{Error: BodyTooLargeMessage})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
