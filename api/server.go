// Package api serves the chat and the lookup operations over HTTP.
package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	orchestratorx "github.com/tanpawarit/chative-sei/agent/agents/orchestrator"
	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	toolx "github.com/tanpawarit/chative-sei/agent/tool"
	metricsx "github.com/tanpawarit/chative-sei/pkg/metrics"
)

// Config is loaded with the HTTP prefix.
type Config struct {
	Addr         string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"120s"`
	BodyLimit    int           `envconfig:"BODY_LIMIT" split_words:"true" default:"65536"`
}

// Chatter answers chat messages; *orchestrator.Orchestrator satisfies it.
type Chatter interface {
	Handle(ctx context.Context, sessionID, channelType, text string) (orchestratorx.Result, error)
	Reset(ctx context.Context, sessionID string) error
}

type Deps struct {
	Lookup   *casestorex.Lookup
	Chat     Chatter
	Recorder *metricsx.Recorder
	// Ready reports whether the case store can serve lookups.
	Ready func() bool
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Route     string `json:"route"`
	ToolCalls int    `json:"tool_calls"`
}

const channelHTTP = "http"

func NewApp(cfg Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(),
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(Logger())

	RegisterRoutes(app, deps)
	return app
}

func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if deps.Ready != nil && !deps.Ready() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "loading"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(deps.Recorder.Handler()))

	if deps.Lookup != nil {
		app.Get("/processes/:sequence/:year", searchProcess(deps.Lookup))
		app.Get("/processes/:sequence/:year/documents", listDocuments(deps.Lookup))
	}

	if deps.Chat != nil {
		app.Post("/chat", chat(deps.Chat))
		app.Delete("/chat/:session_id", resetChat(deps.Chat))
	}
}

func processNumber(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("sequence")) + "/" + strings.TrimSpace(c.Params("year"))
}

func searchProcess(lookup *casestorex.Lookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := lookup.SearchProcess(c.UserContext(), processNumber(c))
		if err != nil {
			return writeLookupError(c, err)
		}
		return c.JSON(res)
	}
}

func listDocuments(lookup *casestorex.Lookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		number := processNumber(c)

		if docType := c.Query("type"); docType != "" {
			res, err := lookup.GetDocumentsByType(c.UserContext(), number, docType)
			if err != nil {
				return writeLookupError(c, err)
			}
			return c.JSON(res)
		}

		limit, err := queryInt(c, "limit")
		if err != nil {
			return writeLookupError(c, err)
		}
		offset, err := queryInt(c, "offset")
		if err != nil {
			return writeLookupError(c, err)
		}

		res, err := lookup.GetDocumentList(c.UserContext(), number, casestorex.Page{Limit: limit, Offset: offset})
		if err != nil {
			return writeLookupError(c, err)
		}
		return c.JSON(res)
	}
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", casestorex.ErrInputFormat, key)
	}
	return n, nil
}

func chat(chatter Chatter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, toolx.CodeInvalidInput, "body must be JSON with a message field")
		}

		sessionID := strings.TrimSpace(req.SessionID)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		out, err := chatter.Handle(c.UserContext(), sessionID, channelHTTP, req.Message)
		if err != nil {
			return writeChatError(c, err)
		}
		return c.JSON(chatResponse{
			SessionID: sessionID,
			Reply:     out.Reply,
			Route:     out.Route,
			ToolCalls: out.ToolCalls,
		})
	}
}

func resetChat(chatter Chatter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := chatter.Reset(c.UserContext(), c.Params("session_id")); err != nil {
			return writeChatError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
