package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/service"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const heartbeat = 15 * time.Second

type Deps struct {
	Dashboard   *service.Dashboard
	Maintenance *service.MaintenanceService
	Reports     *service.ReportService

	// Done ends open event streams; close it before shutting the app down.
	Done <-chan struct{}
}

func Register(app *fiber.App, d Deps) {
	g := app.Group("/")

	g.Get("state", func(c *fiber.Ctx) error {
		return c.JSON(d.Dashboard.GetState())
	})
	g.Get("events", func(c *fiber.Ctx) error {
		return stream(c, d.Dashboard, d.Done)
	})

	g.Post("dispatch", func(c *fiber.Ctx) error {
		var env store.Envelope
		if err := c.BodyParser(&env); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		t, err := store.Decode(env)
		if err != nil {
			return fail(c, err)
		}
		return apply(c, d.Dashboard, t)
	})

	sim := g.Group("simulation")
	sim.Post("/start", func(c *fiber.Ctx) error {
		return apply(c, d.Dashboard, store.StartSimulation{})
	})
	sim.Post("/pause", func(c *fiber.Ctx) error {
		return apply(c, d.Dashboard, store.PauseSimulation{})
	})
	sim.Put("/speed", func(c *fiber.Ctx) error {
		var body struct {
			Speed float64 `json:"speed"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return apply(c, d.Dashboard, store.SetSimulationSpeed{Speed: body.Speed})
	})
	sim.Put("/scenario", func(c *fiber.Ctx) error {
		var body struct {
			Scenario string `json:"scenario"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return apply(c, d.Dashboard, store.SetScenario{Scenario: domain.Scenario(body.Scenario)})
	})
	sim.Post("/tick", func(c *fiber.Ctx) error {
		if err := d.Dashboard.Tick(c.UserContext()); err != nil {
			return fail(c, err)
		}
		return c.JSON(d.Dashboard.GetState())
	})

	g.Post("alerts/:id/ack", func(c *fiber.Ctx) error {
		return apply(c, d.Dashboard, store.AcknowledgeAlert{ID: c.Params("id")})
	})
	g.Delete("alerts/:id", func(c *fiber.Ctx) error {
		return apply(c, d.Dashboard, store.DismissAlert{ID: c.Params("id")})
	})
	g.Post("faults/:id/resolve", func(c *fiber.Ctx) error {
		return apply(c, d.Dashboard, store.ResolveFault{ID: c.Params("id")})
	})

	g.Get("maintenance", func(c *fiber.Ctx) error {
		if d.Maintenance == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "maintenance prediction disabled"})
		}
		return c.JSON(d.Maintenance.Predict(d.Dashboard.GetState().PumpStatus))
	})

	g.Get("reports", func(c *fiber.Ctx) error {
		if d.Reports == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": service.ErrCloudDisabled.Error()})
		}
		keys, err := d.Reports.ListArchives(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(keys)
	})
	g.Post("reports/usage", func(c *fiber.Ctx) error {
		if d.Reports == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": service.ErrCloudDisabled.Error()})
		}
		url, err := d.Reports.ArchiveUsage(c.UserContext(), d.Dashboard.GetState(), time.Now())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})
}

func apply(c *fiber.Ctx, dash *service.Dashboard, t store.Transition) error {
	if err := dash.Dispatch(t); err != nil {
		return fail(c, err)
	}
	return c.JSON(dash.GetState())
}

func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, store.ErrUnknownTransition), errors.Is(err, store.ErrInvalidTransition):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrCloudDisabled):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// stream writes every committed snapshot as a server-sent event until the
// client goes away or done is closed.
func stream(c *fiber.Ctx, dash *service.Dashboard, done <-chan struct{}) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	updates := make(chan domain.DashboardState, 16)
	unsubscribe := dash.Subscribe(func(s domain.DashboardState) {
		select {
		case updates <- s:
		default:
		}
	})
	initial := dash.GetState()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		if err := writeEvent(w, initial); err != nil {
			return
		}
		for {
			select {
			case <-done:
				return
			case s := <-updates:
				if err := writeEvent(w, s); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, s domain.DashboardState) error {
	b, err := json.Marshal(s)
	if err != nil {
		log.Error().Err(err).Msg("marshal snapshot")
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", b); err != nil {
		return err
	}
	return w.Flush()
}
