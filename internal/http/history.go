package http

import (
	"context"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const defaultHistoryLimit = 100

// History is the read side of the ingestor's database.
type History interface {
	RecentSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error)
	ListAlerts(ctx context.Context, openOnly bool) ([]domain.Alert, error)
	ListFaults(ctx context.Context, openOnly bool) ([]domain.Fault, error)
}

func RegisterHistory(app *fiber.App, h History) {
	g := app.Group("/history")

	g.Get("/snapshots", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultHistoryLimit)
		if limit <= 0 || limit > 1000 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 1000"})
		}
		items, err := h.RecentSnapshots(c.UserContext(), limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(items)
	})
	g.Get("/alerts", func(c *fiber.Ctx) error {
		items, err := h.ListAlerts(c.UserContext(), c.QueryBool("open"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(items)
	})
	g.Get("/faults", func(c *fiber.Ctx) error {
		items, err := h.ListFaults(c.UserContext(), c.QueryBool("open"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(items)
	})
}
