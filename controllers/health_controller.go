package controller

import (
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthController struct {
	db      *gorm.DB
	redis   *redis.Client
	version string
}

func NewHealthController(db *gorm.DB, redisClient *redis.Client, version string) *HealthController {
	return &HealthController{db: db, redis: redisClient, version: version}
}

func (hc *HealthController) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": hc.version,
	})
}

// Ready probes the database and redis. Redis trouble is reported but does
// not flip readiness; the database does.
func (hc *HealthController) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}

	dbOK := false
	if sqlDB, err := hc.db.DB(); err == nil {
		if err := sqlDB.PingContext(c.Context()); err == nil {
			checks["database"] = "ok"
			dbOK = true
		} else {
			checks["database"] = "error: " + err.Error()
		}
	} else {
		checks["database"] = "error: " + err.Error()
	}

	if err := hc.redis.Ping(c.Context()).Err(); err == nil {
		checks["redis"] = "ok"
	} else {
		checks["redis"] = "warning: " + err.Error()
	}

	status := "ready"
	if !dbOK {
		status = "not ready"
		c.Status(fiber.StatusServiceUnavailable)
	}

	return c.JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

func (hc *HealthController) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}
