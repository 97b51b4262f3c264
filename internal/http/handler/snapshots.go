package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"userapi/internal/repository"
	"userapi/internal/service"
)

// CreateSnapshot exports all users to object storage.
//
// @Summary     Export a user snapshot
// @Tags        admin
// @Produce     json
// @Success     201 {object} service.SnapshotResult
// @Failure     503 {object} errorPayload
// @Router      /admin/snapshots [post]
func CreateSnapshot(svc service.SnapshotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Export(c.UserContext())
		if err != nil {
			if errors.Is(err, repository.ErrStorageUnavailable) || errors.Is(err, repository.ErrConstraintViolation) {
				return writeServiceError(c, err)
			}
			return writeError(c, fiber.StatusBadGateway, "SNAPSHOT_FAILED", "snapshot upload failed")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
