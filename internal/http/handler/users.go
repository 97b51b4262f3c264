package handler

import (
	"github.com/gofiber/fiber/v2"

	"userapi/internal/model"
	"userapi/internal/service"
)

// ListUsers returns every user as a JSON array ("[]" when there are none).
//
// @Summary     List users
// @Tags        users
// @Produce     json
// @Success     200 {array}  model.User
// @Failure     503 {object} errorPayload
// @Router      /users/ [get]
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.ListUsers(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(users)
	}
}

// CreateUser saves the posted user. The stored record, including its assigned ID,
// is not echoed back: success is a bare 200 with an empty body.
//
// @Summary     Create user
// @Tags        users
// @Accept      json
// @Param       user body model.User true "User (id optional)"
// @Success     200
// @Failure     400 {object} errorPayload
// @Failure     409 {object} errorPayload
// @Failure     503 {object} errorPayload
// @Router      /users/ [post]
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user model.User
		if err := c.App().Config().JSONDecoder(c.Body(), &user); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed user payload")
		}

		if _, err := svc.SaveUser(c.UserContext(), &user); err != nil {
			return writeServiceError(c, err)
		}

		c.Status(fiber.StatusOK)
		return nil
	}
}
