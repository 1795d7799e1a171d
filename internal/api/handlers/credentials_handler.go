package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/socialhub-app/socialhub/internal/service"
	"github.com/socialhub-app/socialhub/internal/transfer"
)

type CredentialsHandler struct {
	s service.CredentialService
}

func NewCredentialsHandler(service service.CredentialService) *CredentialsHandler {
	return &CredentialsHandler{s: service}
}

func (h *CredentialsHandler) SaveConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var cc transfer.CredentialConfig
	if err := c.BodyParser(&cc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	if err := h.s.SaveConfig(c.Context(), userID, &cc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Credentials saved",
	})
}

func (h *CredentialsHandler) ListConfigs(c *fiber.Ctx) error {
	userID := GetUserID(c)

	configs, err := h.s.ListConfigs(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list credentials",
		})
	}

	// Secret material stays server-side.
	for i := range configs {
		configs[i].ClientSecret = ""
		configs[i].APIKey = ""
		configs[i].BearerToken = ""
	}

	return c.Status(fiber.StatusOK).JSON(configs)
}

func (h *CredentialsHandler) VerifyCredentials(c *fiber.Ctx) error {
	userID := GetUserID(c)
	provider := c.Params("provider")

	profile, err := h.s.Verify(c.Context(), userID, provider)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"verified": true,
		"profile":  profile,
	})
}

func (h *CredentialsHandler) DeleteConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)
	provider := c.Params("provider")

	if err := h.s.DeleteConfig(c.Context(), userID, provider); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Credentials removed",
	})
}
