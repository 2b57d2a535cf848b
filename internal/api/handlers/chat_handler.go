package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/dto"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Ask answers one drug question. Unresolvable questions are a success at the
// HTTP layer: the pipeline's guidance message is the answer.
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid user identity",
		})
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	result, err := h.chatService.Ask(c.Context(), userID, req.Question)
	if err != nil {
		if errors.Is(err, service.ErrCatalogNotReady) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Drug catalog is still loading, please retry",
			})
		}
		h.logger.Error("Chat request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Chat request failed",
		})
	}

	return c.JSON(dto.ChatResponseFromResult(result))
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid user identity",
		})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	logs, err := h.chatService.History(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to load chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chat history",
		})
	}

	resp := dto.ChatHistoryResponse{Items: make([]dto.ChatLogResponse, 0, len(logs))}
	for _, log := range logs {
		resp.Items = append(resp.Items, dto.ChatLogResponse{
			ID:        log.ID.String(),
			Question:  log.Question,
			Answer:    log.Answer,
			DrugName:  log.DrugName,
			Category:  log.Category,
			CreatedAt: log.CreatedAt,
		})
	}
	return c.JSON(resp)
}

func (h *ChatHandler) ListDrugs(c *fiber.Ctx) error {
	names, err := h.chatService.DrugNames()
	if err != nil {
		if errors.Is(err, service.ErrCatalogNotReady) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Drug catalog is still loading, please retry",
			})
		}
		h.logger.Error("Failed to list drugs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list drugs",
		})
	}

	return c.JSON(dto.DrugListResponse{Drugs: names, Count: len(names)})
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userID").(string)
	return uuid.Parse(raw)
}
