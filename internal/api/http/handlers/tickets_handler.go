package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/orchestrator"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

// TicketsHandler exposes the triage pipeline over HTTP. Processed
// resolutions are kept in process memory, demo-store style; durable
// persistence is out of scope.
type TicketsHandler struct {
	orchestrator *orchestrator.Orchestrator

	mu          sync.RWMutex
	resolutions []domain.TicketResolution
	byID        map[string]int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(orch *orchestrator.Orchestrator) *TicketsHandler {
	return &TicketsHandler{
		orchestrator: orch,
		byID:         make(map[string]int),
	}
}

// Submit POST /tickets runs the full pipeline and returns the
// resolution. Failed resolutions are still data, not HTTP errors.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket := domain.SupportTicket{
		ID:        strings.TrimSpace(req.ID),
		Subject:   strings.TrimSpace(req.Subject),
		Body:      req.Body,
		Customer:  req.Customer,
		Variables: req.Variables,
	}
	if ticket.ID == "" {
		ticket.ID = generateTicketKey()
	}

	resolution := h.orchestrator.Process(c.UserContext(), ticket)
	h.record(resolution)

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ResolutionViewFrom(resolution)})
}

// List GET /tickets returns processed resolutions, newest last.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	h.mu.RLock()
	items := make([]dto.ResolutionView, 0, len(h.resolutions))
	for _, resolution := range h.resolutions {
		items = append(items, dto.ResolutionViewFrom(resolution))
	}
	h.mu.RUnlock()
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id fetches one processed resolution.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	h.mu.RLock()
	index, ok := h.byID[id]
	var resolution domain.TicketResolution
	if ok {
		resolution = h.resolutions[index]
	}
	h.mu.RUnlock()
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return c.JSON(fiber.Map{"data": dto.ResolutionViewFrom(resolution)})
}

func (h *TicketsHandler) record(resolution domain.TicketResolution) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index, ok := h.byID[resolution.TicketID]; ok {
		h.resolutions[index] = resolution
		return
	}
	h.byID[resolution.TicketID] = len(h.resolutions)
	h.resolutions = append(h.resolutions, resolution)
}

func generateTicketKey() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
