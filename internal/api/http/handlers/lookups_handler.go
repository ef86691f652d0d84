package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/OliveaSegaram/EC-sub001/internal/api/dto"
	"github.com/OliveaSegaram/EC-sub001/internal/domain"
	"github.com/OliveaSegaram/EC-sub001/internal/repository"
	"github.com/OliveaSegaram/EC-sub001/internal/service"
	apperrors "github.com/OliveaSegaram/EC-sub001/pkg/util"
)

// LookupsHandler serves reference data and attachment registration.
type LookupsHandler struct {
	lookups     *service.LookupService
	attachments repository.AttachmentRepository
}

// NewLookupsHandler constructs handler.
func NewLookupsHandler(lookupService *service.LookupService, attachments repository.AttachmentRepository) *LookupsHandler {
	return &LookupsHandler{lookups: lookupService, attachments: attachments}
}

// ListDistricts GET /districts.
func (h *LookupsHandler) ListDistricts(c *fiber.Ctx) error {
	districts, err := h.lookups.ListDistricts(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DistrictResponse, 0, len(districts))
	for _, district := range districts {
		items = append(items, dto.DistrictResponse{ID: district.ID, Name: district.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListSkills GET /skills.
func (h *LookupsHandler) ListSkills(c *fiber.Ctx) error {
	skills, err := h.lookups.ListSkills(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.SkillResponse, 0, len(skills))
	for _, skill := range skills {
		items = append(items, dto.SkillResponse{ID: skill.ID, Name: skill.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// RegisterAttachment POST /attachments. Records metadata for a file already
// placed in the external store and hands back the reference id issues use.
func (h *LookupsHandler) RegisterAttachment(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RegisterAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StorageKey == "" || req.FileName == "" {
		return apperrors.NewValidationError("storage_key and file_name required", nil)
	}

	attachment := &domain.AttachmentReference{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
		UploadedBy: principal.User.ID,
	}
	if err := h.attachments.Create(c.UserContext(), attachment); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AttachmentResponse{
		ID:        attachment.ID,
		FileName:  attachment.FileName,
		MimeType:  attachment.MimeType,
		SizeBytes: attachment.SizeBytes,
		CreatedAt: attachment.CreatedAt,
	}})
}
