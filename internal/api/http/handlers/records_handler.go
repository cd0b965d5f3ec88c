package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/squareit/account-service/internal/api/dto"
	"github.com/squareit/account-service/internal/auth"
	"github.com/squareit/account-service/internal/service"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// RecordsHandler exposes the numeric record endpoints.
type RecordsHandler struct {
	records *service.RecordService
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler(records *service.RecordService) *RecordsHandler {
	return &RecordsHandler{records: records}
}

// Save handles PUT /rest/number/v1/saveNumber.
func (h *RecordsHandler) Save(c *fiber.Ctx) error {
	var req dto.SaveRecordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	record, token, err := h.records.SaveRecord(c.UserContext(), auth.PresentedToken(c, req.Token), *req.Number)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewRecordResponse(record), token)
}

// Get handles GET /rest/number/v1/getNumber/:token/:numberId.
func (h *RecordsHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("numberId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("numberId must be an integer", nil)
	}

	record, token, err := h.records.GetRecord(c.UserContext(), auth.PresentedToken(c, ""), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewRecordResponse(record), token)
}

// Delete handles PUT /rest/number/v1/deleteNumber.
func (h *RecordsHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteRecordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	token, err := h.records.DeleteRecord(c.UserContext(), auth.PresentedToken(c, req.Token), req.NumberID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"numberId": req.NumberID}, token)
}

// Count handles GET /rest/number/v1/countUserNumbers/:token.
func (h *RecordsHandler) Count(c *fiber.Ctx) error {
	count, token, err := h.records.CountRecords(c.UserContext(), auth.PresentedToken(c, ""))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"count": count}, token)
}

// List handles GET /rest/number/v1/getUserNumbers/:token/:indexPage.
func (h *RecordsHandler) List(c *fiber.Ctx) error {
	page, err := c.ParamsInt("indexPage")
	if err != nil {
		return apperrors.NewValidationError("indexPage must be an integer", nil)
	}

	records, token, err := h.records.ListRecords(c.UserContext(), auth.PresentedToken(c, ""), page)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewRecordResponses(records), token)
}
