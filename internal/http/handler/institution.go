package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campuskit.app/institution-service/internal/http/dto"
	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/service"
)

type InstitutionHandler struct {
	instService service.InstitutionService
}

func NewInstitutionHandler(instService service.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{instService: instService}
}

// Create creates an institution and provisions its users in the external user
// service. On provisioning failure nothing remains visible and a
// provisioning/compensation error is reported.
func (h *InstitutionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.Err(dto.CodeValidationFailed, err.Error()))
		return
	}

	params := service.CreateInstitutionParams{
		Name:    req.Name,
		Address: req.Address,
	}
	for _, cr := range req.Classrooms {
		params.Classrooms = append(params.Classrooms, service.ClassroomParams{
			Name: cr.Name,
			Type: cr.Type,
		})
	}
	for _, ur := range req.Users {
		params.Users = append(params.Users, ur.ToUserSpec())
	}

	inst, err := h.instService.Create(ctx, params)
	if err != nil {
		h.respondError(c, err, "failed to create institution")
		return
	}

	c.JSON(http.StatusCreated, dto.OK(dto.ToInstitutionResponse(inst)))
}

// List returns institutions; deleted records are excluded.
func (h *InstitutionHandler) List(c *gin.Context) {
	h.list(c, service.FilterDefault)
}

func (h *InstitutionHandler) ListActive(c *gin.Context) {
	h.list(c, service.FilterActive)
}

func (h *InstitutionHandler) ListInactive(c *gin.Context) {
	h.list(c, service.FilterInactive)
}

func (h *InstitutionHandler) list(c *gin.Context, filter service.StatusFilter) {
	ctx := c.Request.Context()

	limit, ok := h.queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := h.queryInt(c, "offset")
	if !ok {
		return
	}

	insts, err := h.instService.List(ctx, filter, limit, offset)
	if err != nil {
		h.respondError(c, err, "failed to list institutions")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToInstitutionResponses(insts)))
}

func (h *InstitutionHandler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inst, err := h.instService.GetByID(ctx, instID)
	if err != nil {
		h.respondError(c, err, "failed to get institution")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToInstitutionResponse(inst)))
}

// Update changes non-status attributes and may toggle active/inactive.
func (h *InstitutionHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.Err(dto.CodeValidationFailed, err.Error()))
		return
	}

	params := service.UpdateInstitutionParams{
		Name:    req.Name,
		Address: req.Address,
	}
	if req.Status != nil {
		status := model.Status(*req.Status)
		params.Status = &status
	}

	inst, err := h.instService.Update(ctx, instID, params)
	if err != nil {
		h.respondError(c, err, "failed to update institution")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToInstitutionResponse(inst)))
}

// Delete soft-deletes an institution; it stays restorable.
func (h *InstitutionHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.instService.Delete(ctx, instID); err != nil {
		h.respondError(c, err, "failed to delete institution")
		return
	}

	c.JSON(http.StatusOK, dto.OK(nil))
}

// Restore returns a soft-deleted institution to inactive.
func (h *InstitutionHandler) Restore(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inst, err := h.instService.Restore(ctx, instID)
	if err != nil {
		h.respondError(c, err, "failed to restore institution")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToInstitutionResponse(inst)))
}

func (h *InstitutionHandler) AddClassroom(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.Err(dto.CodeValidationFailed, err.Error()))
		return
	}

	classroom, err := h.instService.AddClassroom(ctx, instID, service.ClassroomParams{
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		h.respondError(c, err, "failed to add classroom")
		return
	}

	c.JSON(http.StatusCreated, dto.OK(dto.ToClassroomResponse(*classroom)))
}

func (h *InstitutionHandler) UpdateClassroom(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	classroomID, ok := h.pathID(c, "classroomId")
	if !ok {
		return
	}

	var req dto.ClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.Err(dto.CodeValidationFailed, err.Error()))
		return
	}

	classroom, err := h.instService.UpdateClassroom(ctx, instID, classroomID, service.ClassroomParams{
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		h.respondError(c, err, "failed to update classroom")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToClassroomResponse(*classroom)))
}

func (h *InstitutionHandler) RemoveClassroom(c *gin.Context) {
	ctx := c.Request.Context()

	instID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	classroomID, ok := h.pathID(c, "classroomId")
	if !ok {
		return
	}

	if err := h.instService.RemoveClassroom(ctx, instID, classroomID); err != nil {
		h.respondError(c, err, "failed to remove classroom")
		return
	}

	c.JSON(http.StatusOK, dto.OK(nil))
}

func (h *InstitutionHandler) queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.DefaultQuery(name, "0")
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Err(dto.CodeValidationFailed, "invalid "+name+": "+raw))
		return 0, false
	}
	return v, true
}

func (h *InstitutionHandler) pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.Err(dto.CodeValidationFailed, "invalid id: "+raw))
		return 0, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto HTTP statuses and
// envelope codes. Transport and storage details never leak to the caller.
func (h *InstitutionHandler) respondError(c *gin.Context, err error, logMsg string) {
	ctx := c.Request.Context()

	var provErr *service.ProvisioningError
	var compErr *service.CompensationError
	var persErr *service.PersistenceError

	switch {
	case errors.Is(err, service.ErrInstitutionNotFound):
		c.JSON(http.StatusNotFound, dto.Err(dto.CodeNotFound, "institution not found"))
	case errors.Is(err, service.ErrClassroomNotFound):
		c.JSON(http.StatusNotFound, dto.Err(dto.CodeNotFound, "classroom not found"))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.Err(dto.CodeInvalidTransition, "status transition not allowed"))
	case errors.As(err, &compErr):
		// Higher severity than a clean provisioning failure: remote
		// state is orphaned until the reconciler catches up.
		slog.ErrorContext(ctx, logMsg,
			"error", err,
			"orphaned_user_ids", compErr.OrphanedUserIDs,
		)
		c.JSON(http.StatusBadGateway, dto.Err(dto.CodeCompensationFailed,
			"user provisioning failed and cleanup was incomplete"))
	case errors.As(err, &provErr):
		slog.WarnContext(ctx, logMsg, "error", err)
		c.JSON(http.StatusBadGateway, dto.Err(dto.CodeProvisioningFailed,
			"user provisioning failed; no institution was created"))
	case errors.As(err, &persErr):
		slog.ErrorContext(ctx, logMsg, "error", err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.CodePersistenceError, "storage failure"))
	default:
		slog.ErrorContext(ctx, logMsg, "error", err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.CodePersistenceError, "internal error"))
	}
}
