package handlers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assetflow/events"
	"assetflow/models"
	"assetflow/store"
	"assetflow/utils"
	"assetflow/validation"
)

const (
	msgDepartmentNotFound = "Department not found"
	msgDepartmentExists   = "Department already exists"
	msgDepartmentInUse    = "Department is in use"
)

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	depts, err := h.Departments.List(ctx)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": depts})
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, msgDepartmentNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dept, err := h.Departments.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err, msgDepartmentNotFound, "")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": dept})
}

func (h *Handler) decodeDepartment(r *http.Request) (*models.Department, error) {
	var in validation.DepartmentInput
	if err := utils.ParseJSON(r, &in); err != nil {
		return nil, validation.Fail("body", "%s", err.Error())
	}
	return validation.ValidateDepartment(in)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := h.decodeDepartment(r)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	taken, err := h.Departments.ExistsByName(ctx, dept.Name, primitive.NilObjectID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if taken {
		utils.RespondWithError(w, http.StatusConflict, msgDepartmentExists)
		return
	}
	if err := h.Departments.Create(ctx, dept); err != nil {
		h.fail(w, r, err, msgDepartmentNotFound, msgDepartmentExists)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"data": dept})
	h.record(ctx, "department_create", "department", events.DepartmentCreated, dept.ID,
		map[string]interface{}{"name": dept.Name, "type": dept.Type})
}

// UpdateDepartment renames or retypes a department. Report labels depend on
// the name, so cached reports are dropped.
func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, msgDepartmentNotFound)
		return
	}
	dept, err := h.decodeDepartment(r)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	taken, err := h.Departments.ExistsByName(ctx, dept.Name, id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if taken {
		utils.RespondWithError(w, http.StatusConflict, msgDepartmentExists)
		return
	}
	updated, err := h.Departments.Update(ctx, id, dept.Name, dept.Type)
	if err != nil {
		h.fail(w, r, err, msgDepartmentNotFound, msgDepartmentExists)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": updated})
	h.record(ctx, "department_update", "department", events.DepartmentUpdated, id,
		map[string]interface{}{"name": updated.Name, "type": updated.Type})
	h.invalidateReports(ctx)
}

// DeleteDepartment refuses to remove a department that assets still point at.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, msgDepartmentNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	inUse, err := h.Assets.CountByDepartment(ctx, id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if inUse > 0 {
		h.fail(w, r, store.ErrInUse, "", msgDepartmentInUse)
		return
	}
	if err := h.Departments.Delete(ctx, id); err != nil {
		h.fail(w, r, err, msgDepartmentNotFound, "")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	h.record(ctx, "department_delete", "department", events.DepartmentDeleted, id, nil)
	h.invalidateReports(ctx)
}
