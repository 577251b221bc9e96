package handlers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assetflow/events"
	"assetflow/middleware"
	"assetflow/models"
	"assetflow/utils"
	"assetflow/validation"
)

// Uploads to object storage can take longer than a plain query.
const uploadTimeout = 60 * time.Second

type assetListResponse struct {
	Data       []models.Asset `json:"data"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
}

// CreateAsset stores a new asset with its bill files. Item totals and the
// grand total are always recomputed on the server.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	req, err := h.decodeAssetRequest(w, r)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	defer req.cleanup()

	asset, err := validation.ValidateAssetCreate(req.input)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	if err := req.bindable(len(asset.Items)); err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	exists, err := h.Departments.Exists(ctx, asset.DepartmentID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !exists {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid departmentId")
		return
	}

	asset.ID = primitive.NewObjectID()
	asset.Officer = models.Officer{ID: user.ID, Name: user.Name}

	saved, err := h.storeUploads(ctx, asset.ID, asset.Items, req.uploads)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	asset.ApplyTotals()

	if err := h.Assets.Create(ctx, asset); err != nil {
		h.discardFiles(ctx, saved)
		h.internalError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"id": asset.ID.Hex()})

	h.record(ctx, "asset_create", "asset", events.AssetCreated, asset.ID, map[string]interface{}{
		"type":         asset.Type,
		"departmentId": asset.DepartmentID.Hex(),
		"items":        len(asset.Items),
		"files":        len(saved),
		"grandTotal":   asset.GrandTotal,
	})
	h.invalidateReports(ctx)
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ValidateAssetQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	assets, total, err := h.Assets.List(ctx, q)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	limit := int64(q.Limit)
	utils.RespondWithJSON(w, http.StatusOK, assetListResponse{
		Data:       assets,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	})
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	asset, err := h.Assets.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err, "Asset not found", "")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": asset})
}

// UpdateAsset applies a partial update. A new items list replaces the old one
// and the totals are recomputed. Stored bills stay with their item index
// unless a new file is uploaded for it or its billFileUrl changes.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	req, err := h.decodeAssetRequest(w, r)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	defer req.cleanup()

	patch, err := validation.ValidateAssetUpdate(req.input)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}
	if len(req.uploads) > 0 && patch.Items == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "items are required when uploading files")
		return
	}
	if err := req.bindable(len(patch.Items)); err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	existing, err := h.Assets.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err, "Asset not found", "")
		return
	}
	if patch.DepartmentID != nil {
		exists, err := h.Departments.Exists(ctx, *patch.DepartmentID)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		if !exists {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid departmentId")
			return
		}
	}

	var saved, stale []models.FileRef
	if patch.Items != nil {
		saved, err = h.storeUploads(ctx, id, patch.Items, req.uploads)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		stale = carryOverFiles(existing, patch.Items)

		items, total := models.ComputeTotals(patch.Items)
		patch.Items = items
		patch.GrandTotal = &total
	}

	updated, err := h.Assets.Update(ctx, id, *patch)
	if err != nil {
		h.discardFiles(ctx, saved)
		h.fail(w, r, err, "Asset not found", "")
		return
	}
	h.discardFiles(ctx, stale)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": updated})

	details := map[string]interface{}{"files": len(saved), "removedFiles": len(stale)}
	if patch.Items != nil {
		details["items"] = len(updated.Items)
		details["grandTotal"] = updated.GrandTotal
	}
	h.record(ctx, "asset_update", "asset", events.AssetUpdated, id, details)
	h.invalidateReports(ctx)
}

// carryOverFiles moves the stored bills of existing onto the replacement
// items where they still apply, and returns the ones that no longer do.
func carryOverFiles(existing *models.Asset, items []models.AssetItem) []models.FileRef {
	var stale []models.FileRef
	for i, ref := range existing.FileRefs() {
		switch {
		case i >= len(items):
			stale = append(stale, ref)
		case items[i].BillFile != nil:
			stale = append(stale, ref)
		case items[i].BillFileURL != existing.Items[i].BillFileURL:
			stale = append(stale, ref)
		default:
			kept := ref
			items[i].BillFile = &kept
		}
	}
	return stale
}

// DeleteAsset removes an asset and every bill stored for it.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	deleted, err := h.Assets.Delete(ctx, id)
	if err != nil {
		h.fail(w, r, err, "Asset not found", "")
		return
	}
	refs := make([]models.FileRef, 0, len(deleted.Items))
	for _, ref := range deleted.FileRefs() {
		refs = append(refs, ref)
	}
	h.discardFiles(ctx, refs)

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})

	h.record(ctx, "asset_delete", "asset", events.AssetDeleted, id, map[string]interface{}{
		"type":       deleted.Type,
		"grandTotal": deleted.GrandTotal,
		"files":      len(refs),
	})
	h.invalidateReports(ctx)
}

// AssetSummary returns counts and value totals per asset type.
func (h *Handler) AssetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.Assets.Summary(ctx)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}
