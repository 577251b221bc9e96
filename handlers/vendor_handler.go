package handlers

import (
	"context"
	"net/http"

	"assetflow/events"
	"assetflow/models"
	"assetflow/utils"
	"assetflow/validation"
)

const (
	msgVendorNotFound = "Vendor not found"
	msgVendorExists   = "Vendor already exists"
)

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	vendors, err := h.Vendors.List(ctx)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": vendors})
}

func decodeVendor(r *http.Request) (*models.Vendor, error) {
	var in validation.VendorInput
	if err := utils.ParseJSON(r, &in); err != nil {
		return nil, validation.Fail("body", "%s", err.Error())
	}
	return validation.ValidateVendor(in)
}

func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := decodeVendor(r)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Vendors.Create(ctx, vendor); err != nil {
		h.fail(w, r, err, msgVendorNotFound, msgVendorExists)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"data": vendor})
	h.record(ctx, "vendor_create", "vendor", events.VendorCreated, vendor.ID,
		map[string]interface{}{"name": vendor.Name})
}

func (h *Handler) UpdateVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, msgVendorNotFound)
		return
	}
	vendor, err := decodeVendor(r)
	if err != nil {
		h.fail(w, r, err, "", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	updated, err := h.Vendors.Update(ctx, id, *vendor)
	if err != nil {
		h.fail(w, r, err, msgVendorNotFound, msgVendorExists)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": updated})
	h.record(ctx, "vendor_update", "vendor", events.VendorUpdated, id,
		map[string]interface{}{"name": updated.Name})
}

func (h *Handler) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, msgVendorNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Vendors.Delete(ctx, id); err != nil {
		h.fail(w, r, err, msgVendorNotFound, "")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	h.record(ctx, "vendor_delete", "vendor", events.VendorDeleted, id, nil)
}
