package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/files"
	"assetflow/models"
	"assetflow/utils"
	"assetflow/validation"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBody      = 100 << 20
)

// File parts are read in this order and bound to items by position.
var fileFields = []string{"itemFiles[]", "billFiles"}

type pendingUpload struct {
	header      *multipart.FileHeader
	contentType string
}

// assetRequest is a decoded asset body plus the files bound to item indexes.
type assetRequest struct {
	input   validation.AssetInput
	uploads map[int]pendingUpload
	form    *multipart.Form
}

func (a *assetRequest) cleanup() {
	if a.form != nil {
		a.form.RemoveAll()
	}
}

// bindable reports an error when more files arrived than there are items.
func (a *assetRequest) bindable(items int) error {
	if len(a.uploads) > items {
		return validation.Fail("files", "received %d files for %d items", len(a.uploads), items)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data"
}

// decodeAssetRequest reads either a JSON body or a multipart form. A form
// carries the asset as a JSON "payload" field, or as plain fields with one
// JSON document per items[N] field.
func (h *Handler) decodeAssetRequest(w http.ResponseWriter, r *http.Request) (*assetRequest, error) {
	req := &assetRequest{uploads: map[int]pendingUpload{}}
	if !isMultipart(r) {
		if err := utils.ParseJSON(r, &req.input); err != nil {
			return nil, validation.Fail("body", "%s", err.Error())
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, validation.Fail("body", "request body too large")
		}
		return nil, validation.Fail("body", "invalid multipart form")
	}
	req.form = r.MultipartForm

	if payload := r.FormValue("payload"); payload != "" {
		if err := utils.DecodeJSON(strings.NewReader(payload), &req.input); err != nil {
			req.cleanup()
			return nil, validation.Fail("payload", "payload: %s", err.Error())
		}
	} else if err := decodeFormFields(req.form, &req.input); err != nil {
		req.cleanup()
		return nil, err
	}

	var parts []*multipart.FileHeader
	for _, field := range fileFields {
		parts = append(parts, req.form.File[field]...)
	}
	for i, fh := range parts {
		ct, err := h.Policy.Check(fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
		if err != nil {
			req.cleanup()
			return nil, validation.Fail("files", "%s", err.Error())
		}
		req.uploads[i] = pendingUpload{header: fh, contentType: ct}
	}
	return req, nil
}

func decodeFormFields(form *multipart.Form, in *validation.AssetInput) error {
	field := func(name string) *string {
		if v, ok := form.Value[name]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	in.Type = field("type")
	in.DepartmentID = field("departmentId")
	in.Subcategory = field("subcategory")
	in.AcademicYear = field("academicYear")

	type indexed struct {
		n    int
		item validation.ItemInput
	}
	var items []indexed
	for name, values := range form.Value {
		if !strings.HasPrefix(name, "items[") || !strings.HasSuffix(name, "]") || len(values) == 0 {
			continue
		}
		n, err := strconv.Atoi(name[len("items[") : len(name)-1])
		if err != nil || n < 0 {
			return validation.Fail("items", "invalid field name %q", name)
		}
		var it validation.ItemInput
		if err := utils.DecodeJSON(strings.NewReader(values[0]), &it); err != nil {
			return validation.Fail(name, "%s: %s", name, err.Error())
		}
		items = append(items, indexed{n: n, item: it})
	}
	if len(items) == 0 {
		return nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].n < items[j].n })
	in.Items = make([]validation.ItemInput, len(items))
	for i, it := range items {
		in.Items[i] = it.item
	}
	return nil
}

// storeUploads saves each pending upload and sets the BillFile of its item.
// On failure the files saved so far are removed again.
func (h *Handler) storeUploads(ctx context.Context, assetID primitive.ObjectID, items []models.AssetItem, uploads map[int]pendingUpload) ([]models.FileRef, error) {
	indexes := make([]int, 0, len(uploads))
	for i := range uploads {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	saved := make([]models.FileRef, 0, len(indexes))
	for _, i := range indexes {
		ref, err := h.saveUpload(ctx, assetID, i, uploads[i])
		if err != nil {
			h.discardFiles(ctx, saved)
			return nil, fmt.Errorf("store file for item %d: %w", i, err)
		}
		items[i].BillFile = ref
		saved = append(saved, *ref)
	}
	return saved, nil
}

func (h *Handler) saveUpload(ctx context.Context, assetID primitive.ObjectID, index int, p pendingUpload) (*models.FileRef, error) {
	f, err := p.header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return h.Files.Save(ctx, files.Upload{
		AssetID:     assetID,
		ItemIndex:   index,
		Filename:    p.header.Filename,
		ContentType: p.contentType,
		Data:        data,
	})
}

// discardFiles deletes stored files, logging any that could not be removed.
func (h *Handler) discardFiles(ctx context.Context, refs []models.FileRef) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if err := h.Files.Delete(ctx, ref); err != nil && !errors.Is(err, files.ErrNotFound) {
			h.Logger.Warn("failed to delete stored file",
				zap.String("storage", ref.Storage),
				zap.String("key", ref.Key),
				zap.Error(err))
		}
	}
}

// GetAssetFile streams the bill attached to one item, or redirects to its
// external URL.
func (h *Handler) GetAssetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["itemIndex"])
	if err != nil || index < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid item index")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	asset, err := h.Assets.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err, "Asset not found", "")
		return
	}
	if index >= len(asset.Items) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid item index")
		return
	}
	item := asset.Items[index]

	if item.BillFile == nil {
		if item.BillFileURL != "" {
			http.Redirect(w, r, item.BillFileURL, http.StatusFound)
			return
		}
		utils.RespondWithError(w, http.StatusNotFound, "File not found")
		return
	}

	body, err := h.Files.Open(r.Context(), *item.BillFile)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	defer body.Close()

	disposition := "inline"
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		disposition = "attachment"
	}
	if cd := mime.FormatMediaType(disposition, map[string]string{"filename": item.BillFile.Filename}); cd != "" {
		disposition = cd
	}
	w.Header().Set("Content-Type", item.BillFile.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	if item.BillFile.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(item.BillFile.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.Logger.Debug("file stream interrupted", zap.String("assetId", id.Hex()), zap.Error(err))
	}
}
