// Package handlers implements the HTTP API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/events"
	"assetflow/files"
	"assetflow/middleware"
	"assetflow/models"
	"assetflow/reports"
	"assetflow/store"
	"assetflow/utils"
	"assetflow/validation"
)

const requestTimeout = 10 * time.Second

type AssetRepository interface {
	Create(ctx context.Context, a *models.Asset) error
	List(ctx context.Context, q models.AssetQuery) ([]models.Asset, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Asset, error)
	Update(ctx context.Context, id primitive.ObjectID, p models.AssetPatch) (*models.Asset, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Asset, error)
	Summary(ctx context.Context) (*models.AssetSummary, error)
	CountByDepartment(ctx context.Context, departmentID primitive.ObjectID) (int64, error)
}

type DepartmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Department, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	ExistsByName(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error)
	Create(ctx context.Context, d *models.Department) error
	Update(ctx context.Context, id primitive.ObjectID, name, deptType string) (*models.Department, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type VendorRepository interface {
	List(ctx context.Context) ([]models.Vendor, error)
	Create(ctx context.Context, v *models.Vendor) error
	Update(ctx context.Context, id primitive.ObjectID, v models.Vendor) (*models.Vendor, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// AuditRecorder persists audit entries. Insert must not fail the request.
type AuditRecorder interface {
	Insert(ctx context.Context, entry models.AuditLog)
	List(ctx context.Context, limit int64) ([]models.AuditLog, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, q models.ReportQuery) (*reports.Report, error)
	Invalidate(ctx context.Context)
}

// EventBus publishes change events and serves websocket subscribers.
type EventBus interface {
	Publish(e events.Event)
	Serve(conn *websocket.Conn, userID string)
}

type TokenIssuer interface {
	GenerateJWT(userID, name, role string) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups everything the handlers need. Pinger may be nil.
type Deps struct {
	Assets      AssetRepository
	Departments DepartmentRepository
	Vendors     VendorRepository
	Users       UserRepository
	Audit       AuditRecorder
	Reports     ReportGenerator
	Events      EventBus
	Files       files.FileStore
	Policy      files.Policy
	Tokens      TokenIssuer
	DB          Pinger
	Logger      *zap.Logger
	Version     string
}

type Handler struct {
	Deps
	startTime time.Time
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Version == "" {
		d.Version = "dev"
	}
	return &Handler{Deps: d, startTime: time.Now()}
}

// fail maps an error to its response. notFound is the message used for
// store.ErrNotFound; conflict for store.ErrDuplicate and store.ErrInUse.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound, conflict string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		utils.RespondWithError(w, http.StatusBadRequest, verrs.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrInUse):
		utils.RespondWithError(w, http.StatusConflict, conflict)
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestId", middleware.RequestIDFrom(r.Context())),
		zap.Error(err))
	utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// pathID parses the {id} route variable. ok is false for malformed ids, which
// callers report as not found.
func pathID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	return id, err == nil
}

// record writes an audit entry and publishes the matching change event.
func (h *Handler) record(ctx context.Context, action, entityType, eventType string, entityID primitive.ObjectID, details map[string]interface{}) {
	user, _ := middleware.UserFromContext(ctx)
	now := time.Now().UTC()
	if h.Audit != nil {
		h.Audit.Insert(ctx, models.AuditLog{
			UserID:     user.ID,
			UserName:   user.Name,
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			Details:    details,
			CreatedAt:  now,
		})
	}
	if h.Events != nil && eventType != "" {
		h.Events.Publish(events.Event{
			Type:      eventType,
			EntityID:  entityID.Hex(),
			Data:      details,
			UserID:    user.ID,
			UserName:  user.Name,
			Timestamp: now,
		})
	}
}

func (h *Handler) invalidateReports(ctx context.Context) {
	if h.Reports != nil {
		h.Reports.Invalidate(ctx)
	}
}
