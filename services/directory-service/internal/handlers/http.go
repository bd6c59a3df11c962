package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/directory-service/internal/storage"
)

// Store is the persistence the handlers need; *storage.Repository implements it.
type Store interface {
	ListDepartments(ctx context.Context) ([]storage.Department, error)
	CreateDepartment(ctx context.Context, d storage.Department) error
	DeleteDepartment(ctx context.Context, id int64) error
	ListDoctors(ctx context.Context, departmentID int64) ([]storage.Doctor, error)
	GetDoctor(ctx context.Context, id int64) (storage.Doctor, error)
	UpsertDoctor(ctx context.Context, d storage.Doctor) error
	DeleteDoctor(ctx context.Context, id int64) error
}

type Handler struct {
	store    Store
	logger   *slog.Logger
	validate *validator.Validate
}

func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger, validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/departments", h.ListDepartments)
	mux.HandleFunc("/api/v1/public/doctors", h.ListDoctors)
	mux.HandleFunc("/api/v1/public/doctors/{id}", h.GetDoctor)

	mux.HandleFunc("/api/v1/admin/departments", h.CreateDepartment)
	mux.HandleFunc("/api/v1/admin/departments/{id}", h.DeleteDepartment)
	mux.HandleFunc("/api/v1/admin/doctors", h.CreateDoctor)
	mux.HandleFunc("/api/v1/admin/doctors/{id}", h.DoctorItem)
}

type departmentItem struct {
	ID   int64  `json:"dept_id" validate:"required,gt=0"`
	Name string `json:"dept_name" validate:"required,max=120"`
}

type doctorItem struct {
	ID             int64  `json:"doc_id" validate:"required,gt=0"`
	Name           string `json:"doc_name" validate:"required,max=120"`
	Specialization string `json:"specialization" validate:"max=120"`
	Qualification  string `json:"qualification" validate:"max=120"`
	DepartmentID   int64  `json:"dept_id" validate:"required,gt=0"`
	DepartmentName string `json:"department_name,omitempty"`
	Image          string `json:"image,omitempty" validate:"omitempty,max=512"`
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	deps, err := h.store.ListDepartments(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	out := make([]departmentItem, 0, len(deps))
	for _, d := range deps {
		out = append(out, departmentItem{ID: d.ID, Name: d.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// ListDoctors accepts an optional ?dept_id= filter.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	var deptID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("dept_id")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "InvalidField", "dept_id must be a positive integer")
			return
		}
		deptID = v
	}
	docs, err := h.store.ListDoctors(r.Context(), deptID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	out := make([]doctorItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDoctorItem(d))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.store.GetDoctor(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDoctorItem(d))
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodPost) {
		return
	}
	var req departmentItem
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.CreateDepartment(r.Context(), storage.Department{ID: req.ID, Name: strings.TrimSpace(req.Name)}); err != nil {
		h.storeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodDelete) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteDepartment(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodPost) {
		return
	}
	var req doctorItem
	if !h.decode(w, r, &req) {
		return
	}
	h.upsert(w, r, req, http.StatusCreated)
}

// DoctorItem serves PUT and DELETE on /doctors/{id}.
func (h *Handler) DoctorItem(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodDelete {
		if err := h.store.DeleteDoctor(r.Context(), id); err != nil {
			h.storeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req doctorItem
	req.ID = id
	if !h.decode(w, r, &req) {
		return
	}
	if req.ID != id {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidField", "doc_id does not match path")
		return
	}
	if _, err := h.store.GetDoctor(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.upsert(w, r, req, http.StatusOK)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, req doctorItem, status int) {
	err := h.store.UpsertDoctor(r.Context(), storage.Doctor{
		ID:             req.ID,
		Name:           strings.TrimSpace(req.Name),
		Specialization: strings.TrimSpace(req.Specialization),
		Qualification:  strings.TrimSpace(req.Qualification),
		DepartmentID:   req.DepartmentID,
		Image:          strings.TrimSpace(req.Image),
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	d, err := h.store.GetDoctor(r.Context(), req.ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.logger.Info("doctor saved", "doctor_id", d.ID, "department_id", d.DepartmentID)
	httpx.WriteJSON(w, status, toDoctorItem(d))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidField", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := "InvalidField"
			if fe.Tag() == "required" {
				reason = "MissingFields"
			}
			httpx.WriteError(w, http.StatusBadRequest, reason, "invalid "+strings.ToLower(fe.Field()))
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest, "InvalidField", err.Error())
		return false
	}
	return true
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NotFound", "not found")
	case errors.Is(err, storage.ErrDuplicate):
		httpx.WriteError(w, http.StatusConflict, "Duplicate", "already exists")
	case errors.Is(err, storage.ErrUnknownParent):
		httpx.WriteError(w, http.StatusBadRequest, "UnknownDepartment", err.Error())
	case errors.Is(err, storage.ErrStillReferenced):
		httpx.WriteError(w, http.StatusConflict, "HasDoctors", err.Error())
	default:
		h.internal(w, r, err)
	}
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("directory request failed", "err", err, "path", r.URL.Path)
	httpx.WriteError(w, http.StatusInternalServerError, "StorageUnavailable", "internal error")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidField", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func toDoctorItem(d storage.Doctor) doctorItem {
	return doctorItem{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Qualification:  d.Qualification,
		DepartmentID:   d.DepartmentID,
		DepartmentName: d.DepartmentName,
		Image:          d.Image,
	}
}
