package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rfid-attendance/attendance/internal/platform/httpx"
	"github.com/rfid-attendance/attendance/internal/shared"
	"github.com/rfid-attendance/attendance/internal/view"
)

const (
	listTemplate = "pages/users/list.html"
	formTemplate = "pages/users/form.html"
	indexPath    = "/users"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Get("/create", h.showCreateForm)
	r.Post("/", h.createUser)
	r.Get("/{id}/edit", h.showEditForm)
	r.Put("/{id}", h.updateUser)
	r.Patch("/{id}", h.updateUser)
	r.Delete("/{id}", h.deleteUser)
}

type formErrors map[string]string

type userPayload struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		h.render(w, r, listTemplate, map[string]any{"Users": []User{}, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}
	h.render(w, r, listTemplate, map[string]any{"Users": users, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	form := h.service.CreateForm()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, form)
		return
	}
	h.renderForm(w, r, form, indexPath, false, map[string]string{}, formErrors{}, http.StatusOK)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	id, err := h.service.CreateUser(r.Context(), CreateInput(payload))
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			h.logger.Error("create user failed", slog.Any("error", err))
		}
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		h.renderForm(w, r, h.service.CreateForm(), indexPath, false, payloadValues(payload), errorsFor(err), statusFor(err))
		return
	}

	h.logger.Info("user created", slog.Int64("user_id", id))
	if httpx.WantsJSON(r) {
		w.Header().Set("Location", indexPath+"/"+strconv.FormatInt(id, 10))
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": id})
		return
	}
	h.redirectWithFlash(w, r, indexPath, "success", "User created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	form, err := h.service.EditForm(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, id, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, form)
		return
	}
	values := map[string]string{FieldName: form.User.Name, FieldEmail: form.User.Email}
	h.renderForm(w, r, form, userPath(id), true, values, formErrors{}, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	err := h.service.UpdateUser(r.Context(), id, UpdateInput(payload))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondLookupError(w, r, id, err)
			return
		}
		if !errors.Is(err, ErrValidation) {
			h.logger.Error("update user failed", slog.Int64("user_id", id), slog.Any("error", err))
		}
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		form := Form{Fields: editFields(), User: &User{ID: id, Name: payload.Name, Email: payload.Email}}
		h.renderForm(w, r, form, userPath(id), true, payloadValues(payload), errorsFor(err), statusFor(err))
		return
	}

	h.logger.Info("user updated", slog.Int64("user_id", id))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": id})
		return
	}
	h.redirectWithFlash(w, r, indexPath, "success", "User updated")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondLookupError(w, r, id, err)
			return
		}
		h.logger.Error("delete user failed", slog.Int64("user_id", id), slog.Any("error", err))
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		h.redirectWithFlash(w, r, indexPath, "error", shared.UserSafeMessage(err))
		return
	}

	h.logger.Info("user deleted", slog.Int64("user_id", id))
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.redirectWithFlash(w, r, indexPath, "success", "User deleted")
}

// userID parses the {id} route parameter. Ids that are not positive
// integers cannot exist, so they answer 404 like unknown ones.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.notFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	h.logger.Error("get user failed", slog.Int64("user_id", id), slog.Any("error", err))
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, ErrNotFound)
		return
	}
	http.Error(w, "User not found", http.StatusNotFound)
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (userPayload, bool) {
	var payload userPayload
	if httpx.IsJSONBody(r) {
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
			return payload, false
		}
		return payload, true
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return payload, false
	}
	payload = userPayload{
		Name:                 r.PostFormValue(FieldName),
		Email:                r.PostFormValue(FieldEmail),
		Password:             r.PostFormValue(FieldPassword),
		PasswordConfirmation: r.PostFormValue(FieldPasswordConfirmation),
	}
	return payload, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form Form, action string, isEdit bool, values map[string]string, errs formErrors, status int) {
	h.render(w, r, formTemplate, map[string]any{
		"Form":   form,
		"Action": action,
		"IsEdit": isEdit,
		"Values": values,
		"Errors": map[string]string(errs),
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)
	var (
		flash       *shared.FlashMessage
		currentUser string
	)
	if sess != nil {
		flash = sess.PopFlash()
		currentUser = sess.User()
	}
	viewData := view.TemplateData{
		Title:       "Users",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		CurrentUser: currentUser,
		Data:        data,
	}
	if err := h.templates.Render(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func payloadValues(p userPayload) map[string]string {
	return map[string]string{FieldName: p.Name, FieldEmail: p.Email}
}

func errorsFor(err error) formErrors {
	if fields := FieldErrors(err); fields != nil {
		return fields
	}
	return formErrors{"general": shared.UserSafeMessage(err)}
}

func statusFor(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func userPath(id int64) string {
	return indexPath + "/" + strconv.FormatInt(id, 10)
}
