package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/app/realtime"
	"rosterhub/internal/app/storage"
	"rosterhub/internal/app/student"
	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/req"
	"rosterhub/internal/pkg/resp"
)

const (
	defaultStudentPageSize = 10
	maxPageSize            = 100
	maxPageNumber          = 1_000_000

	photoCleanupTimeout = 10 * time.Second
)

// Performer identifies who triggered a broadcast mutation.
type Performer struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      user.Role `json:"role"`
	Email     string    `json:"email"`
}

func performerOf(identity *user.Identity) Performer {
	if identity == nil {
		return Performer{}
	}
	return Performer{
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Role:      identity.Role,
		Email:     identity.Email,
	}
}

// StudentEvent is the payload of studentCreated and studentUpdated.
type StudentEvent struct {
	student.Student
	PerformedBy Performer `json:"performedBy"`
}

// StudentDeletedEvent is the payload of studentDeleted.
type StudentDeletedEvent struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PerformedBy Performer `json:"performedBy"`
}

func pageSize(r *http.Request, def int) int {
	return min(req.QueryInt(r, "limit", def), maxPageSize)
}

func pageNumber(r *http.Request) int {
	return min(req.QueryInt(r, "page", 1), maxPageNumber)
}

func respondStudentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, student.ErrNotFound):
		resp.RespondError(w, r, errs.NewError(errs.ErrStudentNotFound))
	case errors.Is(err, student.ErrEmailTaken):
		resp.RespondError(w, r, errs.NewError(errs.ErrStudentEmailExists))
	default:
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
	}
}

// HandleListStudents returns one page of the roster, optionally filtered by ?search.
func HandleListStudents(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := student.ListQuery{
			Page:   pageNumber(r),
			Limit:  pageSize(r, defaultStudentPageSize),
			Search: student.ParseSearch(r.URL.Query().Get("search")),
		}

		students, total, err := deps.Students.ListStudents(r.Context(), q)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		pagination := student.NewPagination(q.Page, q.Limit, total)
		pagination.SearchTerm = q.Search.Raw

		resp.RespondSuccess(w, r, student.Page{Students: students, Pagination: pagination})
	}
}

// HandleCheckStudentEmail reports whether ?email is used by a student other than ?excludeId.
func HandleCheckStudentEmail(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var excludeID int64
		if raw := r.URL.Query().Get("excludeId"); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			excludeID = v
		}

		exists, err := deps.Students.EmailExists(r.Context(), email, excludeID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]bool{"exists": exists})
	}
}

// HandleGetStudent returns one student.
func HandleGetStudent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "id")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		s, err := deps.Students.GetStudent(r.Context(), id)
		if err != nil {
			respondStudentError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, s)
	}
}

// HandleCreateStudent adds a student and broadcasts studentCreated. Admin only.
func HandleCreateStudent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input student.Input
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := input.Normalize(); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		s, err := deps.Students.CreateStudent(r.Context(), input)
		if err != nil {
			respondStudentError(w, r, err)
			return
		}

		actor := jwt.GetIdentityFromContext(r)
		deps.Broadcaster.Publish(realtime.EventStudentCreated, StudentEvent{Student: *s, PerformedBy: performerOf(actor)})
		deps.recordActivity(r, actor.ID, activity.ActionCreate, s)

		resp.RespondCreated(w, r, s)
	}
}

// HandleUpdateStudent applies a partial update and broadcasts studentUpdated. Admin only.
func HandleUpdateStudent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "id")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var patch student.Patch
		if customErr := req.BindJSON(r, &patch); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := patch.Normalize(); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if patch.Empty() {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		s, err := deps.Students.UpdateStudent(r.Context(), id, patch)
		if err != nil {
			respondStudentError(w, r, err)
			return
		}

		actor := jwt.GetIdentityFromContext(r)
		deps.Broadcaster.Publish(realtime.EventStudentUpdated, StudentEvent{Student: *s, PerformedBy: performerOf(actor)})
		deps.recordActivity(r, actor.ID, activity.ActionUpdate, s)

		resp.RespondSuccess(w, r, s)
	}
}

// HandleDeleteStudent removes a student and broadcasts studentDeleted. Admin only.
func HandleDeleteStudent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "id")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		s, err := deps.Students.DeleteStudent(r.Context(), id)
		if err != nil {
			respondStudentError(w, r, err)
			return
		}

		if s.PhotoKey != "" {
			deps.deletePhotoAsync(s.PhotoKey)
		}


		actor := jwt.GetIdentityFromContext(r)
		deps.Broadcaster.Publish(realtime.EventStudentDeleted, StudentDeletedEvent{
			ID:          s.ID,
			FirstName:   s.FirstName,
			LastName:    s.LastName,
			Email:       s.Email,
			PerformedBy: performerOf(actor),
		})
		deps.recordActivity(r, actor.ID, activity.ActionDelete, s)

		resp.RespondSuccess(w, r, map[string]int64{"id": s.ID})
	}
}

// HandlePresignStudentPhoto issues a time-limited upload URL for a new student photo. Admin only.
func HandlePresignStudentPhoto(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		id, ok := int64Param(r, "id")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input student.PhotoUpload
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := input.Validate(); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, err := deps.Students.GetStudent(r.Context(), id); err != nil {
			respondStudentError(w, r, err)
			return
		}

		key := student.PhotoKey(id, input.FileName)
		url, err := deps.Storage.PresignUpload(r.Context(), key, input.MimeType, input.FileSize, student.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign photo upload", "student_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"key":          key,
			"expiresIn":    int(student.PresignedURLDuration.Seconds()),
		})
	}
}

type SetPhotoInput struct {
	Key string `json:"key"`
}

// HandleSetStudentPhoto attaches an uploaded object to the student and broadcasts
// studentUpdated. The previous photo object is deleted in the background. Admin only.
func HandleSetStudentPhoto(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		id, ok := int64Param(r, "id")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input SetPhotoInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if !student.OwnsPhotoKey(id, input.Key) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPhotoKeyInvalid))
			return
		}

		info, err := deps.Storage.Stat(r.Context(), input.Key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrPhotoKeyInvalid))
				return
			}
			logx.Error(err, "Failed to stat uploaded photo", "key", input.Key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}
		if info.Size > student.MaxPhotoSize {
			deps.deletePhotoAsync(input.Key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge, student.MaxPhotoSizeMB))
			return
		}

		previousKey, s, err := deps.Students.SetStudentPhoto(r.Context(), id, input.Key, deps.Storage.PublicURL(input.Key))
		if err != nil {
			respondStudentError(w, r, err)
			return
		}

		if previousKey != "" && previousKey != input.Key {
			deps.deletePhotoAsync(previousKey)
		}

		actor := jwt.GetIdentityFromContext(r)
		deps.Broadcaster.Publish(realtime.EventStudentUpdated, StudentEvent{Student: *s, PerformedBy: performerOf(actor)})
		deps.recordActivity(r, actor.ID, activity.ActionUpload, s)

		resp.RespondSuccess(w, r, s)
	}
}

// HandleDownloadStudentPhoto redirects to a time-limited download URL of the photo.
func HandleDownloadStudentPhoto(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		id, ok := int64Param(r, "id")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		s, err := deps.Students.GetStudent(r.Context(), id)
		if err != nil {
			respondStudentError(w, r, err)
			return
		}
		if s.PhotoKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), s.PhotoKey, student.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign photo download", "student_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		deps.recordActivity(r, jwt.GetIdentityFromContext(r).ID, activity.ActionDownload, s)

		http.Redirect(w, r, url, http.StatusFound)
	}
}

func (deps *AppDeps) deletePhotoAsync(key string) {
	if deps.Storage == nil {
		return
	}

	go func(k string) {
		ctx, cancel := context.WithTimeout(context.Background(), photoCleanupTimeout)
		defer cancel()

		if err := deps.Storage.Delete(ctx, k); err != nil {
			logx.Warn("Failed to delete photo object", "key", k, "error", err.Error())
		}
	}(key)
}
