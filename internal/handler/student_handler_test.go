package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/app/realtime"
	"rosterhub/internal/app/student"
	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/errs"
)

func createStudent(t *testing.T, env *testEnv, token, email string) student.Student {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, env.url("/api/students/"), token, map[string]any{
		"firstName": "Marie",
		"lastName":  "Curie",
		"email":     email,
		"subjects":  []string{"physics", "chemistry"},
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	return decodeData[student.Student](t, body)
}

func TestStudents_CRUDBroadcastsAndLogs(t *testing.T) {
	env := newTestEnv(t)
	admin, token := env.seedAccount(t, "admin@example.com", user.RoleAdmin)

	created := createStudent(t, env, token, "marie@example.com")
	assert.Equal(t, int64(1), created.ID)

	last := env.publisher.last()
	require.Equal(t, realtime.EventStudentCreated, last.event)
	ev := last.payload.(StudentEvent)
	assert.Equal(t, created.ID, ev.ID)
	assert.Equal(t, admin.Email, ev.PerformedBy.Email)
	assert.Equal(t, user.RoleAdmin, ev.PerformedBy.Role)

	status, body := doJSON(t, http.MethodPost, env.url("/api/students/"), token, map[string]any{
		"firstName": "Other", "lastName": "Person", "email": "MARIE@example.com",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errs.ErrStudentEmailExists, body.Code)

	status, body = doJSON(t, http.MethodPut, env.url(fmt.Sprintf("/api/students/%d", created.ID)), token, map[string]any{"lastName": "Sklodowska"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Sklodowska", decodeData[student.Student](t, body).LastName)
	assert.Equal(t, realtime.EventStudentUpdated, env.publisher.last().event)

	status, _ = doJSON(t, http.MethodDelete, env.url(fmt.Sprintf("/api/students/%d", created.ID)), token, nil)
	require.Equal(t, http.StatusOK, status)

	last = env.publisher.last()
	require.Equal(t, realtime.EventStudentDeleted, last.event)
	deleted := last.payload.(StudentDeletedEvent)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "marie@example.com", deleted.Email)

	status, body = doJSON(t, http.MethodGet, env.url(fmt.Sprintf("/api/students/%d", created.ID)), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errs.ErrStudentNotFound, body.Code)

	assert.Equal(t, []activity.ActionType{activity.ActionCreate, activity.ActionUpdate, activity.ActionDelete}, env.activity.actions())
}

func TestStudents_MutationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedAccount(t, "admin@example.com", user.RoleAdmin)
	_, token := env.seedAccount(t, "user@example.com", user.RoleUser)
	created := createStudent(t, env, adminToken, "marie@example.com")

	status, body := doJSON(t, http.MethodPost, env.url("/api/students/"), token, map[string]any{
		"firstName": "A", "lastName": "B", "email": "a@example.com",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errs.ErrForbidden, body.Code)

	status, _ = doJSON(t, http.MethodDelete, env.url(fmt.Sprintf("/api/students/%d", created.ID)), token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, http.MethodGet, env.url(fmt.Sprintf("/api/students/%d", created.ID)), token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodGet, env.url("/api/students/"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStudents_ListAndCheckEmail(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedAccount(t, "admin@example.com", user.RoleAdmin)
	for i := range 3 {
		createStudent(t, env, token, fmt.Sprintf("s%d@example.com", i))
	}

	status, body := doJSON(t, http.MethodGet, env.url("/api/students/?page=2&limit=2&search=curie"), token, nil)
	require.Equal(t, http.StatusOK, status)
	page := decodeData[student.Page](t, body)
	assert.Len(t, page.Students, 1)
	assert.Equal(t, 2, page.Pagination.CurrentPage)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
	assert.Equal(t, "curie", page.Pagination.SearchTerm)

	status, body = doJSON(t, http.MethodGet, env.url("/api/students/?page=9223372036854775807"), token, nil)
	require.Equal(t, http.StatusOK, status)
	page = decodeData[student.Page](t, body)
	assert.Empty(t, page.Students)
	assert.Equal(t, maxPageNumber, page.Pagination.CurrentPage)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)

	status, body = doJSON(t, http.MethodGet, env.url("/api/students/check-email?email=s1@example.com"), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decodeData[map[string]bool](t, body)["exists"])

	status, body = doJSON(t, http.MethodGet, env.url("/api/students/check-email?email=s1@example.com&excludeId=2"), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decodeData[map[string]bool](t, body)["exists"])

	status, _ = doJSON(t, http.MethodGet, env.url("/api/students/check-email?email=x@example.com&excludeId=abc"), token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodGet, env.url("/api/students/abc"), token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStudentPhoto_StorageUnavailable(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedAccount(t, "admin@example.com", user.RoleAdmin)
	created := createStudent(t, env, token, "marie@example.com")

	status, body := doJSON(t, http.MethodPost, env.url(fmt.Sprintf("/api/students/%d/photo/presign", created.ID)), token, student.PhotoUpload{
		FileName: "me.png", MimeType: "image/png", FileSize: 100,
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, errs.ErrStorageUnavailable, body.Code)
}

func TestStudentPhoto_UploadFlow(t *testing.T) {
	store := newFakeStorage()
	env := newTestEnv(t, withStorage(store))
	_, token := env.seedAccount(t, "admin@example.com", user.RoleAdmin)
	created := createStudent(t, env, token, "marie@example.com")
	photoPath := fmt.Sprintf("/api/students/%d/photo", created.ID)

	status, body := doJSON(t, http.MethodPost, env.url(photoPath+"/presign"), token, student.PhotoUpload{
		FileName: "me.gif", MimeType: "image/gif", FileSize: 100,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrFileTypeInvalid, body.Code)

	presign := func() string {
		status, body := doJSON(t, http.MethodPost, env.url(photoPath+"/presign"), token, student.PhotoUpload{
			FileName: "me.png", MimeType: "image/png", FileSize: 100,
		})
		require.Equal(t, http.StatusOK, status)
		data := decodeData[map[string]any](t, body)
		key := data["key"].(string)
		assert.Equal(t, "https://upload.test/"+key, data["presignedUrl"])
		return key
	}

	first := presign()

	status, body = doJSON(t, http.MethodPut, env.url(photoPath), token, SetPhotoInput{Key: first})
	assert.Equal(t, http.StatusBadRequest, status, "object was never uploaded")
	assert.Equal(t, errs.ErrPhotoKeyInvalid, body.Code)

	status, _ = doJSON(t, http.MethodPut, env.url(photoPath), token, SetPhotoInput{Key: "students/999/x.png"})
	assert.Equal(t, http.StatusBadRequest, status)

	store.put(first, 100)
	status, body = doJSON(t, http.MethodPut, env.url(photoPath), token, SetPhotoInput{Key: first})
	require.Equal(t, http.StatusOK, status)
	updated := decodeData[student.Student](t, body)
	require.NotNil(t, updated.PhotoURL)
	assert.Equal(t, "https://cdn.test/"+first, *updated.PhotoURL)
	assert.Equal(t, realtime.EventStudentUpdated, env.publisher.last().event)

	second := presign()
	store.put(second, 100)
	status, _ = doJSON(t, http.MethodPut, env.url(photoPath), token, SetPhotoInput{Key: second})
	require.Equal(t, http.StatusOK, status)

	select {
	case key := <-store.deleted:
		assert.Equal(t, first, key)
	case <-time.After(2 * time.Second):
		t.Fatal("previous photo was not deleted")
	}

	status, _ = doJSON(t, http.MethodGet, env.url(photoPath), token, nil)
	assert.Equal(t, http.StatusFound, status)

	assert.Equal(t, []activity.ActionType{
		activity.ActionCreate, activity.ActionUpload, activity.ActionUpload, activity.ActionDownload,
	}, env.activity.actions())
}
