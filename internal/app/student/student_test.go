package student

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterhub/internal/pkg/errs"
)

func TestParseSearch(t *testing.T) {
	tests := []struct {
		raw     string
		term    string
		subject string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"dupont", "dupont", ""},
		{"  marie   math ", "marie", "math"},
		{"marie math extra", "marie", "math"},
	}

	for _, tt := range tests {
		s := ParseSearch(tt.raw)
		assert.Equal(t, tt.term, s.Term, tt.raw)
		assert.Equal(t, tt.subject, s.Subject, tt.raw)
		assert.Equal(t, tt.raw, s.Raw)
	}

	assert.True(t, ParseSearch(" ").IsZero())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)

	assert.Equal(t, 20, ListQuery{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, ListQuery{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, math.MaxInt, ListQuery{Page: math.MaxInt, Limit: 10}.Offset())
	assert.Equal(t, math.MaxInt-1, ListQuery{Page: math.MaxInt, Limit: 1}.Offset())
}

func TestInputNormalize(t *testing.T) {
	in := Input{FirstName: " Marie ", LastName: "Curie", Email: " Marie@Example.com ", Subjects: []string{" physics", "", "chemistry "}}
	require.Nil(t, in.Normalize())
	assert.Equal(t, "Marie", in.FirstName)
	assert.Equal(t, "marie@example.com", in.Email)
	assert.Equal(t, []string{"physics", "chemistry"}, in.Subjects)

	missing := Input{FirstName: "Marie", Email: "m@example.com"}
	assert.Equal(t, errs.ErrStudentFieldsRequired, missing.Normalize().Code)

	bad := Input{FirstName: "Marie", LastName: "Curie", Email: "not-an-email"}
	assert.Equal(t, errs.ErrInvalidParams, bad.Normalize().Code)
}

func TestPatch(t *testing.T) {
	blank := "  "
	p := Patch{FirstName: &blank}
	assert.Equal(t, errs.ErrStudentFieldsRequired, p.Normalize().Code)

	email := " NEW@example.com"
	subjects := []string{"math", " "}
	p = Patch{Email: &email, Subjects: &subjects}
	require.Nil(t, p.Normalize())
	assert.False(t, p.Empty())

	s := p.Apply(Student{ID: 1, FirstName: "Marie", Email: "old@example.com"})
	assert.Equal(t, "Marie", s.FirstName)
	assert.Equal(t, "new@example.com", s.Email)
	assert.Equal(t, []string{"math"}, s.Subjects)

	assert.True(t, Patch{}.Empty())
}

func TestPhotoValidation(t *testing.T) {
	assert.Nil(t, PhotoUpload{FileName: "me.JPG", MimeType: "image/jpeg", FileSize: 1024}.Validate())

	tests := []struct {
		name string
		in   PhotoUpload
		code int
	}{
		{"zero_size", PhotoUpload{FileName: "a.png", MimeType: "image/png"}, errs.ErrInvalidParams},
		{"too_large", PhotoUpload{FileName: "a.png", MimeType: "image/png", FileSize: MaxPhotoSize + 1}, errs.ErrFileSizeTooLarge},
		{"gif", PhotoUpload{FileName: "a.gif", MimeType: "image/gif", FileSize: 10}, errs.ErrFileTypeInvalid},
		{"mismatch", PhotoUpload{FileName: "a.png", MimeType: "image/jpeg", FileSize: 10}, errs.ErrFileTypeInvalid},
		{"no_ext", PhotoUpload{FileName: "photo", MimeType: "image/png", FileSize: 10}, errs.ErrFileTypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestPhotoKey(t *testing.T) {
	key := PhotoKey(12, "Me.PNG")
	assert.Regexp(t, `^students/12/[0-9A-Za-z]{16}\.png$`, key)
	assert.True(t, OwnsPhotoKey(12, key))
	assert.False(t, OwnsPhotoKey(13, key))
	assert.False(t, OwnsPhotoKey(12, "students/12/"))
	assert.False(t, OwnsPhotoKey(12, "students/12/../1/x.png"))
}
