/*
Package student defines the roster record, its input validation and the search
semantics of the roster listing.
*/
package student

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/errs"
)

// ErrNotFound is returned by a Store when no student has the requested id.
var ErrNotFound = errors.New("student: not found")

// ErrEmailTaken is returned by a Store when another student already uses the email.
var ErrEmailTaken = errors.New("student: email already exists")

// Student is one roster entry. IDs are sequential integers assigned on creation.
type Student struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Subjects  []string  `json:"subjects"`
	PhotoURL  *string   `json:"photo"`
	PhotoKey  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Input is the body of a create request.
type Input struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Subjects  []string `json:"subjects"`
}

// Patch is the body of an update request. Nil fields are left unchanged.
type Patch struct {
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Email     *string   `json:"email"`
	Subjects  *[]string `json:"subjects"`
}

// Normalize trims the input and drops empty subjects, then checks the required fields.
func (in *Input) Normalize() *errs.CustomError {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Subjects = cleanSubjects(in.Subjects)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" {
		return errs.NewError(errs.ErrStudentFieldsRequired)
	}

	if !user.ValidEmail(in.Email) {
		return errs.NewError(errs.ErrInvalidParams)
	}

	return nil
}

// Normalize trims the present fields. A present field may not be blank.
func (p *Patch) Normalize() *errs.CustomError {
	for _, f := range []*string{p.FirstName, p.LastName} {
		if f == nil {
			continue
		}
		*f = strings.TrimSpace(*f)
		if *f == "" {
			return errs.NewError(errs.ErrStudentFieldsRequired)
		}
	}

	if p.Email != nil {
		*p.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		if !user.ValidEmail(*p.Email) {
			return errs.NewError(errs.ErrInvalidParams)
		}
	}

	if p.Subjects != nil {
		cleaned := cleanSubjects(*p.Subjects)
		p.Subjects = &cleaned
	}

	return nil
}

// Apply returns s with the patch applied.
func (p Patch) Apply(s Student) Student {
	if p.FirstName != nil {
		s.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		s.LastName = *p.LastName
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Subjects != nil {
		s.Subjects = *p.Subjects
	}
	return s
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Subjects == nil
}

func cleanSubjects(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Search is the parsed form of the listing search string.
// A single term matches first name, last name, email or any subject. With two
// or more terms the first must match a name or the email and the second a subject;
// further terms are ignored.
type Search struct {
	Raw     string
	Term    string
	Subject string
}

// ParseSearch splits raw on whitespace.
func ParseSearch(raw string) Search {
	s := Search{Raw: raw}

	terms := strings.Fields(raw)
	switch len(terms) {
	case 0:
	case 1:
		s.Term = terms[0]
	default:
		s.Term, s.Subject = terms[0], terms[1]
	}
	return s
}

// IsZero reports whether the search filters nothing.
func (s Search) IsZero() bool {
	return s.Term == "" && s.Subject == ""
}

// Page is one page of the roster listing.
type Page struct {
	Students   []Student  `json:"students"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the position of a page in a listing.
type Pagination struct {
	CurrentPage  int    `json:"currentPage"`
	TotalPages   int    `json:"totalPages"`
	TotalItems   int64  `json:"totalItems"`
	ItemsPerPage int    `json:"itemsPerPage"`
	HasNext      bool   `json:"hasNext"`
	HasPrev      bool   `json:"hasPrev"`
	SearchTerm   string `json:"searchTerm,omitempty"`
}

// NewPagination computes the pagination block for page of size limit over total items.
func NewPagination(page, limit int, total int64) Pagination {
	if limit < 1 {
		limit = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

// ListQuery is a roster listing request.
type ListQuery struct {
	Page   int
	Limit  int
	Search Search
}

// Offset returns the number of rows to skip, saturating at math.MaxInt.
func (q ListQuery) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Store persists students.
type Store interface {
	ListStudents(ctx context.Context, q ListQuery) ([]Student, int64, error)
	GetStudent(ctx context.Context, id int64) (*Student, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	CreateStudent(ctx context.Context, in Input) (*Student, error)
	UpdateStudent(ctx context.Context, id int64, p Patch) (*Student, error)
	SetStudentPhoto(ctx context.Context, id int64, key, url string) (previousKey string, s *Student, err error)
	DeleteStudent(ctx context.Context, id int64) (*Student, error)
}
