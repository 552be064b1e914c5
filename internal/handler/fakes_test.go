package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"rosterhub/internal/app/activity"
	"rosterhub/internal/app/chat"
	"rosterhub/internal/app/presence"
	"rosterhub/internal/app/realtime"
	"rosterhub/internal/app/storage"
	"rosterhub/internal/app/student"
	"rosterhub/internal/app/user"
	"rosterhub/internal/configs"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/logx"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	logx.Discard()
	m.Run()
}

type memUsers struct {
	mu       sync.Mutex
	accounts []*user.Account
}

func (s *memUsers) FindUserByID(ctx context.Context, id string) (*user.Identity, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a.Identity, nil
}

func (s *memUsers) find(match func(*user.Account) bool) (*user.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memUsers) CreateAccount(_ context.Context, in user.NewAccount) (*user.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == in.Email {
			return nil, user.ErrEmailTaken
		}
	}

	role := user.RoleUser
	if len(s.accounts) == 0 {
		role = user.RoleAdmin
	}

	now := time.Now()
	a := &user.Account{
		Identity: user.Identity{
			ID:        uuid.NewString(),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Role:      role,
		},
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts = append(s.accounts, a)
	cp := *a
	return &cp, nil
}

func (s *memUsers) FindAccountByEmail(_ context.Context, email string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool { return a.Email == email })
}

func (s *memUsers) GetAccount(_ context.Context, id string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool { return a.ID == id })
}

func (s *memUsers) ListAccounts(context.Context) ([]user.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]user.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (s *memUsers) UpdateAccount(_ context.Context, id string, u user.Update) (*user.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if u.Email != nil && a.Email == *u.Email && a.ID != id {
			return nil, user.ErrEmailTaken
		}
	}

	for _, a := range s.accounts {
		if a.ID != id {
			continue
		}
		if u.FirstName != nil {
			a.FirstName = *u.FirstName
		}
		if u.LastName != nil {
			a.LastName = *u.LastName
		}
		if u.Email != nil {
			a.Email = *u.Email
		}
		if u.Role != nil {
			a.Role = *u.Role
		}
		a.UpdatedAt = time.Now()
		cp := *a
		return &cp, nil
	}
	return nil, user.ErrNotFound
}

func (s *memUsers) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.accounts {
		if a.ID == id {
			s.accounts = slices.Delete(s.accounts, i, i+1)
			return nil
		}
	}
	return user.ErrNotFound
}

type memStudents struct {
	mu       sync.Mutex
	nextID   int64
	students []student.Student
}

func (s *memStudents) ListStudents(_ context.Context, q student.ListQuery) ([]student.Student, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToLower(q.Search.Term)
	matched := make([]student.Student, 0)
	for _, st := range s.students {
		if term == "" || strings.Contains(strings.ToLower(st.FullName()+" "+st.Email), term) {
			matched = append(matched, st)
		}
	}

	total := int64(len(matched))
	start := min(q.Offset(), len(matched))
	end := min(start+q.Limit, len(matched))
	return matched[start:end], total, nil
}

func (s *memStudents) indexLocked(id int64) int {
	return slices.IndexFunc(s.students, func(st student.Student) bool { return st.ID == id })
}

func (s *memStudents) GetStudent(_ context.Context, id int64) (*student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, student.ErrNotFound
	}
	st := s.students[i]
	return &st, nil
}

func (s *memStudents) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.students {
		if st.Email == strings.ToLower(email) && st.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStudents) CreateStudent(ctx context.Context, in student.Input) (*student.Student, error) {
	if exists, _ := s.EmailExists(ctx, in.Email, 0); exists {
		return nil, student.ErrEmailTaken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now()
	st := student.Student{
		ID:        s.nextID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Subjects:  in.Subjects,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.students = append(s.students, st)
	return &st, nil
}

func (s *memStudents) UpdateStudent(ctx context.Context, id int64, p student.Patch) (*student.Student, error) {
	if p.Email != nil {
		if exists, _ := s.EmailExists(ctx, *p.Email, id); exists {
			return nil, student.ErrEmailTaken
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, student.ErrNotFound
	}
	s.students[i] = p.Apply(s.students[i])
	st := s.students[i]
	return &st, nil
}

func (s *memStudents) SetStudentPhoto(_ context.Context, id int64, key, url string) (string, *student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return "", nil, student.ErrNotFound
	}
	prev := s.students[i].PhotoKey
	s.students[i].PhotoKey = key
	s.students[i].PhotoURL = &url
	st := s.students[i]
	return prev, &st, nil
}

func (s *memStudents) DeleteStudent(_ context.Context, id int64) (*student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, student.ErrNotFound
	}
	st := s.students[i]
	s.students = slices.Delete(s.students, i, i+1)
	return &st, nil
}

type memActivity struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (s *memActivity) AddEntry(_ context.Context, rec activity.Record) (*activity.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := activity.Entry{
		ID:          uuid.NewString(),
		UserID:      rec.UserID,
		ActionType:  rec.ActionType,
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		IPAddress:   rec.IPAddress,
		CreatedAt:   time.Now(),
	}
	s.entries = append(s.entries, e)
	return &e, nil
}

func (s *memActivity) ListEntries(_ context.Context, f activity.Filter) ([]activity.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]activity.View, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.ActionType != "" && e.ActionType != f.ActionType {
			continue
		}
		v := activity.View{Entry: e, StudentExists: e.StudentID != nil}
		v.Finalize()
		out = append(out, v)
	}
	return out, nil
}

func (s *memActivity) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.entries, func(e activity.Entry) bool { return e.ID == id })
	if i < 0 {
		return activity.ErrNotFound
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return nil
}

func (s *memActivity) DeleteAllEntries(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.entries))
	s.entries = nil
	return n, nil
}

func (s *memActivity) actions() []activity.ActionType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]activity.ActionType, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.ActionType)
	}
	return out
}

type memChat struct {
	mu       sync.Mutex
	messages []chat.Message
}

func (s *memChat) AddMessage(_ context.Context, author chat.Author, content string) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := chat.Message{
		ID:        fmt.Sprintf("m%d", len(s.messages)+1),
		User:      author,
		Message:   content,
		Room:      chat.DefaultRoom,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *memChat) ListMessages(_ context.Context, page, limit int) ([]chat.Message, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.messages)
	end := max(total-(page-1)*limit, 0)
	start := max(end-limit, 0)
	return slices.Clone(s.messages[start:end]), int64(total), nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]int64
	deleted chan string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]int64), deleted: make(chan string, 8)}
}

func (s *fakeStorage) put(key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = size
}

func (s *fakeStorage) PresignUpload(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://upload.test/" + key, nil
}

func (s *fakeStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://download.test/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	s.deleted <- key
	return nil
}

func (s *fakeStorage) Stat(_ context.Context, key string) (*storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{ContentType: "image/png", Size: size}, nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return storage.JoinURL("https://cdn.test", key)
}

type published struct {
	event   string
	payload any
}

// recordingPublisher records every publish before forwarding it to the hub.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	next   realtime.Publisher
}

func (p *recordingPublisher) Publish(event string, payload any) {
	p.mu.Lock()
	p.events = append(p.events, published{event: event, payload: payload})
	p.mu.Unlock()

	p.next.Publish(event, payload)
}

func (p *recordingPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		return published{}
	}
	return p.events[len(p.events)-1]
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (c *recordingInvalidator) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return nil
}

type testEnv struct {
	server    *httptest.Server
	deps      *AppDeps
	users     *memUsers
	students  *memStudents
	activity  *memActivity
	chat      *memChat
	publisher *recordingPublisher
	cache     *recordingInvalidator
	registry  *presence.Registry
	lifecycle *realtime.Lifecycle
}

type envOption func(*AppDeps)

func withStorage(s storage.StorageService) envOption {
	return func(d *AppDeps) { d.Storage = s }
}

func withWSPolicy(p jwt.Policy) envOption {
	return func(d *AppDeps) { d.Authenticator = realtime.NewAuthenticator(d.Verifier, p) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    &memUsers{},
		students: &memStudents{},
		activity: &memActivity{},
		chat:     &memChat{},
		cache:    &recordingInvalidator{},
		registry: presence.NewRegistry(),
	}

	hub := realtime.NewHub()
	env.lifecycle = realtime.NewLifecycle(env.registry, hub, realtime.LifecycleConfig{})
	env.publisher = &recordingPublisher{next: hub}

	cfg := &configs.AppConfig{
		Environment: "development",
		JWTSecret:   testSecret,
		TokenTTL:    time.Hour,
	}

	verifier := jwt.NewVerifier(testSecret, env.users)
	env.deps = &AppDeps{
		Config:        cfg,
		Users:         env.users,
		Students:      env.students,
		Activity:      env.activity,
		Chat:          env.chat,
		IdentityCache: env.cache,
		Verifier:      verifier,
		Authenticator: realtime.NewAuthenticator(verifier, jwt.PolicySoft),
		Lifecycle:     env.lifecycle,
		Broadcaster:   env.publisher,
	}
	for _, opt := range opts {
		opt(env.deps)
	}

	env.server = httptest.NewServer(Router(env.deps))
	t.Cleanup(func() {
		hub.CloseAll("test finished")
		env.server.Close()
		require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
	})
	return env
}

// seedAccount stores an account directly and returns it with a valid token.
func (e *testEnv) seedAccount(t *testing.T, email string, role user.Role) (user.Identity, string) {
	t.Helper()

	a, err := e.users.CreateAccount(context.Background(), user.NewAccount{
		FirstName: strings.Split(email, "@")[0],
		LastName:  "Tester",
		Email:     email,
	})
	require.NoError(t, err)

	if a.Role != role {
		a, err = e.users.UpdateAccount(context.Background(), a.ID, user.Update{Role: &role})
		require.NoError(t, err)
	}

	token, err := jwt.GenerateToken(a.Identity, testSecret, time.Hour)
	require.NoError(t, err)
	return a.Identity, token
}

func (e *testEnv) url(path string) string {
	return e.server.URL + path
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
