package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
)

var errMockStorage = errors.New("mock storage failure")

// ── Mock ScheduleRepository ──
// 与数据库一致：(owner, course_code) 与 (owner, descriptive_title) 唯一

type mockScheduleRepo struct {
	schedules map[string]*model.Schedule
	failWith  error
	findCalls int
	lastQuery repository.DuplicateQuery
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.Schedule)}
}

func (m *mockScheduleRepo) put(s model.Schedule) {
	m.schedules[s.ScheduleID] = &s
}

func (m *mockScheduleRepo) ListByOwner(_ context.Context, owner string) ([]model.Schedule, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]model.Schedule, 0)
	for _, s := range m.schedules {
		if s.Owner == owner {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if s, ok := m.schedules[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) FindDuplicate(_ context.Context, q repository.DuplicateQuery) (*model.Schedule, error) {
	m.findCalls++
	m.lastQuery = q
	if m.failWith != nil {
		return nil, m.failWith
	}
	var hit *model.Schedule
	for _, s := range m.schedules {
		if q.ExcludeID != "" && s.ScheduleID == q.ExcludeID {
			continue
		}
		if q.Owner != "" && s.Owner != q.Owner {
			continue
		}
		if (q.CourseCode != "" && s.CourseCode == q.CourseCode) ||
			(q.DescriptiveTitle != "" && s.DescriptiveTitle == q.DescriptiveTitle) {
			if hit == nil || s.CreatedAt.Before(hit.CreatedAt) {
				hit = s
			}
		}
	}
	if hit == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *hit
	return &cp, nil
}

func (m *mockScheduleRepo) violatesUnique(s *model.Schedule) bool {
	for _, other := range m.schedules {
		if other.ScheduleID == s.ScheduleID || other.Owner != s.Owner {
			continue
		}
		if other.CourseCode == s.CourseCode || other.DescriptiveTitle == s.DescriptiveTitle {
			return true
		}
	}
	return false
}

func (m *mockScheduleRepo) Create(_ context.Context, s *model.Schedule) error {
	if m.failWith != nil {
		return m.failWith
	}
	if m.violatesUnique(s) {
		return gorm.ErrDuplicatedKey
	}
	cp := *s
	m.schedules[s.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) Update(_ context.Context, s *model.Schedule) error {
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.schedules[s.ScheduleID]
	if !ok {
		return nil
	}
	if m.violatesUnique(s) {
		return gorm.ErrDuplicatedKey
	}
	existing.CourseCode = s.CourseCode
	existing.DescriptiveTitle = s.DescriptiveTitle
	existing.Units = s.Units
	existing.Days = s.Days
	existing.Time = s.Time
	existing.Room = s.Room
	existing.Instructor = s.Instructor
	existing.UpdatedAt = s.UpdatedAt
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.schedules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.schedules, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users    map[string]*model.User
	accounts map[string]string // provider:subject → user id
	seq      int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:    make(map[string]*model.User),
		accounts: make(map[string]string),
	}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpsertWithAccount(_ context.Context, in *model.User, provider, subject string) (*model.User, error) {
	key := provider + ":" + subject
	var user *model.User
	if id, ok := m.accounts[key]; ok {
		user = m.users[id]
	} else {
		for _, u := range m.users {
			if u.Email == in.Email {
				user = u
			}
		}
		if user == nil {
			m.seq++
			user = &model.User{UserID: fmt.Sprintf("user-%03d", m.seq), Email: in.Email}
			m.users[user.UserID] = user
		}
		m.accounts[key] = user.UserID
	}
	user.Name, user.Image = in.Name, in.Image
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, userID string, p repository.Profile) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Program, u.Year, u.Semester, u.AcademicYear = p.Program, p.Year, p.Semester, p.AcademicYear
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.Session // token hash → session
	users    *mockUserRepo
	seq      int
	extended int
}

func newMockSessionRepo(users *mockUserRepo) *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session), users: users}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.Session) error {
	m.seq++
	s.SessionID = fmt.Sprintf("session-%03d", m.seq)
	cp := *s
	m.sessions[s.TokenHash] = &cp
	return nil
}

func (m *mockSessionRepo) GetByTokenHash(_ context.Context, hash string) (*model.Session, error) {
	s, ok := m.sessions[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if u, ok := m.users.users[s.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp, nil
}

func (m *mockSessionRepo) Extend(_ context.Context, sessionID string, expiresAt time.Time) error {
	for _, s := range m.sessions {
		if s.SessionID == sessionID {
			s.ExpiresAt = expiresAt
			m.extended++
		}
	}
	return nil
}

func (m *mockSessionRepo) DeleteByTokenHash(_ context.Context, hash string) error {
	delete(m.sessions, hash)
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

// ── 聚合 ──

type mockRepos struct {
	schedule *mockScheduleRepo
	user     *mockUserRepo
	session  *mockSessionRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	m := &mockRepos{
		schedule: newMockScheduleRepo(),
		user:     users,
		session:  newMockSessionRepo(users),
	}
	return &repository.Repository{
		Schedule: m.schedule,
		User:     m.user,
		Session:  m.session,
	}, m
}
