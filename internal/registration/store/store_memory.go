package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
)

type pairKey struct {
	student id.StudentID
	exam    id.ExamID
}

type attendanceKey struct {
	student id.StudentID
	course  id.CourseID
}

// InMemoryStore keeps the catalog and the registration ledger in memory.
// Ledger writes go through InMemoryTx. A pair staged by an open transaction
// is reserved; a concurrent transaction for the same pair waits until the
// holder commits (conflict) or rolls back (the waiter takes the pair).
type InMemoryStore struct {
	mu            sync.RWMutex
	students      map[id.StudentID]*models.Student
	courses       map[id.CourseID]*models.Course
	exams         map[id.ExamID]*models.Exam
	attendance    map[attendanceKey]float64
	registrations map[pairKey]*models.RegistrationEntry
	tickets       map[pairKey]*models.HallTicket

	// reservedEntries maps a staged pair to a channel closed when its
	// transaction ends.
	reservedEntries map[pairKey]chan struct{}
	reservedTickets map[pairKey]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		students:        make(map[id.StudentID]*models.Student),
		courses:         make(map[id.CourseID]*models.Course),
		exams:           make(map[id.ExamID]*models.Exam),
		attendance:      make(map[attendanceKey]float64),
		registrations:   make(map[pairKey]*models.RegistrationEntry),
		tickets:         make(map[pairKey]*models.HallTicket),
		reservedEntries: make(map[pairKey]chan struct{}),
		reservedTickets: make(map[pairKey]struct{}),
	}
}

func (s *InMemoryStore) PutStudent(student *models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *student
	s.students[student.ID] = &cp
}

func (s *InMemoryStore) PutCourse(course *models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *course
	s.courses[course.ID] = &cp
}

func (s *InMemoryStore) PutExam(exam *models.Exam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *exam
	cp.Date = models.DateOf(exam.Date)
	if course, ok := s.courses[exam.CourseID]; ok && cp.CourseName == "" {
		cp.CourseName = course.Name
	}
	s.exams[exam.ID] = &cp
}

func (s *InMemoryStore) PutAttendance(record models.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[attendanceKey{record.StudentID, record.CourseID}] = record.Percentage
}

// Ping always succeeds; it exists so health checks treat every backend alike.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *InMemoryStore) FindStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[studentID]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", studentID, sentinel.ErrNotFound)
	}
	cp := *student
	return &cp, nil
}

func (s *InMemoryStore) FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	exam, ok := s.exams[examID]
	if !ok {
		return nil, fmt.Errorf("exam %s: %w", examID, sentinel.ErrNotFound)
	}
	cp := *exam
	return &cp, nil
}

// ListUpcomingExams returns exams dated on or after from's calendar day,
// ordered by date then title.
func (s *InMemoryStore) ListUpcomingExams(ctx context.Context, from time.Time) ([]*models.Exam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day := models.DateOf(from)
	s.mu.RLock()
	out := make([]*models.Exam, 0, len(s.exams))
	for _, exam := range s.exams {
		if exam.Date.Before(day) {
			continue
		}
		cp := *exam
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sortExams(out)
	return out, nil
}

func (s *InMemoryStore) ListExamsByIDs(ctx context.Context, examIDs []id.ExamID) (map[id.ExamID]*models.Exam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.ExamID]*models.Exam, len(examIDs))
	for _, examID := range examIDs {
		if exam, ok := s.exams[examID]; ok {
			cp := *exam
			out[examID] = &cp
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindAttendance(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pct, ok := s.attendance[attendanceKey{studentID, courseID}]
	if !ok {
		return 0, fmt.Errorf("attendance %s/%s: %w", studentID, courseID, sentinel.ErrNotFound)
	}
	return pct, nil
}

func (s *InMemoryStore) ListAttendance(ctx context.Context, studentID id.StudentID) (map[id.CourseID]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.CourseID]float64)
	for key, pct := range s.attendance {
		if key.student == studentID {
			out[key.course] = pct
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListCoursesByIDs(ctx context.Context, courseIDs []id.CourseID) (map[id.CourseID]*models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.CourseID]*models.Course, len(courseIDs))
	for _, courseID := range courseIDs {
		if course, ok := s.courses[courseID]; ok {
			cp := *course
			out[courseID] = &cp
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindRegistration(ctx context.Context, studentID id.StudentID, examID id.ExamID) (*models.RegistrationEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.registrations[pairKey{studentID, examID}]
	if !ok {
		return nil, fmt.Errorf("registration %s/%s: %w", studentID, examID, sentinel.ErrNotFound)
	}
	cp := *entry
	return &cp, nil
}

// ListRegistrations returns the student's ledger entries matching filter,
// oldest first.
func (s *InMemoryStore) ListRegistrations(ctx context.Context, studentID id.StudentID, filter models.PaymentFilter) ([]*models.RegistrationEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*models.RegistrationEntry, 0)
	for key, entry := range s.registrations {
		if key.student != studentID || !filter.Matches(entry.Status) {
			continue
		}
		cp := *entry
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

func (s *InMemoryStore) FindHallTicket(ctx context.Context, studentID id.StudentID, examID id.ExamID) (*models.HallTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[pairKey{studentID, examID}]
	if !ok {
		return nil, fmt.Errorf("hall ticket %s/%s: %w", studentID, examID, sentinel.ErrNotFound)
	}
	cp := *ticket
	return &cp, nil
}

// ListHallTickets returns the student's tickets, oldest first.
func (s *InMemoryStore) ListHallTickets(ctx context.Context, studentID id.StudentID) ([]*models.HallTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*models.HallTicket, 0)
	for key, ticket := range s.tickets {
		if key.student != studentID {
			continue
		}
		cp := *ticket
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].IssuedAt.Before(out[j].IssuedAt)
	})
	return out, nil
}

// Begin opens a staged transaction. Callers must end it with Commit or
// Rollback; Rollback after Commit is a no-op.
func (s *InMemoryStore) Begin() *InMemoryTx {
	return &InMemoryTx{parent: s}
}

// InMemoryTx stages ledger writes until Commit. Reads of the catalog go
// straight to the parent store; staged rows are invisible to other readers.
type InMemoryTx struct {
	parent  *InMemoryStore
	entries []*models.RegistrationEntry
	tickets []*models.HallTicket
	done    bool
}

func (t *InMemoryTx) FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error) {
	return t.parent.FindExam(ctx, examID)
}

func (t *InMemoryTx) FindAttendance(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (float64, error) {
	return t.parent.FindAttendance(ctx, studentID, courseID)
}

// CreateRegistration reserves the (student, exam) pair. It fails with
// sentinel.ErrConflict when the pair is committed. When another open
// transaction holds the pair it blocks until that transaction ends or ctx is
// done, then checks again.
func (t *InMemoryTx) CreateRegistration(ctx context.Context, entry *models.RegistrationEntry) error {
	if t.done {
		return fmt.Errorf("registration tx already finished: %w", sentinel.ErrInvalidState)
	}
	key := pairKey{entry.StudentID, entry.ExamID}
	if t.hasEntry(key) {
		return fmt.Errorf("registration %s/%s: %w", entry.StudentID, entry.ExamID, sentinel.ErrConflict)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.parent.mu.Lock()
		if _, ok := t.parent.registrations[key]; ok {
			t.parent.mu.Unlock()
			return fmt.Errorf("registration %s/%s: %w", entry.StudentID, entry.ExamID, sentinel.ErrConflict)
		}
		held, ok := t.parent.reservedEntries[key]
		if !ok {
			t.parent.reservedEntries[key] = make(chan struct{})
			cp := *entry
			t.entries = append(t.entries, &cp)
			t.parent.mu.Unlock()
			return nil
		}
		t.parent.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// CreateHallTicket stages a ticket. The pair must already hold a registration
// staged in this transaction or committed earlier.
func (t *InMemoryTx) CreateHallTicket(ctx context.Context, ticket *models.HallTicket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.done {
		return fmt.Errorf("registration tx already finished: %w", sentinel.ErrInvalidState)
	}
	key := pairKey{ticket.StudentID, ticket.ExamID}

	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	if !t.hasEntry(key) {
		if _, ok := t.parent.registrations[key]; !ok {
			return fmt.Errorf("hall ticket without registration %s/%s: %w", ticket.StudentID, ticket.ExamID, sentinel.ErrInvalidState)
		}
	}
	if _, ok := t.parent.tickets[key]; ok {
		return fmt.Errorf("hall ticket %s/%s: %w", ticket.StudentID, ticket.ExamID, sentinel.ErrConflict)
	}
	if _, ok := t.parent.reservedTickets[key]; ok {
		return fmt.Errorf("hall ticket %s/%s: %w", ticket.StudentID, ticket.ExamID, sentinel.ErrConflict)
	}
	t.parent.reservedTickets[key] = struct{}{}
	cp := *ticket
	t.tickets = append(t.tickets, &cp)
	return nil
}

func (t *InMemoryTx) hasEntry(key pairKey) bool {
	for _, e := range t.entries {
		if e.StudentID == key.student && e.ExamID == key.exam {
			return true
		}
	}
	return false
}

// Commit publishes every staged row at once.
func (t *InMemoryTx) Commit() error {
	if t.done {
		return fmt.Errorf("registration tx already finished: %w", sentinel.ErrInvalidState)
	}
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	for _, e := range t.entries {
		key := pairKey{e.StudentID, e.ExamID}
		t.parent.registrations[key] = e
		t.parent.release(key)
	}
	for _, ht := range t.tickets {
		key := pairKey{ht.StudentID, ht.ExamID}
		t.parent.tickets[key] = ht
		delete(t.parent.reservedTickets, key)
	}
	t.done = true
	return nil
}

// Rollback discards staged rows and releases their reservations.
func (t *InMemoryTx) Rollback() {
	if t.done {
		return
	}
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	for _, e := range t.entries {
		t.parent.release(pairKey{e.StudentID, e.ExamID})
	}
	for _, ht := range t.tickets {
		delete(t.parent.reservedTickets, pairKey{ht.StudentID, ht.ExamID})
	}
	t.entries = nil
	t.tickets = nil
	t.done = true
}

// release wakes transactions waiting on key. Callers hold s.mu.
func (s *InMemoryStore) release(key pairKey) {
	if held, ok := s.reservedEntries[key]; ok {
		close(held)
		delete(s.reservedEntries, key)
	}
}

func sortExams(exams []*models.Exam) {
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].Date.Equal(exams[j].Date) {
			return exams[i].Date.Before(exams[j].Date)
		}
		return exams[i].Title < exams[j].Title
	})
}
