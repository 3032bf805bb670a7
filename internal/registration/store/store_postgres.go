package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	"examreg/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore reads the catalog and ledger, and writes the ledger when
// bound to a transaction with NewPostgresTx.
type PostgresStore struct {
	q  querier
	db *sql.DB
}

// NewPostgres constructs a store over the pool, for reads outside a unit of work.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{q: db, db: db}
}

// NewPostgresTx binds a store to tx; every statement joins that transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{q: tx}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err, "ping postgres")
	}
	return nil
}

const studentColumns = `id, student_number, name, email`

func (s *PostgresStore) FindStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	var (
		student models.Student
		raw     uuid.UUID
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, uuid.UUID(studentID),
	).Scan(&raw, &student.StudentNumber, &student.Name, &student.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student %s: %w", studentID, sentinel.ErrNotFound)
		}
		return nil, classify(err, "find student")
	}
	student.ID = id.StudentID(raw)
	return &student, nil
}

const examColumns = `e.id, e.course_id, c.name, e.title, e.exam_type, e.exam_date, e.start_time,
	e.venue, e.fee, e.requires_payment, e.min_attendance`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (*models.Exam, error) {
	var (
		exam     models.Exam
		examID   uuid.UUID
		courseID uuid.UUID
	)
	err := row.Scan(&examID, &courseID, &exam.CourseName, &exam.Title, &exam.Type, &exam.Date,
		&exam.StartTime, &exam.Venue, &exam.Fee, &exam.RequiresPayment, &exam.MinAttendance)
	if err != nil {
		return nil, err
	}
	exam.ID = id.ExamID(examID)
	exam.CourseID = id.CourseID(courseID)
	exam.Date = models.DateOf(exam.Date)
	return &exam, nil
}

func (s *PostgresStore) FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+examColumns+` FROM exams e JOIN courses c ON c.id = e.course_id WHERE e.id = $1`,
		uuid.UUID(examID))
	exam, err := scanExam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exam %s: %w", examID, sentinel.ErrNotFound)
		}
		return nil, classify(err, "find exam")
	}
	return exam, nil
}

func (s *PostgresStore) ListUpcomingExams(ctx context.Context, from time.Time) ([]*models.Exam, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+examColumns+` FROM exams e JOIN courses c ON c.id = e.course_id
		 WHERE e.exam_date >= $1::date ORDER BY e.exam_date, e.title`,
		models.DateOf(from))
	if err != nil {
		return nil, classify(err, "list upcoming exams")
	}
	defer rows.Close()
	return collectExams(rows)
}

// ListExamsByIDs resolves many exams in one round trip.
func (s *PostgresStore) ListExamsByIDs(ctx context.Context, examIDs []id.ExamID) (map[id.ExamID]*models.Exam, error) {
	out := make(map[id.ExamID]*models.Exam, len(examIDs))
	if len(examIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(examIDs))
	for i, examID := range examIDs {
		raw[i] = examID.String()
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+examColumns+` FROM exams e JOIN courses c ON c.id = e.course_id
		 WHERE e.id = ANY($1::uuid[])`,
		pq.Array(raw))
	if err != nil {
		return nil, classify(err, "list exams by id")
	}
	defer rows.Close()
	exams, err := collectExams(rows)
	if err != nil {
		return nil, err
	}
	for _, exam := range exams {
		out[exam.ID] = exam
	}
	return out, nil
}

func collectExams(rows *sql.Rows) ([]*models.Exam, error) {
	var exams []*models.Exam
	for rows.Next() {
		exam, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		exams = append(exams, exam)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate exams")
	}
	return exams, nil
}

func (s *PostgresStore) FindAttendance(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (float64, error) {
	var pct float64
	err := s.q.QueryRowContext(ctx,
		`SELECT percentage FROM attendance WHERE student_id = $1 AND course_id = $2`,
		uuid.UUID(studentID), uuid.UUID(courseID),
	).Scan(&pct)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("attendance %s/%s: %w", studentID, courseID, sentinel.ErrNotFound)
		}
		return 0, classify(err, "find attendance")
	}
	return pct, nil
}

func (s *PostgresStore) ListAttendance(ctx context.Context, studentID id.StudentID) (map[id.CourseID]float64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT course_id, percentage FROM attendance WHERE student_id = $1`, uuid.UUID(studentID))
	if err != nil {
		return nil, classify(err, "list attendance")
	}
	defer rows.Close()

	out := make(map[id.CourseID]float64)
	for rows.Next() {
		var (
			courseID uuid.UUID
			pct      float64
		)
		if err := rows.Scan(&courseID, &pct); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out[id.CourseID(courseID)] = pct
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate attendance")
	}
	return out, nil
}

// ListCoursesByIDs resolves course codes and names in one round trip.
func (s *PostgresStore) ListCoursesByIDs(ctx context.Context, courseIDs []id.CourseID) (map[id.CourseID]*models.Course, error) {
	out := make(map[id.CourseID]*models.Course, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(courseIDs))
	for i, courseID := range courseIDs {
		raw[i] = courseID.String()
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, code, name FROM courses WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, classify(err, "list courses by id")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			courseID uuid.UUID
			course   models.Course
		)
		if err := rows.Scan(&courseID, &course.Code, &course.Name); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		course.ID = id.CourseID(courseID)
		out[course.ID] = &course
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate courses")
	}
	return out, nil
}

// CreateRegistration inserts the ledger row. The unique constraint on
// (student_id, exam_id) is the arbiter: a losing insert returns no row and
// maps to sentinel.ErrConflict.
func (s *PostgresStore) CreateRegistration(ctx context.Context, entry *models.RegistrationEntry) error {
	var inserted uuid.UUID
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO registrations (id, student_id, exam_id, amount, status, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, exam_id) DO NOTHING
		RETURNING id`,
		uuid.UUID(entry.ID), uuid.UUID(entry.StudentID), uuid.UUID(entry.ExamID),
		entry.Amount, string(entry.Status), entry.RegisteredAt,
	).Scan(&inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("registration %s/%s: %w", entry.StudentID, entry.ExamID, sentinel.ErrConflict)
		}
		return classify(err, "insert registration")
	}
	return nil
}

func (s *PostgresStore) CreateHallTicket(ctx context.Context, ticket *models.HallTicket) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO hall_tickets (id, student_id, exam_id, ref, url, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(ticket.ID), uuid.UUID(ticket.StudentID), uuid.UUID(ticket.ExamID),
		ticket.Ref, ticket.URL, ticket.IssuedAt,
	)
	if err != nil {
		return classify(err, "insert hall ticket")
	}
	return nil
}

const registrationColumns = `id, student_id, exam_id, amount, status, registered_at`

func scanRegistration(row rowScanner) (*models.RegistrationEntry, error) {
	var (
		entry     models.RegistrationEntry
		entryID   uuid.UUID
		studentID uuid.UUID
		examID    uuid.UUID
		status    string
	)
	if err := row.Scan(&entryID, &studentID, &examID, &entry.Amount, &status, &entry.RegisteredAt); err != nil {
		return nil, err
	}
	entry.ID = id.RegistrationID(entryID)
	entry.StudentID = id.StudentID(studentID)
	entry.ExamID = id.ExamID(examID)
	entry.Status = models.EntryStatus(status)
	return &entry, nil
}

func (s *PostgresStore) FindRegistration(ctx context.Context, studentID id.StudentID, examID id.ExamID) (*models.RegistrationEntry, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE student_id = $1 AND exam_id = $2`,
		uuid.UUID(studentID), uuid.UUID(examID))
	entry, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registration %s/%s: %w", studentID, examID, sentinel.ErrNotFound)
		}
		return nil, classify(err, "find registration")
	}
	return entry, nil
}

func (s *PostgresStore) ListRegistrations(ctx context.Context, studentID id.StudentID, filter models.PaymentFilter) ([]*models.RegistrationEntry, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE student_id = $1`
	args := []any{uuid.UUID(studentID)}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		query += ` AND status = ANY($2::text[])`
		args = append(args, pq.Array(statuses))
	}
	query += ` ORDER BY registered_at`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list registrations")
	}
	defer rows.Close()

	var out []*models.RegistrationEntry
	for rows.Next() {
		entry, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate registrations")
	}
	return out, nil
}

const ticketColumns = `id, student_id, exam_id, ref, url, issued_at`

func scanTicket(row rowScanner) (*models.HallTicket, error) {
	var (
		ticket    models.HallTicket
		ticketID  uuid.UUID
		studentID uuid.UUID
		examID    uuid.UUID
	)
	if err := row.Scan(&ticketID, &studentID, &examID, &ticket.Ref, &ticket.URL, &ticket.IssuedAt); err != nil {
		return nil, err
	}
	ticket.ID = id.HallTicketID(ticketID)
	ticket.StudentID = id.StudentID(studentID)
	ticket.ExamID = id.ExamID(examID)
	return &ticket, nil
}

func (s *PostgresStore) FindHallTicket(ctx context.Context, studentID id.StudentID, examID id.ExamID) (*models.HallTicket, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM hall_tickets WHERE student_id = $1 AND exam_id = $2`,
		uuid.UUID(studentID), uuid.UUID(examID))
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hall ticket %s/%s: %w", studentID, examID, sentinel.ErrNotFound)
		}
		return nil, classify(err, "find hall ticket")
	}
	return ticket, nil
}

func (s *PostgresStore) ListHallTickets(ctx context.Context, studentID id.StudentID) ([]*models.HallTicket, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM hall_tickets WHERE student_id = $1 ORDER BY issued_at`,
		uuid.UUID(studentID))
	if err != nil {
		return nil, classify(err, "list hall tickets")
	}
	defer rows.Close()

	var out []*models.HallTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hall ticket: %w", err)
		}
		out = append(out, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate hall tickets")
	}
	return out, nil
}

// classify maps driver errors onto sentinels. Context errors pass through
// untouched so callers can tell a deadline from an outage.
func classify(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, sentinel.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %v: %w", op, err, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
