package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"examreg/internal/registration/models"
	"examreg/internal/registration/store"
	id "examreg/pkg/domain"
)

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func fixedClock(context.Context) time.Time { return fixedNow }

// catalogFixture is one student with attendance 82% in core, 74% in networks
// and exactly 75% in ethics.
type catalogFixture struct {
	store *store.InMemoryStore

	student id.StudentID

	paidExam    *models.Exam
	freeExam    *models.Exam
	networkExam *models.Exam
	ethicsExam  *models.Exam
	pastExam    *models.Exam
	todayExam   *models.Exam
}

func newCatalogFixture() *catalogFixture {
	st := store.NewInMemoryStore()
	f := &catalogFixture{store: st, student: id.StudentID(uuid.New())}

	st.PutStudent(&models.Student{
		ID:            f.student,
		StudentNumber: "2021CS042",
		Name:          "Ravi Kumar",
		Email:         "ravi.kumar@example.edu",
	})

	core := &models.Course{ID: id.CourseID(uuid.New()), Code: "CS301", Name: "Algorithms"}
	networks := &models.Course{ID: id.CourseID(uuid.New()), Code: "CS302", Name: "Networks"}
	ethics := &models.Course{ID: id.CourseID(uuid.New()), Code: "HS101", Name: "Ethics"}
	for _, c := range []*models.Course{core, networks, ethics} {
		st.PutCourse(c)
	}
	st.PutAttendance(models.AttendanceRecord{StudentID: f.student, CourseID: core.ID, Percentage: 82})
	st.PutAttendance(models.AttendanceRecord{StudentID: f.student, CourseID: networks.ID, Percentage: 74})
	st.PutAttendance(models.AttendanceRecord{StudentID: f.student, CourseID: ethics.ID, Percentage: 75})

	today := models.DateOf(fixedNow)
	f.paidExam = f.putExam(core.ID, "Algorithms Final", today.AddDate(0, 0, 7), "50.00", true)
	f.freeExam = f.putExam(core.ID, "Algorithms Viva", today.AddDate(0, 0, 10), "0", false)
	f.networkExam = f.putExam(networks.ID, "Networks Final", today.AddDate(0, 0, 8), "50.00", true)
	f.ethicsExam = f.putExam(ethics.ID, "Ethics Final", today.AddDate(0, 0, 9), "20.00", true)
	f.pastExam = f.putExam(core.ID, "Algorithms Quiz", today.AddDate(0, 0, -2), "10.00", true)
	f.todayExam = f.putExam(core.ID, "Algorithms Lab", today, "25.00", true)
	return f
}

func (f *catalogFixture) putExam(courseID id.CourseID, title string, date time.Time, fee string, paid bool) *models.Exam {
	exam := &models.Exam{
		ID:              id.ExamID(uuid.New()),
		CourseID:        courseID,
		Title:           title,
		Type:            "end-semester",
		Date:            date,
		StartTime:       "09:30",
		Venue:           "Block A",
		Fee:             decimal.RequireFromString(fee),
		RequiresPayment: paid,
		MinAttendance:   75,
	}
	f.store.PutExam(exam)
	return exam
}

// failingTicketTx runs the real unit of work but fails every ticket insert.
type failingTicketTx struct {
	next RegistrationStoreTx
}

type failingTicketStore struct {
	Store
}

func (failingTicketStore) CreateHallTicket(context.Context, *models.HallTicket) error {
	return errTicketWrite
}

func (t failingTicketTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return t.next.RunInTx(ctx, func(ctx context.Context, st Store) error {
		return fn(ctx, failingTicketStore{st})
	})
}

// blockingExamTx blocks every exam read until the unit of work's context ends.
type blockingExamTx struct {
	next RegistrationStoreTx
}

type blockingExamStore struct {
	Store
}

func (blockingExamStore) FindExam(ctx context.Context, _ id.ExamID) (*models.Exam, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (t blockingExamTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return t.next.RunInTx(ctx, func(ctx context.Context, st Store) error {
		return fn(ctx, blockingExamStore{st})
	})
}

// heldTicketTx parks the unit of work inside the ticket insert until release
// is closed, then fails the insert.
type heldTicketTx struct {
	next    RegistrationStoreTx
	entered chan struct{}
	release chan struct{}
}

type heldTicketStore struct {
	Store
	tx heldTicketTx
}

func (h heldTicketStore) CreateHallTicket(context.Context, *models.HallTicket) error {
	close(h.tx.entered)
	<-h.tx.release
	return errTicketWrite
}

func (t heldTicketTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return t.next.RunInTx(ctx, func(ctx context.Context, st Store) error {
		return fn(ctx, heldTicketStore{Store: st, tx: t})
	})
}
