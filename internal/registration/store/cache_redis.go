package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"examreg/internal/registration/metrics"
	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
)

const (
	upcomingKeyPrefix = "examreg:exams:upcoming:"
	examKeyPrefix     = "examreg:exam:"
)

// Catalog is the read side of the exam catalog.
type Catalog interface {
	FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error)
	ListUpcomingExams(ctx context.Context, from time.Time) ([]*models.Exam, error)
}

// CachedCatalog is a read-through Redis cache in front of a Catalog. Cache
// failures degrade to the backing catalog. The registration unit of work
// never reads through this cache.
type CachedCatalog struct {
	next    Catalog
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// CachedCatalogOption configures a CachedCatalog.
type CachedCatalogOption func(*CachedCatalog)

func WithCacheMetrics(m *metrics.Metrics) CachedCatalogOption {
	return func(c *CachedCatalog) {
		c.metrics = m
	}
}

func WithCacheLogger(logger *slog.Logger) CachedCatalogOption {
	return func(c *CachedCatalog) {
		c.logger = logger
	}
}

func NewCachedCatalog(next Catalog, client *redis.Client, ttl time.Duration, opts ...CachedCatalogOption) *CachedCatalog {
	c := &CachedCatalog{next: next, client: client, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type cachedExam struct {
	ID              string  `json:"id"`
	CourseID        string  `json:"course_id"`
	CourseName      string  `json:"course_name"`
	Title           string  `json:"title"`
	Type            string  `json:"type"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	Venue           string  `json:"venue"`
	Fee             string  `json:"fee"`
	RequiresPayment bool    `json:"requires_payment"`
	MinAttendance   float64 `json:"min_attendance"`
}

func toCached(e *models.Exam) cachedExam {
	return cachedExam{
		ID:              e.ID.String(),
		CourseID:        e.CourseID.String(),
		CourseName:      e.CourseName,
		Title:           e.Title,
		Type:            e.Type,
		Date:            e.Date.Format(time.DateOnly),
		StartTime:       e.StartTime,
		Venue:           e.Venue,
		Fee:             e.Fee.String(),
		RequiresPayment: e.RequiresPayment,
		MinAttendance:   e.MinAttendance,
	}
}

func fromCached(c cachedExam) (*models.Exam, error) {
	examID, err := uuid.Parse(c.ID)
	if err != nil {
		return nil, err
	}
	courseID, err := uuid.Parse(c.CourseID)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(time.DateOnly, c.Date)
	if err != nil {
		return nil, err
	}
	fee, err := decimal.NewFromString(c.Fee)
	if err != nil {
		return nil, err
	}
	return &models.Exam{
		ID:              id.ExamID(examID),
		CourseID:        id.CourseID(courseID),
		CourseName:      c.CourseName,
		Title:           c.Title,
		Type:            c.Type,
		Date:            date,
		StartTime:       c.StartTime,
		Venue:           c.Venue,
		Fee:             fee,
		RequiresPayment: c.RequiresPayment,
		MinAttendance:   c.MinAttendance,
	}, nil
}

func (c *CachedCatalog) FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error) {
	key := examKeyPrefix + examID.String()
	var cached cachedExam
	if c.get(ctx, key, &cached) {
		if exam, err := fromCached(cached); err == nil {
			return exam, nil
		}
	}

	exam, err := c.next.FindExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, toCached(exam))
	return exam, nil
}

// ListUpcomingExams caches per calendar day so the listing rolls over at
// midnight without explicit invalidation.
func (c *CachedCatalog) ListUpcomingExams(ctx context.Context, from time.Time) ([]*models.Exam, error) {
	key := upcomingKeyPrefix + models.DateOf(from).Format("20060102")
	var cached []cachedExam
	if c.get(ctx, key, &cached) {
		exams := make([]*models.Exam, 0, len(cached))
		ok := true
		for _, ce := range cached {
			exam, err := fromCached(ce)
			if err != nil {
				ok = false
				break
			}
			exams = append(exams, exam)
		}
		if ok {
			return exams, nil
		}
	}

	exams, err := c.next.ListUpcomingExams(ctx, from)
	if err != nil {
		return nil, err
	}
	payload := make([]cachedExam, len(exams))
	for i, e := range exams {
		payload[i] = toCached(e)
	}
	c.set(ctx, key, payload)
	return exams, nil
}

// Invalidate drops every cached catalog entry. The server calls it at startup.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	for _, pattern := range []string{upcomingKeyPrefix + "*", examKeyPrefix + "*"} {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CachedCatalog) get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.IncCacheLookup("miss")
		return false
	}
	if err != nil {
		c.metrics.IncCacheLookup("error")
		c.logger.WarnContext(ctx, "exam cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.metrics.IncCacheLookup("error")
		return false
	}
	c.metrics.IncCacheLookup("hit")
	return true
}

func (c *CachedCatalog) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "exam cache write failed", "key", key, "error", err)
	}
}
