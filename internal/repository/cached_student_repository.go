package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/student-admin-service/internal/domain"
)

const studentCachePrefix = "student:"

// cachedStudent is the JSON shape stored in Redis.
type cachedStudent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Course    string    `json:"course"`
	Marks     *float64  `json:"marks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedStudentRepository keeps single-student reads in Redis and evicts on every write.
// Redis failures fall back to the wrapped repository.
type CachedStudentRepository struct {
	next   StudentRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStudentRepository wraps next with a read-through cache.
func NewCachedStudentRepository(next StudentRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedStudentRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStudentRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedStudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	return r.next.List(ctx)
}

func (r *CachedStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	key := studentCachePrefix + id
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cachedStudent
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			return entry.toDomain(), nil
		}
		r.logger.Warn("discarding corrupt student cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("student cache read failed", zap.String("key", key), zap.Error(err))
	}

	student, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, student)
	return student, nil
}

func (r *CachedStudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	return r.next.GetByEmail(ctx, email)
}

func (r *CachedStudentRepository) Create(ctx context.Context, student *domain.Student) error {
	return r.next.Create(ctx, student)
}

func (r *CachedStudentRepository) Update(ctx context.Context, student *domain.Student) error {
	if err := r.next.Update(ctx, student); err != nil {
		return err
	}
	r.evict(ctx, student.ID)
	return nil
}

func (r *CachedStudentRepository) UpdateMarks(ctx context.Context, id string, marks float64) (*domain.Student, error) {
	student, err := r.next.UpdateMarks(ctx, id, marks)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return student, nil
}

func (r *CachedStudentRepository) DeleteByEmail(ctx context.Context, email string) (*domain.Student, error) {
	student, err := r.next.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, student.ID)
	return student, nil
}

func (r *CachedStudentRepository) store(ctx context.Context, student *domain.Student) {
	payload, err := json.Marshal(fromDomain(student))
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, studentCachePrefix+student.ID, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("student cache write failed", zap.String("id", student.ID), zap.Error(err))
	}
}

func (r *CachedStudentRepository) evict(ctx context.Context, id string) {
	if err := r.client.Del(ctx, studentCachePrefix+id).Err(); err != nil {
		r.logger.Warn("student cache eviction failed", zap.String("id", id), zap.Error(err))
	}
}

func fromDomain(s *domain.Student) cachedStudent {
	return cachedStudent{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Course:    s.Course,
		Marks:     s.Marks,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (c cachedStudent) toDomain() *domain.Student {
	return &domain.Student{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Course:    c.Course,
		Marks:     c.Marks,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
