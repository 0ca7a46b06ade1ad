package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/metrics"
	"github.com/Spok95/tutor-platform/internal/models"
)

// ErrWeeklyCapExceeded: занятие не помещается в недельный лимит учителя.
var ErrWeeklyCapExceeded = errors.New("exceeds max weekly hours")

// CapError несёт расчёт, по которому занятие отклонено.
type CapError struct {
	Result          Result
	MaxHoursPerWeek float64
}

func (e *CapError) Error() string {
	return fmt.Sprintf("%s: projected %.2fh, max %.2fh", ErrWeeklyCapExceeded, e.Result.ProjectedHours, e.MaxHoursPerWeek)
}

func (e *CapError) Is(target error) bool { return target == ErrWeeklyCapExceeded }

// Tx: чтение недели и вставка под эксклюзивной блокировкой учителя.
type Tx interface {
	ClassesBetween(ctx context.Context, teacherID int64, from, to time.Time) ([]models.ScheduledClass, error)
	Insert(ctx context.Context, c models.ScheduledClass) (models.ScheduledClass, error)
}

type Filter struct {
	TeacherID *int64
	StudentID *int64
	From, To  time.Time
	Limit     int
}

type Store interface {
	// InTeacherTx выполняет fn, пока никто другой не ставит занятия этому учителю.
	// Ошибка fn откатывает вставку.
	InTeacherTx(ctx context.Context, teacherID int64, fn func(Tx) error) error
	ClassesBetween(ctx context.Context, teacherID int64, from, to time.Time) ([]models.ScheduledClass, error)
	List(ctx context.Context, f Filter) ([]models.ScheduledClass, error)
	Get(ctx context.Context, id int64) (models.ScheduledClass, error)
	Delete(ctx context.Context, id int64) error
}

type Users interface {
	Get(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
}

// Notifier: доставка уведомлений пользователю в Telegram.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, kind, text string) error
}

type Service struct {
	store     Store
	users     Users
	notifier  Notifier
	validator Validator
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store Store, users Users, notifier Notifier, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		users:     users,
		notifier:  notifier,
		validator: Validator{Location: loc},
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.validator.Location }

type NewClass struct {
	TeacherID       int64
	StudentID       *int64
	Title           string
	StartsAt        time.Time
	DurationMinutes int
}

// Schedule ставит занятие, если после него нагрузка учителя за ISO-неделю начала занятия
// не превысит лимит. Проверка и вставка идут под одной блокировкой учителя,
// поэтому параллельные запросы не могут вместе пробить лимит.
func (s *Service) Schedule(ctx context.Context, nc NewClass) (models.ScheduledClass, Result, error) {
	cand := Candidate{StartsAt: nc.StartsAt, DurationMinutes: nc.DurationMinutes}
	if cand.DurationMinutes <= 0 || cand.StartsAt.IsZero() {
		// та же ошибка, что и у валидатора, но до похода в хранилище
		_, err := s.validator.Validate(nil, nil, cand)
		return models.ScheduledClass{}, Result{}, err
	}

	teacher, err := s.users.Get(ctx, nc.TeacherID)
	if err != nil {
		return models.ScheduledClass{}, Result{}, err
	}
	if teacher.Role != models.Teacher {
		return models.ScheduledClass{}, Result{}, apperr.Wrap(apperr.ErrInvalidInput, "user %d is not a teacher", teacher.ID)
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		if err := sess.CanManage(teacher); err != nil {
			return models.ScheduledClass{}, Result{}, err
		}
	}
	var student models.User
	if nc.StudentID != nil {
		if student, err = s.users.Get(ctx, *nc.StudentID); err != nil {
			return models.ScheduledClass{}, Result{}, err
		}
		if student.Role != models.Student {
			return models.ScheduledClass{}, Result{}, apperr.Wrap(apperr.ErrInvalidInput, "user %d is not a student", student.ID)
		}
	}

	from, to := WeekBounds(cand.StartsAt, s.validator.Location)
	var (
		created models.ScheduledClass
		res     Result
	)
	err = s.store.InTeacherTx(ctx, teacher.ID, func(tx Tx) error {
		existing, err := tx.ClassesBetween(ctx, teacher.ID, from, to)
		if err != nil {
			return err
		}
		res, err = s.validator.Validate(teacher.MaxHoursPerWeek, existing, cand)
		if err != nil {
			return err
		}
		if !res.Allowed {
			return &CapError{Result: res, MaxHoursPerWeek: *teacher.MaxHoursPerWeek}
		}
		created, err = tx.Insert(ctx, models.ScheduledClass{
			TeacherID:       teacher.ID,
			StudentID:       nc.StudentID,
			Title:           strings.TrimSpace(nc.Title),
			StartsAt:        cand.StartsAt.UTC(),
			DurationMinutes: cand.DurationMinutes,
			CreatedBy:       ctxutil.ActorID(ctx),
		})
		return err
	})
	switch {
	case errors.Is(err, ErrWeeklyCapExceeded):
		metrics.ScheduleDecisions.WithLabelValues("rejected").Inc()
		s.log.Info("class rejected: weekly cap",
			zap.Int64("teacher_id", teacher.ID),
			zap.Float64("projected_hours", res.ProjectedHours),
			zap.Float64p("max_hours", teacher.MaxHoursPerWeek),
		)
		return models.ScheduledClass{}, res, err
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		metrics.ScheduleDecisions.WithLabelValues("conflict").Inc()
		return models.ScheduledClass{}, Result{}, err
	case err != nil:
		return models.ScheduledClass{}, Result{}, err
	}

	metrics.ScheduleDecisions.WithLabelValues("allowed").Inc()
	s.log.Info("class scheduled",
		zap.Int64("class_id", created.ID),
		zap.Int64("teacher_id", teacher.ID),
		zap.Time("starts_at", created.StartsAt),
		zap.Int("minutes", created.DurationMinutes),
		zap.Float64("week_hours", res.ProjectedHours),
	)
	s.notifyScheduled(ctx, teacher, created)
	if nc.StudentID != nil {
		s.notifyScheduled(ctx, student, created)
	}
	return created, res, nil
}

func (s *Service) notifyScheduled(ctx context.Context, u models.User, c models.ScheduledClass) {
	if s.notifier == nil || u.TelegramID == 0 {
		return
	}
	start := c.StartsAt.In(s.validator.Location)
	text := fmt.Sprintf("📅 Новое занятие: %s, %d мин.", start.Format("02.01.2006 15:04"), c.DurationMinutes)
	if c.Title != "" {
		text += "\n" + c.Title
	}
	if err := s.notifier.Notify(ctx, u.TelegramID, "class_scheduled", text); err != nil {
		s.log.Warn("class notification failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
}

// List: без фильтра по учителю или ученику доступно только администратору.
func (s *Service) List(ctx context.Context, f Filter) ([]models.ScheduledClass, error) {
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, apperr.Wrap(apperr.ErrInvalidRange, "from must be before to")
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		if f.TeacherID == nil && f.StudentID == nil && !sess.IsAdmin() {
			return nil, apperr.Wrap(apperr.ErrForbidden, "teacherId or studentId is required")
		}
		for _, id := range []*int64{f.TeacherID, f.StudentID} {
			if id == nil {
				continue
			}
			u, err := s.users.Get(ctx, *id)
			if err != nil {
				return nil, err
			}
			if err := sess.CanView(u); err != nil {
				return nil, err
			}
		}
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}
	return s.store.List(ctx, f)
}

func (s *Service) Cancel(ctx context.Context, id int64) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		teacher, err := s.users.Get(ctx, c.TeacherID)
		if err != nil {
			return err
		}
		if err := sess.CanManage(teacher); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("class cancelled", zap.Int64("class_id", id), zap.Int64("teacher_id", c.TeacherID))
	return nil
}

// TeacherLoad: нагрузка учителя за неделю.
type TeacherLoad struct {
	TeacherID       int64     `json:"teacherId"`
	TeacherName     string    `json:"teacherName"`
	WeekStart       time.Time `json:"weekStart"`
	WeekEnd         time.Time `json:"weekEnd"`
	Classes         int       `json:"classes"`
	CurrentHours    float64   `json:"currentHours"`
	MaxHoursPerWeek *float64  `json:"maxHoursPerWeek"`
	OverCap         bool      `json:"overCap"`
}

func (s *Service) WeeklyLoad(ctx context.Context, teacherID int64, at time.Time) (TeacherLoad, error) {
	teacher, err := s.users.Get(ctx, teacherID)
	if err != nil {
		return TeacherLoad{}, err
	}
	if teacher.Role != models.Teacher {
		return TeacherLoad{}, apperr.Wrap(apperr.ErrInvalidInput, "user %d is not a teacher", teacherID)
	}
	if sess, ok := ctxutil.Session(ctx); ok {
		if err := sess.CanView(teacher); err != nil {
			return TeacherLoad{}, err
		}
	}
	return s.load(ctx, teacher, at)
}

// TeacherLoads: нагрузка всех учителей, доступных сессии (для выгрузки).
func (s *Service) TeacherLoads(ctx context.Context, at time.Time) ([]TeacherLoad, error) {
	sess, hasSess := ctxutil.Session(ctx)
	if hasSess {
		if err := sess.CanExportLoad(); err != nil {
			return nil, err
		}
	}
	teachers, err := s.users.List(ctx, models.Teacher)
	if err != nil {
		return nil, err
	}
	out := make([]TeacherLoad, 0, len(teachers))
	for _, t := range teachers {
		if hasSess && sess.CanManage(t) != nil {
			continue
		}
		l, err := s.load(ctx, t, at)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, teacher models.User, at time.Time) (TeacherLoad, error) {
	if at.IsZero() {
		at = s.now()
	}
	from, to := WeekBounds(at, s.validator.Location)
	classes, err := s.store.ClassesBetween(ctx, teacher.ID, from, to)
	if err != nil {
		return TeacherLoad{}, err
	}
	minutes := weekMinutes(classes, from, to)
	l := TeacherLoad{
		TeacherID:       teacher.ID,
		TeacherName:     teacher.Name,
		WeekStart:       from,
		WeekEnd:         to,
		Classes:         len(classes),
		CurrentHours:    minutesToHours(minutes),
		MaxHoursPerWeek: teacher.MaxHoursPerWeek,
	}
	if l.MaxHoursPerWeek != nil {
		l.OverCap = !withinCap(minutes, *l.MaxHoursPerWeek)
	}
	return l, nil
}
