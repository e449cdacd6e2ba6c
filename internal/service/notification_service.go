package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-batch-api/internal/models"
	"github.com/noah-isme/course-batch-api/pkg/jobs"
	"github.com/noah-isme/course-batch-api/pkg/notify"
)

// NotificationJobType tags notification jobs on the shared queue.
const NotificationJobType = "batch_notification"

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type emailSender interface {
	Send(ctx context.Context, msg notify.Email) error
}

type smsSender interface {
	Send(ctx context.Context, to, body string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService tells students about waiting-list transitions over e-mail and SMS.
// Either channel may be absent.
type NotificationService struct {
	students studentReader
	courses  courseReader
	email    emailSender
	sms      smsSender
	queue    jobEnqueuer
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationService constructs NotificationService. Pass nil senders to disable a channel.
func NewNotificationService(students studentReader, courses courseReader, email emailSender, sms smsSender, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		students: students,
		courses:  courses,
		email:    email,
		sms:      sms,
		metrics:  metrics,
		logger:   logger,
	}
}

// UseQueue routes Notify through queue. Without a queue, delivery happens inline.
func (s *NotificationService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Notify schedules delivery of event. A nil service drops the event.
func (s *NotificationService) Notify(ctx context.Context, event models.NotificationEvent) error {
	if s == nil {
		return nil
	}
	if s.queue == nil {
		return s.Deliver(ctx, event)
	}
	if err := s.queue.Enqueue(jobs.Job{Type: NotificationJobType, Payload: event}); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// HandleJob is the queue handler for notification jobs.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	return s.Deliver(ctx, event)
}

// Deliver sends event on every configured channel the student has contact data for.
func (s *NotificationService) Deliver(ctx context.Context, event models.NotificationEvent) error {
	student, err := s.students.FindByID(ctx, event.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("notification dropped, student not found", zap.String("student_id", event.StudentID))
			return nil
		}
		return fmt.Errorf("load student: %w", err)
	}

	subject, body := s.compose(ctx, event, student)
	var errs []error

	switch {
	case s.email == nil:
		s.logger.Debug("email channel not configured", zap.String("kind", string(event.Kind)))
	case student.Email == "":
		s.logger.Debug("student has no email", zap.String("student_id", student.ID))
	default:
		err := s.email.Send(ctx, notify.Email{ToAddress: student.Email, ToName: student.Name, Subject: subject, Text: body})
		s.metrics.RecordNotification("email", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	switch {
	case s.sms == nil:
		s.logger.Debug("sms channel not configured", zap.String("kind", string(event.Kind)))
	case student.Mobile == "":
		s.logger.Debug("student has no mobile number", zap.String("student_id", student.ID))
	default:
		err := s.sms.Send(ctx, student.Mobile, subject+". "+body)
		s.metrics.RecordNotification("sms", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *NotificationService) compose(ctx context.Context, event models.NotificationEvent, student *models.Student) (string, string) {
	courseName := event.CourseID
	if s.courses != nil {
		if course, err := s.courses.FindByID(ctx, event.CourseID); err == nil && course.Name != "" {
			courseName = course.Name
		}
	}
	schedule := fmt.Sprintf("%s, %s", event.Frequency.Label(), event.TimeSlot.Label())

	var subject, body string
	switch event.Kind {
	case models.NotificationWaitlisted:
		subject = "You are on the waiting list for " + courseName
		body = fmt.Sprintf("Hi %s, the %s batch (%s) is full. Your request is waiting for approval.", student.Name, courseName, schedule)
	case models.NotificationApproved:
		subject = "Your seat in " + courseName + " is confirmed"
		body = fmt.Sprintf("Hi %s, you have been added to the %s batch (%s).", student.Name, courseName, schedule)
	case models.NotificationDisapproved:
		subject = "Your waiting list request for " + courseName + " was declined"
		body = fmt.Sprintf("Hi %s, your request for the %s batch (%s) was not approved.", student.Name, courseName, schedule)
	default:
		subject = "Update on " + courseName
		body = fmt.Sprintf("Hi %s, there is an update on your %s batch (%s).", student.Name, courseName, schedule)
	}
	if reason := strings.TrimSpace(event.Reason); reason != "" {
		body += " Reason: " + reason
	}
	return subject, body
}
