package service

import (
	"context"
	"io"
	"time"

	"kosgate/internal/cache"
	apperr "kosgate/internal/errors"
	"kosgate/internal/guard"
	"kosgate/internal/logger"
	"kosgate/internal/messaging"
	"kosgate/internal/metrics"
	"kosgate/internal/models"
	"kosgate/internal/projector"
	"kosgate/internal/upstream"
	"kosgate/internal/workflow"
)

// BookingService orchestrates the booking lifecycle: read-through cached
// reads, guarded creation, the extension and cancellation workflows, and
// explicit cache invalidation after every mutating call. Cache and
// messaging are optional collaborators; a nil client degrades to upstream
// reads and local-only invalidation.
type BookingService struct {
	upstream  *upstream.Client
	cache     *cache.Client
	nats      *messaging.Client
	projector *projector.Projector
}

func NewBookingService(up *upstream.Client, cacheClient *cache.Client, natsClient *messaging.Client) *BookingService {
	return &BookingService{
		upstream:  up,
		cache:     cacheClient,
		nats:      natsClient,
		projector: projector.New(),
	}
}

// List returns the tenant's projected bookings. Raw wire records are what
// gets cached; derived fields like RemainingDays depend on the current day
// and are recomputed on every projection.
func (s *BookingService) List(ctx context.Context, userID string) ([]models.Booking, error) {
	raw, err := s.rawBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.projector.Project(raw, time.Now())
}

func (s *BookingService) rawBookings(ctx context.Context, userID string) ([]models.WireBooking, error) {
	key := cache.BookingsKey(userID)

	if s.cache != nil {
		var cached []models.WireBooking
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.WithFields("user_id", userID).Warn("booking cache read failed", "error", err)
		}
		if hit {
			metrics.ObserveCache("bookings", "hit")
			return cached, nil
		}
		metrics.ObserveCache("bookings", "miss")
	}

	raw, err := s.upstream.FetchMyBookings(ctx)
	if err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			logger.WithFields("user_id", userID).Warn("booking cache write failed", "error", err)
		}
	}
	return raw, nil
}

// Create makes a new booking after the single-active-booking pre-check.
// The guard only saves a round-trip: when two tabs race past it, the backend
// rejects the second create with a conflict, surfaced verbatim.
func (s *BookingService) Create(ctx context.Context, userID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if decision := guard.CanCreateBooking(existing); !decision.Allowed {
		return nil, apperr.New(apperr.KindConflict, decision.Reason)
	}

	raw, err := s.upstream.CreateBooking(ctx, req.RoomID, req.StartDate, req.DurationMonths)
	if err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.publish(messaging.SubjectBookingCreated, raw.ID, userID)

	return s.projectOne(raw)
}

// CreateWithProof makes a booking and its initial payment in one multipart
// request, the flow the booking form uses.
func (s *BookingService) CreateWithProof(ctx context.Context, userID string, req *models.CreateBookingRequest, method models.PaymentMethod, paymentType models.PaymentType, proofName string, proof io.Reader) (*models.Booking, error) {
	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if decision := guard.CanCreateBooking(existing); !decision.Allowed {
		return nil, apperr.New(apperr.KindConflict, decision.Reason)
	}

	raw, err := s.upstream.CreateBookingWithProof(ctx, req.RoomID, req.StartDate, req.DurationMonths, method, paymentType, proofName, proof)
	if err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.publish(messaging.SubjectBookingCreated, raw.ID, userID)

	return s.projectOne(raw)
}

// Extend runs the extension workflow end to end for one request. The proof
// reader may be nil for cash. Read models are refreshed only on success;
// a partial failure (payment created, upload failed) leaves the pending
// payment to be re-surfaced as actionable on the next list.
func (s *BookingService) Extend(ctx context.Context, userID string, bookingID int64, req *models.ExtendBookingRequest, proofName string, proof io.Reader) (*models.WirePayment, error) {
	booking, err := s.find(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	ext, err := workflow.NewExtension(s.upstream, *booking)
	if err != nil {
		return nil, err
	}
	if err := ext.SelectMethod(req.Method); err != nil {
		return nil, err
	}
	if _, err := ext.SelectDuration(req.ExtraMonths); err != nil {
		return nil, err
	}
	if proof != nil {
		if err := ext.AttachProof(proofName, proof); err != nil {
			return nil, err
		}
	}

	if err := ext.Submit(ctx); err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		if ext.Payment() != nil {
			// The payment was created before the attempt failed, so the
			// backend read model changed. The request context may already be
			// cancelled (that is one of the ways to get here), and the cache
			// has no TTL, so the invalidation runs on its own context.
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.invalidate(cleanupCtx, userID)
		}
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.publish(messaging.SubjectBookingExtended, bookingID, userID)

	return ext.Payment(), nil
}

// PreviewExtension computes the display-only new end date, due date and
// cost for a candidate duration.
func (s *BookingService) PreviewExtension(ctx context.Context, userID string, bookingID int64, extraMonths int) (*workflow.Preview, error) {
	booking, err := s.find(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	ext, err := workflow.NewExtension(s.upstream, *booking)
	if err != nil {
		return nil, err
	}
	preview, err := ext.SelectDuration(extraMonths)
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// Cancel runs the cancellation workflow. The HTTP request is the tenant's
// explicit confirmation, so RequestCancel and Confirm happen back to back.
func (s *BookingService) Cancel(ctx context.Context, userID string, bookingID int64) error {
	booking, err := s.find(ctx, userID, bookingID)
	if err != nil {
		return err
	}

	cancel, err := workflow.NewCancellation(s.upstream, *booking)
	if err != nil {
		return err
	}
	if err := cancel.RequestCancel(); err != nil {
		return err
	}
	if err := cancel.Confirm(ctx); err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		return err
	}

	s.invalidate(ctx, userID)
	s.publish(messaging.SubjectBookingCancelled, bookingID, userID)
	return nil
}

// UploadProof attaches a proof to an existing actionable payment, the
// recovery path after a partially failed extension.
func (s *BookingService) UploadProof(ctx context.Context, userID string, paymentID int64, filename string, proof io.Reader) error {
	if err := s.upstream.UploadPaymentProof(ctx, paymentID, filename, proof); err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Reminders returns the tenant's payment reminders, read-through cached
// like the bookings.
func (s *BookingService) Reminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	key := cache.RemindersKey(userID)

	if s.cache != nil {
		var cached []models.WireReminder
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.WithFields("user_id", userID).Warn("reminder cache read failed", "error", err)
		}
		if hit {
			metrics.ObserveCache("reminders", "hit")
			return projector.ProjectReminders(cached)
		}
		metrics.ObserveCache("reminders", "miss")
	}

	raw, err := s.upstream.FetchReminders(ctx)
	if err != nil {
		metrics.ObserveUpstreamError(apperr.KindOf(err).String())
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			logger.WithFields("user_id", userID).Warn("reminder cache write failed", "error", err)
		}
	}
	return projector.ProjectReminders(raw)
}

// DropCachedUser invalidates the local cache for a user, the handler for
// peers' invalidation events.
func (s *BookingService) DropCachedUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		logger.WithFields("user_id", userID).Warn("cache invalidation failed", "error", err)
	}
}

func (s *BookingService) find(ctx context.Context, userID string, bookingID int64) (*models.Booking, error) {
	bookings, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == bookingID {
			return &bookings[i], nil
		}
	}
	return nil, apperr.New(apperr.KindValidation, "booking not found")
}

func (s *BookingService) projectOne(raw *models.WireBooking) (*models.Booking, error) {
	projected, err := s.projector.Project([]models.WireBooking{*raw}, time.Now())
	if err != nil {
		return nil, err
	}
	return &projected[0], nil
}

// invalidate drops the user's read models locally and tells peers to do the
// same. Failures are logged, never returned: the mutation itself succeeded.
func (s *BookingService) invalidate(ctx context.Context, userID string) {
	s.DropCachedUser(ctx, userID)
	if s.nats != nil {
		if err := s.nats.PublishInvalidation(userID); err != nil {
			logger.WithFields("user_id", userID).Error("failed to publish cache invalidation", "error", err)
		}
	}
}

func (s *BookingService) publish(subject string, bookingID int64, userID string) {
	if s.nats == nil {
		return
	}
	event := messaging.BookingEvent{
		BookingID: bookingID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if err := s.nats.Publish(subject, event); err != nil {
		logger.WithFields("booking_id", bookingID).Error("failed to publish booking event",
			"error", err, "subject", subject)
	}
}
