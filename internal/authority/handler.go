package authority

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-logic-doorlock/internal/actuator"
	"github.com/nerrad567/gray-logic-doorlock/internal/credential"
	"github.com/nerrad567/gray-logic-doorlock/internal/events"
	"github.com/nerrad567/gray-logic-doorlock/internal/link"
	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

// handler adapts Server to protocol.CommandHandler.
type handler struct{ s *Server }

var _ protocol.CommandHandler = handler{}

// Rejection reasons carried on credential_rejected events.
const (
	reasonMismatch      = "mismatch"
	reasonUninitialized = "uninitialized"
	reasonLockedOut     = "locked_out"
	reasonStorage       = "storage_error"
	reasonInitialized   = "already_initialized"
	reasonInvalid       = "invalid_digits"
)

func (h handler) CheckInit(ctx context.Context) error {
	s := h.s
	ok, err := s.store.Initialized(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Report initialized so the front end never offers creation on top
		// of a store it cannot read.
		s.logger.Error("reading init marker", "error", err)
		s.setStorage(false, false)
		return s.link.SendFlag(ctx, true)
	}
	s.setStorage(ok, true)
	s.logger.Debug("check init", "initialized", ok)
	return s.link.SendFlag(ctx, ok)
}

func (h handler) CreatePassword(ctx context.Context) error {
	s := h.s
	a, err := s.link.ReceiveCredential(ctx)
	if err != nil {
		return err
	}
	b, err := s.link.ReceiveCredential(ctx)
	if err != nil {
		return err
	}

	reject := func(reason string) error {
		s.publish(ctx, events.CredentialCreateRejected, withReason(reason))
		return s.link.SendResponse(ctx, protocol.ResponseError)
	}

	if !a.Equal(b) {
		s.logger.Info("credential creation rejected", "reason", reasonMismatch)
		return reject(reasonMismatch)
	}

	// The record is created once and a second CreatePassword gets Error, even
	// where deployed controllers would overwrite. Later changes go through
	// ChangePassword.
	initialized, err := s.store.Initialized(ctx)
	if err != nil {
		s.logger.Error("reading init marker", "error", err)
		s.setStorage(false, false)
		return reject(reasonStorage)
	}
	if initialized {
		s.logger.Warn("credential creation rejected", "reason", reasonInitialized)
		return reject(reasonInitialized)
	}

	if err := s.store.Save(ctx, a); err != nil {
		if errors.Is(err, protocol.ErrInvalidCredential) {
			s.logger.Warn("credential creation rejected", "reason", reasonInvalid)
			return reject(reasonInvalid)
		}
		s.logger.Error("saving credential", "error", err)
		s.setStorage(false, false)
		return reject(reasonStorage)
	}
	s.setStorage(true, true)
	s.logger.Info("credential created")
	s.publish(ctx, events.CredentialCreated)
	return s.link.SendResponse(ctx, protocol.ResponseOK)
}

func (h handler) OpenDoor(ctx context.Context) error {
	s := h.s
	a, err := s.link.ReceiveCredential(ctx)
	if err != nil {
		return err
	}

	accepted := s.verify(ctx, a)
	if err := s.sendVerdict(ctx, accepted); err != nil {
		return err
	}
	if !accepted {
		return nil
	}

	s.logger.Info("door unlocked")
	s.publish(ctx, events.DoorUnlocked)
	return s.cycleDoor(ctx)
}

func (h handler) ChangePassword(ctx context.Context) error {
	s := h.s
	a, err := s.link.ReceiveCredential(ctx)
	if err != nil {
		return err
	}

	accepted := s.verify(ctx, a)
	if err := s.sendVerdict(ctx, accepted); err != nil {
		return err
	}
	if !accepted {
		return nil
	}

	// The new credential is typed after Ok arrives, so its first digit waits
	// on the user.
	b, err := s.link.ReceiveCredential(link.WithoutTimeout(ctx))
	if err != nil {
		return err
	}
	c, err := s.link.ReceiveCredential(ctx)
	if err != nil {
		return err
	}

	if !b.Equal(c) {
		s.logger.Info("credential change rejected", "reason", reasonMismatch)
		s.publish(ctx, events.CredentialChangeRejected, withReason(reasonMismatch))
		return s.link.SendResponse(ctx, protocol.ResponseError)
	}
	if err := s.store.Save(ctx, b); err != nil {
		reason := reasonInvalid
		if !errors.Is(err, protocol.ErrInvalidCredential) {
			reason = reasonStorage
			s.setStorage(true, false)
		}
		s.logger.Error("saving credential", "reason", reason, "error", err)
		s.publish(ctx, events.CredentialChangeRejected, withReason(reason))
		return s.link.SendResponse(ctx, protocol.ResponseError)
	}

	s.logger.Info("credential changed")
	s.publish(ctx, events.CredentialChanged)
	return s.link.SendResponse(ctx, protocol.ResponseOK)
}

func (h handler) LockSystem(ctx context.Context) error {
	s := h.s
	s.logger.Warn("lockout started", "attempts", s.attempts.Count(), "duration", s.cfg.LockoutDuration)
	s.publish(ctx, events.LockoutStarted)

	if err := actuator.Sound(ctx, s.alarm, s.clock, s.cfg.LockoutDuration); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("sounding alarm", "error", err)
	}

	s.attempts.Reset()
	s.logger.Info("lockout ended")
	s.publish(ctx, events.LockoutEnded)

	if !s.cfg.Mode.ReportsCount() {
		return nil
	}
	if err := s.link.SendResponse(ctx, protocol.ResponseOK); err != nil {
		return err
	}
	return s.link.SendCount(ctx, s.attempts.Count())
}

// verify compares a against the stored credential. Rejections count against
// the attempt limit unless the store could not be read.
func (s *Server) verify(ctx context.Context, a protocol.Credential) bool {
	if s.cfg.Mode.ReportsCount() && s.attempts.Exhausted() {
		s.logger.Warn("credential refused while locked out")
		s.publish(ctx, events.CredentialRejected, withReason(reasonLockedOut))
		return false
	}

	stored, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, credential.ErrUninitialized):
		s.setStorage(false, true)
		s.reject(ctx, reasonUninitialized)
		return false
	case err != nil:
		s.logger.Error("loading credential", "error", err)
		s.setStorage(false, false)
		s.publish(ctx, events.CredentialRejected, withReason(reasonStorage))
		return false
	}
	s.setStorage(true, true)

	if !a.Equal(stored) {
		s.reject(ctx, reasonMismatch)
		return false
	}
	return true
}

func (s *Server) reject(ctx context.Context, reason string) {
	exhausted := s.attempts.Fail()
	s.logger.Info("credential rejected",
		"reason", reason,
		"attempts", s.attempts.Count(),
		"remaining", s.attempts.Remaining(),
		"exhausted", exhausted,
	)
	s.publish(ctx, events.CredentialRejected, withReason(reason))
}

// sendVerdict replies to a verification and, when the mode calls for it,
// follows with the attempt count.
func (s *Server) sendVerdict(ctx context.Context, accepted bool) error {
	if err := s.link.SendResponse(ctx, protocol.Verdict(accepted)); err != nil {
		return err
	}
	if s.cfg.Mode.ReportsCount() {
		return s.link.SendCount(ctx, s.attempts.Count())
	}
	return nil
}

// cycleDoor runs the sequencer, forwarding motion reports to the front end.
// Hardware faults are logged and leave the server running; link failures and
// cancellation are returned.
func (s *Server) cycleDoor(ctx context.Context) error {
	var linkErr error
	report := func(ctx context.Context, r protocol.Response) error {
		switch r {
		case protocol.ResponsePIRDetected:
			s.publish(ctx, events.MotionDetected)
		case protocol.ResponsePIRNotDetected:
			s.publish(ctx, events.MotionCleared)
		}
		if err := s.link.SendResponse(ctx, r); err != nil {
			linkErr = err
			return err
		}
		return nil
	}

	res, err := s.sequencer.Run(ctx, report)
	switch {
	case linkErr != nil:
		return linkErr
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		s.logger.Error("door cycle failed", "error", err)
		return nil
	}

	s.logger.Info("door locked", "motion", res.MotionDetected, "held", res.Held)
	s.publish(ctx, events.DoorLocked, func(e *events.Event) {
		e.HoldMS = res.Held.Milliseconds()
	})
	return nil
}

func withReason(reason string) func(*events.Event) {
	return func(e *events.Event) { e.Reason = reason }
}
