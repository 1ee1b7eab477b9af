package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/go-form-dispatch/internal/domain"
	"github.com/go-form-dispatch/internal/infrastructure/smtp"
	"github.com/go-form-dispatch/internal/pkg/id"
	"github.com/go-form-dispatch/internal/pkg/metrics"
	pkgtoken "github.com/go-form-dispatch/internal/pkg/token"
	"github.com/go-form-dispatch/internal/pkg/validate"
)

// IssueCodeRequest asks for a code guarding Action on behalf of Email.
type IssueCodeRequest struct {
	Email  string
	Action domain.ActionPayload
}

type IssueCodeResult struct {
	CodeID      string             `json:"code_id"`
	ExpiresAt   time.Time          `json:"expires_at"`
	EmailStatus domain.EmailStatus `json:"email_status"`
}

type ValidateCodeResult struct {
	CodeID     string               `json:"code_id"`
	Email      string               `json:"email"`
	ActionType domain.ActionType    `json:"action_type"`
	Action     domain.ActionPayload `json:"action_data"`
}

// Service is the verification gate. It never performs the guarded action;
// callers commit it after a successful ValidateCode.
type Service interface {
	IssueCode(ctx context.Context, settings domain.Settings, req IssueCodeRequest) (*IssueCodeResult, error)
	ValidateCode(ctx context.Context, codeID, submitted string) (*ValidateCodeResult, error)
}

type codeStore interface {
	Insert(ctx context.Context, v *domain.VerificationCode) error
	Get(ctx context.Context, codeID string) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, codeID string, at time.Time) error
}

type mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

type ServiceDeps struct {
	Codes        codeStore
	Mailer       mailer
	TTL          time.Duration
	EmailTimeout time.Duration
	Clock        func() time.Time
}

type service struct {
	codes        codeStore
	mailer       mailer
	ttl          time.Duration
	emailTimeout time.Duration
	clock        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codes:        deps.Codes,
		mailer:       deps.Mailer,
		ttl:          deps.TTL,
		emailTimeout: deps.EmailTimeout,
		clock:        deps.Clock,
	}
	if s.ttl <= 0 {
		s.ttl = 15 * time.Minute
	}
	if s.emailTimeout <= 0 {
		s.emailTimeout = 20 * time.Second
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

func (s *service) IssueCode(ctx context.Context, settings domain.Settings, req IssueCodeRequest) (*IssueCodeResult, error) {
	email, err := validate.NormalizeEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	if req.Action == nil {
		return nil, fmt.Errorf("action is required: %w", domain.ErrInvalidInput)
	}
	if !req.Action.ActionType().Valid() {
		return nil, fmt.Errorf("unknown action type %q: %w", req.Action.ActionType(), domain.ErrInvalidInput)
	}
	if err := validate.Struct(req.Action); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	code, err := pkgtoken.NewNumericCode(settings.CodeLength())
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	v := &domain.VerificationCode{
		CodeID:     id.New(),
		Email:      email,
		Code:       code,
		ActionType: req.Action.ActionType(),
		Action:     req.Action,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.codes.Insert(ctx, v); err != nil {
		metrics.RecordVerification("issue", "storage_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	// The code stays valid whether or not the email leaves; the caller learns
	// which through EmailStatus.
	status := domain.EmailSent
	if err := s.sendCode(ctx, v); err != nil {
		status = domain.EmailFailed
		slog.Warn("verification email not sent", "code_id", v.CodeID, "action_type", v.ActionType, "err", err)
	}
	metrics.RecordVerification("issue", "ok")
	slog.Info("verification code issued", "code_id", v.CodeID, "action_type", v.ActionType, "email_status", status)

	return &IssueCodeResult{CodeID: v.CodeID, ExpiresAt: v.ExpiresAt, EmailStatus: status}, nil
}

func (s *service) sendCode(ctx context.Context, v *domain.VerificationCode) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	defer cancel()
	start := time.Now()
	err := s.mailer.Send(sendCtx, codeMessage(v, s.ttl))
	metrics.RecordEmailSend("code", err, time.Since(start))
	return err
}

func codeMessage(v *domain.VerificationCode, ttl time.Duration) smtp.Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	what := describeAction(v)
	text := fmt.Sprintf("Your verification code is %s.\n\nEnter it to confirm your %s. It expires in %d minutes and can be used once.\n\nIf you did not request this, ignore this email.\n",
		v.Code, what, minutes)
	htmlBody := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>Enter it to confirm your %s. It expires in %d minutes and can be used once.</p><p>If you did not request this, ignore this email.</p>",
		v.Code, html.EscapeString(what), minutes)
	return smtp.Message{
		To:       v.Email,
		Subject:  "Your verification code: " + v.Code,
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

func (s *service) ValidateCode(ctx context.Context, codeID, submitted string) (*ValidateCodeResult, error) {
	codeID = strings.TrimSpace(codeID)
	if codeID == "" {
		return nil, fmt.Errorf("code id is required: %w", domain.ErrInvalidInput)
	}
	v, err := s.codes.Get(ctx, codeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordVerification("validate", "not_found")
			return nil, fmt.Errorf("verification code %s: %w", codeID, domain.ErrNotFound)
		}
		metrics.RecordVerification("validate", "storage_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	now := s.clock().UTC()
	switch {
	case v.ExpiredAt(now):
		metrics.RecordVerification("validate", "expired")
		return nil, fmt.Errorf("verification code %s expired at %s: %w", codeID, v.ExpiresAt.Format(time.RFC3339), domain.ErrExpired)
	case v.Used():
		metrics.RecordVerification("validate", "used")
		return nil, fmt.Errorf("verification code %s: %w", codeID, domain.ErrAlreadyUsed)
	case subtle.ConstantTimeCompare([]byte(strings.TrimSpace(submitted)), []byte(v.Code)) != 1:
		metrics.RecordVerification("validate", "mismatch")
		return nil, fmt.Errorf("verification code %s: %w", codeID, domain.ErrMismatch)
	}

	if err := s.codes.MarkUsed(ctx, codeID, now); err != nil {
		if errors.Is(err, domain.ErrAlreadyUsed) {
			metrics.RecordVerification("validate", "used")
			return nil, fmt.Errorf("verification code %s: %w", codeID, domain.ErrAlreadyUsed)
		}
		metrics.RecordVerification("validate", "storage_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	metrics.RecordVerification("validate", "ok")
	slog.Info("verification code consumed", "code_id", codeID, "action_type", v.ActionType)

	return &ValidateCodeResult{
		CodeID:     v.CodeID,
		Email:      v.Email,
		ActionType: v.ActionType,
		Action:     v.Action,
	}, nil
}
