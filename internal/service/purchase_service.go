package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"portal/internal/access"
	"portal/internal/model"
	"portal/internal/repository"
	"portal/pkg/money"
)

// ErrInsufficientRank is returned when the caller's rank does not cover the operation.
var ErrInsufficientRank = errors.New("insufficient rank for this operation")

// List filters accepted by List.
const (
	FilterMine   = "my"
	FilterAdmin  = "admin"
	FilterMentor = "mentor"
	FilterAll    = ""
)

// --- DTOs ---

// PurchaseResponse is a purchase request annotated with its freshly computed total.
type PurchaseResponse struct {
	model.PurchaseRequest
	TotalCost string `json:"total_cost"`
}

// DecisionRequest carries an approver's verdict on a purchase request.
type DecisionRequest struct {
	Comments          string
	ExpectedUpdatedAt *int64
	MentorOverride    bool
}

// PurchaseNotifier is told about committed transitions. Calls must not block.
type PurchaseNotifier interface {
	PurchaseCreated(p model.PurchaseRequest)
	PurchaseEdited(p model.PurchaseRequest)
	RoutedToMentor(p model.PurchaseRequest)
	FinalApproved(p model.PurchaseRequest)
}

// EventPublisher fans committed transitions out to live list pages.
type EventPublisher interface {
	Publish(v interface{})
}

// PurchaseEvent is the live-update payload for a transition.
type PurchaseEvent struct {
	Type       string `json:"type"`
	PurchaseID int64  `json:"purchase_id"`
	Approval   int    `json:"approval"`
	UpdatedAt  int64  `json:"updated_at"`
}

// --- Interface ---

type PurchaseService interface {
	Create(ctx context.Context, actor access.Identity, form PurchaseForm) (*model.PurchaseRequest, error)
	Get(ctx context.Context, purchaseID int64) (*model.PurchaseRequest, error)
	Edit(ctx context.Context, actor access.Identity, purchaseID int64, form PurchaseForm) (*model.PurchaseRequest, error)
	Approve(ctx context.Context, actor access.Identity, purchaseID int64, req DecisionRequest) (*model.PurchaseRequest, error)
	Reject(ctx context.Context, actor access.Identity, purchaseID int64, req DecisionRequest) (*model.PurchaseRequest, error)
	List(ctx context.Context, actor access.Identity, filter string) ([]PurchaseResponse, error)
	CanEdit(actor access.Identity, p *model.PurchaseRequest) bool
}

type purchaseService struct {
	repo     repository.PurchaseRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	ranks    access.Ranks
	notifier PurchaseNotifier
	events   EventPublisher
	now      func() time.Time
}

func NewPurchaseService(
	repo repository.PurchaseRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	ranks access.Ranks,
	notifier PurchaseNotifier,
	events EventPublisher,
) PurchaseService {
	return &purchaseService{
		repo:     repo,
		audit:    audit,
		tx:       tx,
		ranks:    ranks,
		notifier: notifier,
		events:   events,
		now:      time.Now,
	}
}

// ListRequirement is the clearance needed to see a list bucket.
func ListRequirement(filter string) access.Requirement {
	switch filter {
	case FilterMine:
		return access.RequireWhitelist
	case FilterMentor:
		return access.RequireMentor
	default:
		return access.RequireAdmin
	}
}

// --- Implementation ---

func (s *purchaseService) Create(ctx context.Context, actor access.Identity, form PurchaseForm) (*model.PurchaseRequest, error) {
	if !s.ranks.Allows(actor.Rank, access.RequireWhitelist) {
		return nil, ErrInsufficientRank
	}

	purchase := model.PurchaseRequest{
		PurchaseDetails: form.Details(),
		SubmittedBy:     actor.Email,
		CreatedAt:       s.now(),
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &purchase); err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, model.ActionCreatePurchase, purchase.PurchaseID, map[string]interface{}{
			"to":         purchase.Approval,
			"line_items": purchase.LineCount(),
			"total":      money.Format(purchase.TotalCost()),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.PurchaseCreated(purchase)
	s.publish("created", &purchase)
	return &purchase, nil
}

func (s *purchaseService) Get(ctx context.Context, purchaseID int64) (*model.PurchaseRequest, error) {
	return s.repo.FindByPurchaseID(ctx, purchaseID)
}

// CanEdit reports whether actor owns p and p has not reached the terminal state.
func (s *purchaseService) CanEdit(actor access.Identity, p *model.PurchaseRequest) bool {
	return actor.Is(p.SubmittedBy) && !p.Locked()
}

// Edit replaces the submitter-controlled fields and sends the request back to
// the start of the approval queue.
func (s *purchaseService) Edit(ctx context.Context, actor access.Identity, purchaseID int64, form PurchaseForm) (*model.PurchaseRequest, error) {
	if !s.ranks.Allows(actor.Rank, access.RequireWhitelist) {
		return nil, ErrInsufficientRank
	}

	details := form.Details()
	pending := model.ApprovalPending
	changes := model.PurchaseChanges{Details: &details, Approval: &pending}
	guard := repository.UpdateGuard{
		ExpectedUpdatedAt: form.ExpectedUpdatedAt,
		Owner:             actor.Email,
		Unlocked:          true,
	}

	var updated *model.PurchaseRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.repo.UpdateByPurchaseID(txCtx, purchaseID, changes, guard)
		if err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, model.ActionEditPurchase, purchaseID, map[string]interface{}{
			"to":         pending,
			"line_items": details.LineCount(),
			"total":      money.Format(updated.TotalCost()),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.PurchaseEdited(*updated)
	s.publish("edited", updated)
	return updated, nil
}

func (s *purchaseService) Approve(ctx context.Context, actor access.Identity, purchaseID int64, req DecisionRequest) (*model.PurchaseRequest, error) {
	return s.decide(ctx, actor, purchaseID, req, true)
}

func (s *purchaseService) Reject(ctx context.Context, actor access.Identity, purchaseID int64, req DecisionRequest) (*model.PurchaseRequest, error) {
	return s.decide(ctx, actor, purchaseID, req, false)
}

// decide moves a request to the next state for the approver's effective role.
// The state write is conditional on the caller's concurrency token and on the
// request not being final-approved; nothing is sent when it does not apply.
func (s *purchaseService) decide(ctx context.Context, actor access.Identity, purchaseID int64, req DecisionRequest, approve bool) (*model.PurchaseRequest, error) {
	if !s.ranks.Allows(actor.Rank, access.RequireApprover) {
		return nil, ErrInsufficientRank
	}

	asMentor := s.ranks.ActsAsMentor(actor.Rank, req.MentorOverride)
	stamp := &model.Stamp{Comments: req.Comments, Username: actor.Email, At: s.now()}

	var next int
	changes := model.PurchaseChanges{Approval: &next}
	switch {
	case asMentor && approve:
		next, changes.Mentor = model.ApprovalMentorApproved, stamp
	case asMentor:
		next, changes.Mentor = model.ApprovalMentorRejected, stamp
	case approve:
		next, changes.Admin = model.ApprovalAdminApproved, stamp
	default:
		next, changes.Admin = model.ApprovalAdminRejected, stamp
	}

	action := model.ActionRejectPurchase
	if approve {
		action = model.ActionApprovePurchase
	}
	guard := repository.UpdateGuard{ExpectedUpdatedAt: req.ExpectedUpdatedAt, Unlocked: true}

	var updated *model.PurchaseRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.repo.UpdateByPurchaseID(txCtx, purchaseID, changes, guard)
		if err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, action, purchaseID, map[string]interface{}{
			"to":        next,
			"as_mentor": asMentor,
			"comments":  req.Comments,
		})
	})
	if err != nil {
		return nil, err
	}

	switch next {
	case model.ApprovalAdminApproved:
		s.notifier.RoutedToMentor(*updated)
	case model.ApprovalMentorApproved:
		s.notifier.FinalApproved(*updated)
	}
	if approve {
		s.publish("approved", updated)
	} else {
		s.publish("rejected", updated)
	}
	return updated, nil
}

func (s *purchaseService) List(ctx context.Context, actor access.Identity, filter string) ([]PurchaseResponse, error) {
	if !s.ranks.Allows(actor.Rank, ListRequirement(filter)) {
		return nil, ErrInsufficientRank
	}

	var f repository.PurchaseFilter
	switch filter {
	case FilterMine:
		f.SubmittedBy = actor.Email
	case FilterAdmin:
		f.Approvals = []int{model.ApprovalPending, model.ApprovalMentorRejected}
	case FilterMentor:
		f.Approvals = []int{model.ApprovalAdminApproved}
	}

	purchases, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	result := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		result = append(result, toPurchaseResponse(p))
	}
	return result, nil
}

// --- Helpers ---

func (s *purchaseService) writeAudit(ctx context.Context, actor access.Identity, action string, purchaseID int64, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		PurchaseID: purchaseID,
		Actor:      actor.Email,
		Action:     action,
		Details:    string(payload),
		CreatedAt:  s.now(),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *purchaseService) publish(kind string, p *model.PurchaseRequest) {
	if s.events == nil {
		return
	}
	s.events.Publish(PurchaseEvent{
		Type:       kind,
		PurchaseID: p.PurchaseID,
		Approval:   p.Approval,
		UpdatedAt:  p.UpdatedAt,
	})
	log.Printf("purchase #%d %s (approval=%d)", p.PurchaseID, kind, p.Approval)
}

func toPurchaseResponse(p model.PurchaseRequest) PurchaseResponse {
	return PurchaseResponse{
		PurchaseRequest: p,
		TotalCost:       money.Format(p.TotalCost()),
	}
}
