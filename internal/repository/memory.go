package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"portal/internal/model"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps purchases and audit rows in process memory. It backs the
// "memory" database driver for local runs and the service tests.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	purchases map[int64]model.PurchaseRequest
	auditLogs []model.AuditLog
	failWith  error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		purchases: make(map[int64]model.PurchaseRequest),
	}
}

// FailWith makes every subsequent call return err. Passing nil heals the store.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	b, ok := ctx.Value(memTxKey{}).(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RLock()
	}
}

func (m *MemoryStore) runlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *MemoryStore) wlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Lock()
	}
}

func (m *MemoryStore) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Unlock()
	}
}

// Purchases exposes the store through PurchaseRepository.
func (m *MemoryStore) Purchases() PurchaseRepository { return memoryPurchases{m} }

// Audit exposes the store through AuditRepository.
func (m *MemoryStore) Audit() AuditRepository { return memoryAudit{m} }

// Tx returns a TransactionManager that serialises units of work on the store lock.
func (m *MemoryStore) Tx() TransactionManager { return memoryTx{m} }

type memoryPurchases struct{ m *MemoryStore }

var _ PurchaseRepository = memoryPurchases{}

func (r memoryPurchases) Create(ctx context.Context, p *model.PurchaseRequest) error {
	r.m.wlock(ctx)
	defer r.m.wunlock(ctx)
	if r.m.failWith != nil {
		return r.m.failWith
	}
	if err := p.BeforeCreate(nil); err != nil {
		return err
	}
	p.PurchaseID = r.m.nextID
	r.m.nextID++
	p.Approval = model.ApprovalPending
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = nowMillis()
	r.m.purchases[p.PurchaseID] = clonePurchase(*p)
	return nil
}

func (r memoryPurchases) FindByPurchaseID(ctx context.Context, purchaseID int64) (*model.PurchaseRequest, error) {
	r.m.rlock(ctx)
	defer r.m.runlock(ctx)
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	p, ok := r.m.purchases[purchaseID]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	cp := clonePurchase(p)
	return &cp, nil
}

func (r memoryPurchases) List(ctx context.Context, filter PurchaseFilter) ([]model.PurchaseRequest, error) {
	r.m.rlock(ctx)
	defer r.m.runlock(ctx)
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	out := make([]model.PurchaseRequest, 0)
	for _, p := range r.m.purchases {
		if filter.SubmittedBy != "" && !strings.EqualFold(p.SubmittedBy, filter.SubmittedBy) {
			continue
		}
		if len(filter.Approvals) > 0 && !containsInt(filter.Approvals, p.Approval) {
			continue
		}
		out = append(out, clonePurchase(p))
	}
	sortByPurchaseIDDesc(out)
	return out, nil
}

func (r memoryPurchases) ListApproved(ctx context.Context, filter TotalsFilter) ([]model.PurchaseRequest, error) {
	r.m.rlock(ctx)
	defer r.m.runlock(ctx)
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	out := make([]model.PurchaseRequest, 0)
	for _, p := range r.m.purchases {
		if p.Approval != model.ApprovalMentorApproved {
			continue
		}
		if len(filter.Subteams) > 0 && !containsString(filter.Subteams, p.Subteam) {
			continue
		}
		if len(filter.Vendors) > 0 && !containsString(filter.Vendors, p.Vendor) {
			continue
		}
		if len(filter.Submitters) > 0 && !matchesAnySubstring(p.SubmittedBy, filter.Submitters) {
			continue
		}
		if filter.From != nil && p.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, clonePurchase(p))
	}
	sortByPurchaseIDDesc(out)
	return out, nil
}

func (r memoryPurchases) UpdateByPurchaseID(ctx context.Context, purchaseID int64, changes model.PurchaseChanges, guard UpdateGuard) (*model.PurchaseRequest, error) {
	r.m.wlock(ctx)
	defer r.m.wunlock(ctx)
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}

	p, ok := r.m.purchases[purchaseID]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	matches := (guard.ExpectedUpdatedAt == nil || *guard.ExpectedUpdatedAt == p.UpdatedAt) &&
		(guard.Owner == "" || strings.EqualFold(p.SubmittedBy, guard.Owner)) &&
		(!guard.Unlocked || !p.Locked())
	if !matches {
		return nil, classifyMiss(&p, guard)
	}

	if d := changes.Details; d != nil {
		p.PurchaseDetails = cloneDetails(*d)
	}
	if changes.Approval != nil {
		p.Approval = *changes.Approval
	}
	if s := changes.Admin; s != nil {
		at := s.At
		p.AdminComments, p.AdminUsername, p.AdminDateApproved = s.Comments, s.Username, &at
	}
	if s := changes.Mentor; s != nil {
		at := s.At
		p.MentorComments, p.MentorUsername, p.MentorDateApproved = s.Comments, s.Username, &at
	}
	next := nowMillis()
	if next <= p.UpdatedAt {
		next = p.UpdatedAt + 1
	}
	p.UpdatedAt = next

	r.m.purchases[purchaseID] = p
	cp := clonePurchase(p)
	return &cp, nil
}

type memoryAudit struct{ m *MemoryStore }

var _ AuditRepository = memoryAudit{}

func (r memoryAudit) Log(ctx context.Context, entry *model.AuditLog) error {
	r.m.wlock(ctx)
	defer r.m.wunlock(ctx)
	if r.m.failWith != nil {
		return r.m.failWith
	}
	if err := entry.BeforeCreate(nil); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.m.auditLogs = append(r.m.auditLogs, *entry)
	return nil
}

func (r memoryAudit) ListByPurchaseID(ctx context.Context, purchaseID int64) ([]model.AuditLog, error) {
	r.m.rlock(ctx)
	defer r.m.runlock(ctx)
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	out := make([]model.AuditLog, 0)
	for _, l := range r.m.auditLogs {
		if l.PurchaseID == purchaseID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memoryTx struct{ m *MemoryStore }

// RunInTx holds the write lock for the whole unit of work and restores the
// previous state when fn fails.
func (t memoryTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	snap := t.m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		t.m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	nextID    int64
	purchases map[int64]model.PurchaseRequest
	auditLen  int
}

// snapshot must be called with mu held.
func (m *MemoryStore) snapshot() memorySnapshot {
	purchases := make(map[int64]model.PurchaseRequest, len(m.purchases))
	for id, p := range m.purchases {
		purchases[id] = clonePurchase(p)
	}
	return memorySnapshot{nextID: m.nextID, purchases: purchases, auditLen: len(m.auditLogs)}
}

// restore must be called with mu held. Audit rows are append-only, so
// truncating drops everything written since the snapshot.
func (m *MemoryStore) restore(s memorySnapshot) {
	m.nextID = s.nextID
	m.purchases = s.purchases
	m.auditLogs = m.auditLogs[:s.auditLen]
}

func clonePurchase(p model.PurchaseRequest) model.PurchaseRequest {
	p.PurchaseDetails = cloneDetails(p.PurchaseDetails)
	return p
}

func cloneDetails(d model.PurchaseDetails) model.PurchaseDetails {
	d.PartURL = append([]string{}, d.PartURL...)
	d.PartNumber = append([]string{}, d.PartNumber...)
	d.PartName = append([]string{}, d.PartName...)
	d.Subsystem = append([]string{}, d.Subsystem...)
	d.PricePerUnit = append([]decimal.Decimal{}, d.PricePerUnit...)
	d.Quantity = append([]int{}, d.Quantity...)
	return d
}

func sortByPurchaseIDDesc(ps []model.PurchaseRequest) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].PurchaseID > ps[j].PurchaseID })
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func matchesAnySubstring(s string, subs []string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
