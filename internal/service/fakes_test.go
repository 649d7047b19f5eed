package service

import (
	"context"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory fakes over the repository interfaces so service behavior can be
// exercised without a database.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeCaseRepo struct {
	cases       map[uuid.UUID]*model.Case
	guardMisses int // force this many UpdateStatusGuarded conflicts
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: map[uuid.UUID]*model.Case{}}
}

func (f *fakeCaseRepo) add(c *model.Case) *model.Case {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.cases[c.ID] = c
	return c
}

func (f *fakeCaseRepo) Create(ctx context.Context, c *model.Case) error {
	f.add(c)
	return nil
}

func (f *fakeCaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, apperror.Wrap(apperror.ErrNotFound, "find case", fmt.Errorf("case %s", id))
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCaseRepo) List(ctx context.Context, filter repository.CaseFilter) ([]model.Case, int64, error) {
	var out []model.Case
	for _, c := range f.cases {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.OfficerUserID != nil &&
			(c.AssignedOfficerUserID == nil || *c.AssignedOfficerUserID != *filter.OfficerUserID) &&
			(c.CreatedByUserID == nil || *c.CreatedByUserID != *filter.OfficerUserID) {
			continue
		}
		if (filter.VictimPhone != "" || filter.VictimEmail != "") &&
			c.VictimPhone != filter.VictimPhone && c.VictimEmail != filter.VictimEmail {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCaseRepo) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expectedStatus string, fields map[string]interface{}) error {
	if f.guardMisses > 0 {
		f.guardMisses--
		return apperror.Wrap(apperror.ErrConflict, "update case status",
			fmt.Errorf("case %s no longer in status %s", id, expectedStatus))
	}
	c, ok := f.cases[id]
	if !ok || c.Status != expectedStatus {
		return apperror.Wrap(apperror.ErrConflict, "update case status",
			fmt.Errorf("case %s no longer in status %s", id, expectedStatus))
	}
	if v, ok := fields["status"].(string); ok {
		c.Status = v
	}
	if v, ok := fields["remarks"].(string); ok {
		c.Remarks = v
	}
	if v, ok := fields["assigned_officer_user_id"].(uuid.UUID); ok {
		c.AssignedOfficerUserID = &v
	}
	return nil
}

func (f *fakeCaseRepo) Update(ctx context.Context, c *model.Case) error {
	cp := *c
	f.cases[c.ID] = &cp
	return nil
}

func (f *fakeCaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.cases, id)
	return nil
}

func (f *fakeCaseRepo) Count(ctx context.Context, filter repository.CaseFilter) (int64, error) {
	_, total, err := f.List(ctx, filter)
	return total, err
}

func (f *fakeCaseRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	byStatus := map[string]int64{}
	for _, c := range f.cases {
		byStatus[c.Status]++
	}
	var out []repository.StatusCount
	for status, count := range byStatus {
		out = append(out, repository.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (f *fakeCaseRepo) FundTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	allocated, disbursed := decimal.Zero, decimal.Zero
	for _, c := range f.cases {
		allocated = allocated.Add(c.CompensationAmount)
		disbursed = disbursed.Add(c.DisbursedAmount)
	}
	return allocated, disbursed, nil
}

func (f *fakeCaseRepo) VisibleCaseIDs(ctx context.Context, filter repository.CaseFilter) ([]uuid.UUID, error) {
	cases, _, err := f.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

type fakeDocRepo struct {
	docs []model.CaseDocument
}

func (f *fakeDocRepo) Create(ctx context.Context, doc *model.CaseDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeDocRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.CaseDocument, error) {
	var out []model.CaseDocument
	for _, d := range f.docs {
		if d.CaseID == caseID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users  map[string]*model.User
	tokens map[string]*model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}, tokens: map[string]*model.RefreshToken{}}
}

func (f *fakeUserRepo) add(u *model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID.String()] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.Wrap(apperror.ErrNotFound, "find user", fmt.Errorf("user %s", id))
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.Wrap(apperror.ErrNotFound, "find user", fmt.Errorf("email %s", email))
}

func (f *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	rt, ok := f.tokens[token]
	if !ok {
		return nil, apperror.Wrap(apperror.ErrNotFound, "find refresh token", fmt.Errorf("token"))
	}
	if u, ok := f.users[rt.UserID.String()]; ok {
		rt.User = *u
	}
	return rt, nil
}

func (f *fakeUserRepo) DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error {
	for k, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) error { return nil }

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	if action == "" {
		return f.entries, int64(len(f.entries)), nil
	}
	var out []model.AuditLog
	for _, e := range f.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAuditRepo) lastAction() string {
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Action
}

type fakeGrievanceRepo struct {
	grievances map[uuid.UUID]*model.Grievance
}

func newFakeGrievanceRepo() *fakeGrievanceRepo {
	return &fakeGrievanceRepo{grievances: map[uuid.UUID]*model.Grievance{}}
}

func (f *fakeGrievanceRepo) Create(ctx context.Context, g *model.Grievance) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	cp := *g
	f.grievances[g.ID] = &cp
	return nil
}

func (f *fakeGrievanceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Grievance, error) {
	g, ok := f.grievances[id]
	if !ok {
		return nil, apperror.Wrap(apperror.ErrNotFound, "find grievance", fmt.Errorf("grievance %s", id))
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGrievanceRepo) List(ctx context.Context, filter repository.GrievanceFilter) ([]model.Grievance, int64, error) {
	var out []model.Grievance
	for _, g := range f.grievances {
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && g.Priority != filter.Priority {
			continue
		}
		if filter.CaseID != nil && g.CaseID != *filter.CaseID {
			continue
		}
		if filter.CaseIDs != nil {
			visible := false
			for _, id := range filter.CaseIDs {
				if g.CaseID == id {
					visible = true
					break
				}
			}
			if !visible {
				continue
			}
		}
		out = append(out, *g)
	}
	return out, int64(len(out)), nil
}

func (f *fakeGrievanceRepo) Update(ctx context.Context, g *model.Grievance) error {
	cp := *g
	f.grievances[g.ID] = &cp
	return nil
}

func (f *fakeGrievanceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.grievances, id)
	return nil
}

func (f *fakeGrievanceRepo) Count(ctx context.Context, filter repository.GrievanceFilter) (int64, error) {
	_, total, err := f.List(ctx, filter)
	return total, err
}

func (f *fakeGrievanceRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	byStatus := map[string]int64{}
	for _, g := range f.grievances {
		byStatus[g.Status]++
	}
	var out []repository.StatusCount
	for status, count := range byStatus {
		out = append(out, repository.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (f *fakeGrievanceRepo) CountByPriority(ctx context.Context, priority string) (int64, error) {
	var count int64
	for _, g := range f.grievances {
		if g.Priority == priority {
			count++
		}
	}
	return count, nil
}

type fakeNotifier struct {
	sent []string // grievance numbers alerted
}

func (f *fakeNotifier) SendGrievanceAlert(to, grievanceNumber, priority, title string) error {
	f.sent = append(f.sent, grievanceNumber)
	return nil
}
