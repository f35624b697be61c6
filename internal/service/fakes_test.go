package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
// In-memory implementations of the repository interfaces. Hand-written fakes
// keep the tests readable: what the fake does is right here.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeIDs struct{ n int }

func (f *fakeIDs) next(prefix string) string {
	f.n++
	return fmt.Sprintf("%s-%d", prefix, f.n)
}

// --- users ---

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User // keyed by email
	ids       fakeIDs
	upsertErr error
	getErr    error
}

func newFakeUserRepo(emails ...string) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, e := range emails {
		f.users[e] = &model.User{ID: f.ids.next("user"), Email: e, Name: "name of " + e}
	}
	return f
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.users[user.Email]; ok {
		existing.Name = user.Name
		existing.ProfilePicURL = user.ProfilePicURL
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	user.ID = f.ids.next("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) ListByEmails(_ context.Context, emails []string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, e := range emails {
		if u, ok := f.users[e]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- entries ---

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []model.Entry
	ids     fakeIDs
	users   *fakeUserRepo // for names; may be nil
	err     error
}

func (f *fakeEntryRepo) UpsertDay(_ context.Context, entry *model.Entry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for i := range f.entries {
		e := &f.entries[i]
		if e.Email == entry.Email && e.DayStart.Equal(entry.DayStart) {
			entry.ID = e.ID
			*e = *entry
			return false, nil
		}
	}
	entry.ID = f.ids.next("entry")
	f.entries = append(f.entries, *entry)
	return true, nil
}

func (f *fakeEntryRepo) Delete(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.ID == id && e.Email == owner {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("entry", id)
}

func (f *fakeEntryRepo) ListByOwner(_ context.Context, owner string, r repository.TimeRange, newestFirst bool, limit int) ([]model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Entry{}
	for _, e := range f.entries {
		if e.Email != owner {
			continue
		}
		if !r.From.IsZero() && e.CreatedAt.Before(r.From) {
			continue
		}
		if !r.To.IsZero() && !e.CreatedAt.Before(r.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEntryRepo) name(email string) string {
	if f.users == nil {
		return ""
	}
	if u, ok := f.users.users[email]; ok {
		return u.Name
	}
	return ""
}

func (f *fakeEntryRepo) Since(_ context.Context, t time.Time) ([]model.LeaderboardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sorted := append([]model.Entry(nil), f.entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	out := []model.LeaderboardRow{}
	for _, e := range sorted {
		if e.CreatedAt.Before(t) {
			continue
		}
		out = append(out, model.LeaderboardRow{Entry: e, Name: f.name(e.Email)})
	}
	return out, nil
}

func (f *fakeEntryRepo) Latest(_ context.Context, limit int) ([]model.LatestEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sorted := append([]model.Entry(nil), f.entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := []model.LatestEntry{}
	for _, e := range sorted {
		out = append(out, model.LatestEntry{
			ID: e.ID, Name: f.name(e.Email), Position: e.Position,
			Goals: e.Goals, Assists: e.Assists, CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// --- friends ---

type fakeFriendRepo struct {
	mu       sync.Mutex
	requests map[string]*model.FriendRequest
	edges    []model.Friendship
	ids      fakeIDs
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{requests: make(map[string]*model.FriendRequest)}
}

func (f *fakeFriendRepo) CreateRequest(_ context.Context, req *model.FriendRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.SenderEmail == req.SenderEmail && r.RecipientEmail == req.RecipientEmail && r.Status == model.RequestPending {
			return apperror.Conflict("friend request", "already pending")
		}
	}
	req.ID = f.ids.next("req")
	req.Status = model.RequestPending
	copied := *req
	f.requests[req.ID] = &copied
	return nil
}

func (f *fakeFriendRepo) GetRequest(_ context.Context, id string) (*model.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, apperror.NotFound("friend request", id)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeFriendRepo) FindPending(_ context.Context, sender, recipient string) (*model.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.SenderEmail == sender && r.RecipientEmail == recipient && r.Status == model.RequestPending {
			copied := *r
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("friend request", sender+"->"+recipient)
}

func (f *fakeFriendRepo) ListPendingFor(_ context.Context, recipient string) ([]model.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.FriendRequest{}
	for _, r := range f.requests {
		if r.RecipientEmail == recipient && r.Status == model.RequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeFriendRepo) Accept(_ context.Context, id, recipient string, at time.Time) (*model.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.RecipientEmail != recipient {
		return nil, apperror.NotFound("friend request", id)
	}
	if r.Status == model.RequestRejected {
		return nil, apperror.Conflict("friend request", "rejected")
	}
	r.Status = model.RequestAccepted
	r.UpdatedAt = &at
	for _, e := range f.edges {
		if e.RequestID == id {
			copied := e
			return &copied, nil
		}
	}
	edge := model.Friendship{ID: f.ids.next("edge"), RequestID: id, User1Email: r.SenderEmail, User2Email: r.RecipientEmail, CreatedAt: at}
	f.edges = append(f.edges, edge)
	return &edge, nil
}

func (f *fakeFriendRepo) Reject(_ context.Context, id, recipient string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.RecipientEmail != recipient {
		return apperror.NotFound("friend request", id)
	}
	if r.Status != model.RequestPending {
		return apperror.Conflict("friend request", "request is already "+r.Status)
	}
	r.Status = model.RequestRejected
	r.UpdatedAt = &at
	return nil
}

func (f *fakeFriendRepo) AreFriends(_ context.Context, a, b string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if (e.User1Email == a && e.User2Email == b) || (e.User1Email == b && e.User2Email == a) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFriendRepo) ListFriendships(_ context.Context, email string) ([]model.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Friendship{}
	for _, e := range f.edges {
		if e.User1Email == email || e.User2Email == email {
			out = append(out, e)
		}
	}
	return out, nil
}

// befriend creates an accepted edge directly.
func (f *fakeFriendRepo) befriend(a, b string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges = append(f.edges, model.Friendship{ID: f.ids.next("edge"), RequestID: f.ids.next("req"), User1Email: a, User2Email: b})
}

// --- drawings / injuries / suggestions ---

type fakeDrawingRepo struct {
	drawings []model.Drawing
	ids      fakeIDs
}

func (f *fakeDrawingRepo) Create(_ context.Context, d *model.Drawing) error {
	d.ID = f.ids.next("drawing")
	f.drawings = append(f.drawings, *d)
	return nil
}

func (f *fakeDrawingRepo) ListByOwner(_ context.Context, owner string, limit int) ([]model.Drawing, error) {
	out := []model.Drawing{}
	for i := len(f.drawings) - 1; i >= 0; i-- {
		if f.drawings[i].Email == owner {
			out = append(out, f.drawings[i])
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeInjuryRepo struct {
	injuries map[string]*model.Injury
	ids      fakeIDs
}

func newFakeInjuryRepo() *fakeInjuryRepo {
	return &fakeInjuryRepo{injuries: make(map[string]*model.Injury)}
}

func (f *fakeInjuryRepo) Create(_ context.Context, in *model.Injury) error {
	in.ID = f.ids.next("injury")
	for i := range in.Spots {
		in.Spots[i].ID = f.ids.next("spot")
		in.Spots[i].InjuryID = in.ID
	}
	copied := *in
	f.injuries[in.ID] = &copied
	return nil
}

func (f *fakeInjuryRepo) Update(_ context.Context, in *model.Injury) error {
	cur, ok := f.injuries[in.ID]
	if !ok || cur.Email != in.Email {
		return apperror.NotFound("injury", in.ID)
	}
	cur.InjuryType = in.InjuryType
	cur.Duration = in.Duration
	if in.Spots != nil {
		cur.Spots = nil
		for _, s := range in.Spots {
			s.ID = f.ids.next("spot")
			s.InjuryID = in.ID
			cur.Spots = append(cur.Spots, s)
		}
	}
	return nil
}

func (f *fakeInjuryRepo) Delete(_ context.Context, owner, id string) error {
	cur, ok := f.injuries[id]
	if !ok || cur.Email != owner {
		return apperror.NotFound("injury", id)
	}
	delete(f.injuries, id)
	return nil
}

func (f *fakeInjuryRepo) Get(_ context.Context, owner, id string) (*model.Injury, error) {
	cur, ok := f.injuries[id]
	if !ok || cur.Email != owner {
		return nil, apperror.NotFound("injury", id)
	}
	copied := *cur
	return &copied, nil
}

func (f *fakeInjuryRepo) ListByOwner(_ context.Context, owner string) ([]model.Injury, error) {
	out := []model.Injury{}
	for _, in := range f.injuries {
		if in.Email == owner {
			out = append(out, *in)
		}
	}
	return out, nil
}

type fakeSuggestionRepo struct {
	saved []model.Suggestion
}

func (f *fakeSuggestionRepo) CreateSuggestion(_ context.Context, s *model.Suggestion) error {
	s.ID = fmt.Sprintf("sg-%d", len(f.saved)+1)
	f.saved = append(f.saved, *s)
	return nil
}

// compile-time checks
var (
	_ repository.UserRepository       = (*fakeUserRepo)(nil)
	_ repository.EntryRepository      = (*fakeEntryRepo)(nil)
	_ repository.FriendRepository     = (*fakeFriendRepo)(nil)
	_ repository.DrawingRepository    = (*fakeDrawingRepo)(nil)
	_ repository.InjuryRepository     = (*fakeInjuryRepo)(nil)
	_ repository.SuggestionRepository = (*fakeSuggestionRepo)(nil)
)
