package ledger

import (
	"context"
	"sort"

	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
)

// fakeLedgerRepo is an in-memory stand-in for repository.LedgerRepository,
// sufficient to exercise Append/Override/History/Summary/PriorState without
// a database.
type fakeLedgerRepo struct {
	entries map[domain.LedgerEntryID]domain.LedgerEntry
	order   []domain.LedgerEntryID
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[domain.LedgerEntryID]domain.LedgerEntry)}
}

func (r *fakeLedgerRepo) InsertEntry(ctx context.Context, entry domain.LedgerEntry) error {
	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	return nil
}

func (r *fakeLedgerRepo) GetEntry(ctx context.Context, id domain.LedgerEntryID) (domain.LedgerEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return domain.LedgerEntry{}, simerrors.Internal("entry not found", nil)
	}
	return e, nil
}

func (r *fakeLedgerRepo) LatestEntry(ctx context.Context, storeID domain.StoreID, userID domain.UserID) (*domain.LedgerEntry, error) {
	var latest *domain.LedgerEntry
	for _, id := range r.order {
		e := r.entries[id]
		if e.StoreID == storeID && e.UserID == userID {
			c := e
			latest = &c
		}
	}
	return latest, nil
}

func (r *fakeLedgerRepo) History(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, excludeScenarioID *domain.ScenarioID) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, id := range r.order {
		e := r.entries[id]
		if e.ClassroomID != classroomID || e.UserID != userID {
			continue
		}
		if excludeScenarioID != nil && e.ScenarioID != nil && *e.ScenarioID == *excludeScenarioID {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeLedgerRepo) UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return simerrors.Internal("entry not found", nil)
	}
	r.entries[entry.ID] = entry
	return nil
}

// fakeStoreRepo is an in-memory stand-in for repository.StoreRepository.
type fakeStoreRepo struct {
	stores     map[domain.StoreID]domain.Store
	storeTypes map[domain.StoreTypeID]domain.StoreType
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{
		stores:     make(map[domain.StoreID]domain.Store),
		storeTypes: make(map[domain.StoreTypeID]domain.StoreType),
	}
}

func (r *fakeStoreRepo) GetStore(ctx context.Context, id domain.StoreID) (domain.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return domain.Store{}, simerrors.Internal("store not found", nil)
	}
	return s, nil
}

func (r *fakeStoreRepo) GetStoreByUser(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID) (domain.Store, error) {
	for _, s := range r.stores {
		if s.ClassroomID == classroomID && s.UserID == userID {
			return s, nil
		}
	}
	return domain.Store{}, simerrors.Internal("store not found", nil)
}

func (r *fakeStoreRepo) GetStoreType(ctx context.Context, id domain.StoreTypeID) (domain.StoreType, error) {
	st, ok := r.storeTypes[id]
	if !ok {
		return domain.StoreType{}, simerrors.Internal("store type not found", nil)
	}
	return st, nil
}

func (r *fakeStoreRepo) ListStoresByClassroom(ctx context.Context, classroomID domain.ClassroomID) ([]domain.Store, error) {
	var out []domain.Store
	for _, s := range r.stores {
		if s.ClassroomID == classroomID {
			out = append(out, s)
		}
	}
	return out, nil
}
