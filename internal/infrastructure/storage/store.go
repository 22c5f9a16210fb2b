package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/coursesim/simcore/internal/domain"
)

type StoreTypeModel struct {
	bun.BaseModel `bun:"table:store_types,alias:st"`

	ID        domain.StoreTypeID                     `bun:"id,pk"`
	Name      string                                 `bun:"name"`
	Variables map[domain.Bucket]domain.StoreVariable `bun:"variables,type:jsonb"`
}

func (m *StoreTypeModel) ToDomain() domain.StoreType {
	return domain.StoreType{ID: m.ID, Name: m.Name, Variables: m.Variables}
}

func NewStoreTypeModel(t domain.StoreType) *StoreTypeModel {
	return &StoreTypeModel{ID: t.ID, Name: t.Name, Variables: t.Variables}
}

func (s *BunStore) GetStoreType(ctx context.Context, id domain.StoreTypeID) (domain.StoreType, error) {
	model := new(StoreTypeModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.StoreType{}, err
	}
	return model.ToDomain(), nil
}

type StoreModel struct {
	bun.BaseModel `bun:"table:stores,alias:sr"`

	ID              domain.StoreID     `bun:"id,pk"`
	ClassroomID     domain.ClassroomID `bun:"classroom_id"`
	StoreTypeID     domain.StoreTypeID `bun:"store_type_id"`
	UserID          domain.UserID      `bun:"user_id"`
	Name            string             `bun:"name"`
	StartingBalance decimal.Decimal    `bun:"starting_balance,type:numeric"`
	CreatedAt       time.Time          `bun:"created_at"`
}

func (m *StoreModel) ToDomain() domain.Store {
	return domain.Store{
		ID:              m.ID,
		ClassroomID:     m.ClassroomID,
		StoreTypeID:     m.StoreTypeID,
		UserID:          m.UserID,
		Name:            m.Name,
		StartingBalance: m.StartingBalance,
		CreatedAt:       m.CreatedAt,
	}
}

func NewStoreModel(st domain.Store) *StoreModel {
	return &StoreModel{
		ID:              st.ID,
		ClassroomID:     st.ClassroomID,
		StoreTypeID:     st.StoreTypeID,
		UserID:          st.UserID,
		Name:            st.Name,
		StartingBalance: st.StartingBalance,
		CreatedAt:       st.CreatedAt,
	}
}

func (s *BunStore) GetStore(ctx context.Context, id domain.StoreID) (domain.Store, error) {
	model := new(StoreModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Store{}, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) GetStoreByUser(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID) (domain.Store, error) {
	model := new(StoreModel)
	err := s.db.NewSelect().Model(model).
		Where("classroom_id = ?", classroomID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return domain.Store{}, err
	}
	return model.ToDomain(), nil
}

func (s *BunStore) ListStoresByClassroom(ctx context.Context, classroomID domain.ClassroomID) ([]domain.Store, error) {
	var models []StoreModel
	err := s.db.NewSelect().Model(&models).Where("classroom_id = ?", classroomID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Store, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}
