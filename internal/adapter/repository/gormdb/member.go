package gormdb

import (
	"context"

	"sacco-backend/internal/domain/member"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberRepository struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) *MemberRepository { return &MemberRepository{db: db} }

func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MemberRepository) GetByMemberID(ctx context.Context, memberID string) (*member.Member, error) {
	var out member.Member
	res := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&out)
	return &out, res.Error
}

func (r *MemberRepository) GetByMemberIDForUpdate(ctx context.Context, memberID string) (*member.Member, error) {
	var out member.Member
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("member_id = ?", memberID).
		First(&out)
	return &out, res.Error
}

func (r *MemberRepository) Save(ctx context.Context, m *member.Member) error {
	return r.db.WithContext(ctx).Save(m).Error
}
