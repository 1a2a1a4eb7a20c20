package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// Models lists the tables owned by this package.
func Models() []interface{} {
	return []interface{}{&domain.Group{}, &domain.User{}}
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, u *domain.User) error {
	return database.Translate(database.Conn(ctx, r.db).Omit("Groups").Create(u).Error, "user")
}

func (r *GormUserRepository) Update(ctx context.Context, u *domain.User) error {
	return database.Translate(database.Conn(ctx, r.db).Omit("Groups").Save(u).Error, "user")
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := database.Conn(ctx, r.db).Preload("Groups").First(&u, id).Error; err != nil {
		return nil, database.Translate(err, "user")
	}
	return &u, nil
}

func (r *GormUserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	err := database.Conn(ctx, r.db).Preload("Groups").Where("lower(login) = lower(?)", login).First(&u).Error
	if err != nil {
		return nil, database.Translate(err, "user")
	}
	return &u, nil
}

func (r *GormUserRepository) List(ctx context.Context, tenantID *uint, limit, offset int) ([]domain.User, int64, error) {
	var (
		users []domain.User
		total int64
	)
	q := database.Conn(ctx, r.db).Model(&domain.User{})
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Groups").Order("id").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *GormUserRepository) SetGroups(ctx context.Context, userID uint, codes []domain.GroupCode) error {
	db := database.Conn(ctx, r.db)
	var groups []domain.Group
	if len(codes) > 0 {
		if err := db.Where("code IN ?", codes).Find(&groups).Error; err != nil {
			return err
		}
		if len(groups) != len(uniqueCodes(codes)) {
			return apperr.Validationf("groups", "unknown group code")
		}
	}
	u := domain.User{ID: userID}
	return db.Model(&u).Association("Groups").Replace(groups)
}

func (r *GormUserRepository) EnsureGroups(ctx context.Context, groups []domain.Group) error {
	if len(groups) == 0 {
		return nil
	}
	rows := make([]domain.Group, len(groups))
	copy(rows, groups)
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&rows).Error
}

func (r *GormUserRepository) UpdateTokenVersion(ctx context.Context, userID uint, version string) error {
	res := database.Conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", userID).
		UpdateColumn("token_version", version)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("user")
	}
	return nil
}

func uniqueCodes(codes []domain.GroupCode) map[domain.GroupCode]struct{} {
	set := make(map[domain.GroupCode]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}
