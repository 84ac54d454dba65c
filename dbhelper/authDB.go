package dbhelper

import (
	"context"
	"errors"
	"strings"

	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserStore is the MySQL-backed UserStore.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) CreateUser(ctx context.Context, user *models.User) error {
	result := s.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		return duplicateKeyError(result.Error)
	}
	return nil
}

func (s *GormUserStore) CheckAvailable(ctx context.Context, username, email string) error {
	var user models.User
	result := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		Limit(1).
		Find(&user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nil
	}
	if user.Username == username {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

func (s *GormUserStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ? OR email = ?", identifier, identifier).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormUserStore) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
		return notFound(err)
	}
	var value interface{} = gorm.Expr("NULL")
	if hash != nil {
		value = *hash
	}
	if err := tx.Model(&user).Update("refresh_token_hash", value).Error; err != nil {
		return err
	}
	return tx.Commit().Error
}

func (s *GormUserStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
		return notFound(err)
	}
	if err := tx.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}
	return tx.Commit().Error
}

func (s *GormUserStore) UpdateAccountDetails(ctx context.Context, id, fullName, email string) (*models.User, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	var taken int64
	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrEmailTaken
	}
	result := tx.Model(&user).Updates(map[string]interface{}{
		"full_name": fullName,
		"email":     email,
	})
	if result.Error != nil {
		return nil, duplicateKeyError(result.Error)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	user.FullName = fullName
	user.Email = email
	return &user, nil
}

func (s *GormUserStore) CountUsers(ctx context.Context) (int64, int64, error) {
	var total, active int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&models.User{}).Where("refresh_token_hash IS NOT NULL").Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// duplicateKeyError maps MySQL error 1062 to the matching sentinel. The
// message ends with the violated index, e.g. "for key 'users.idx_users_email'".
func duplicateKeyError(err error) error {
	var mysqlErr *mysqldriver.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != utils.MYSQL_ERR_DUPLICATE_KEY {
		return err
	}
	if strings.HasSuffix(mysqlErr.Message, "email'") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
