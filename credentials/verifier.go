// Package credentials registers users and checks presented passwords
// against their stored bcrypt hashes.
package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
)

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

type Verifier struct {
	store dbhelper.UserStore
}

func NewVerifier(store dbhelper.UserStore) *Verifier {
	return &Verifier{store: store}
}

// Normalize trims and lower-cases a username, email or login identifier.
func Normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (v *Verifier) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := Normalize(in.Username)
	email := Normalize(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return nil, utils.NewError(utils.KindInvalidInput, utils.ALL_FIELDS_REQUIRED)
	}
	// usernames and emails share the login identifier namespace
	if strings.Contains(username, "@") {
		return nil, utils.NewError(utils.KindInvalidInput, utils.USERNAME_HAS_AT)
	}
	if !strings.Contains(email, "@") {
		return nil, utils.NewError(utils.KindInvalidInput, utils.EMAIL_INVALID)
	}
	if tooLong(in.Password) {
		return nil, utils.NewError(utils.KindInvalidInput, utils.PASSWORD_TOO_LONG)
	}

	if err := v.store.CheckAvailable(ctx, username, email); err != nil {
		return nil, registrationError(err)
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, utils.WrapError(utils.KindInternal, utils.GENERIC_SIGNUP_ERROR, err)
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
	}
	if err := v.store.CreateUser(ctx, user); err != nil {
		return nil, registrationError(err)
	}
	return user, nil
}

func (v *Verifier) Verify(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = Normalize(identifier)
	if identifier == "" || password == "" {
		return nil, utils.NewError(utils.KindInvalidInput, utils.LOGIN_FIELDS_REQUIRED)
	}
	user, err := v.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, lookupError(err)
	}
	if tooLong(password) {
		return nil, utils.NewError(utils.KindUnauthorized, utils.INVALID_PASSWORD)
	}
	if err := utils.ComparePasswords(user.PasswordHash, password); err != nil {
		return nil, utils.WrapError(utils.KindUnauthorized, utils.INVALID_PASSWORD, err)
	}
	return user, nil
}

// ChangePassword replaces the user's password after checking the current one.
func (v *Verifier) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return utils.NewError(utils.KindInvalidInput, utils.PASSWORD_FIELDS_REQUIRED)
	}
	if tooLong(next) {
		return utils.NewError(utils.KindInvalidInput, utils.PASSWORD_TOO_LONG)
	}
	user, err := v.store.FindByID(ctx, userID)
	if err != nil {
		return lookupError(err)
	}
	if tooLong(current) {
		return utils.NewError(utils.KindUnauthorized, utils.CURRENT_PASSWORD_INCORRECT)
	}
	if err := utils.ComparePasswords(user.PasswordHash, current); err != nil {
		return utils.WrapError(utils.KindUnauthorized, utils.CURRENT_PASSWORD_INCORRECT, err)
	}
	passwordHash, err := utils.HashPassword(next)
	if err != nil {
		return utils.WrapError(utils.KindInternal, utils.INTERNAL_SERVER_ERROR, err)
	}
	if err := v.store.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return lookupError(err)
	}
	return nil
}

// UpdateAccount changes the user's full name and email. The email stays
// unique across users.
func (v *Verifier) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = Normalize(email)
	if fullName == "" || email == "" {
		return nil, utils.NewError(utils.KindInvalidInput, utils.ACCOUNT_FIELDS_REQUIRED)
	}
	if !strings.Contains(email, "@") {
		return nil, utils.NewError(utils.KindInvalidInput, utils.EMAIL_INVALID)
	}
	user, err := v.store.UpdateAccountDetails(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, dbhelper.ErrEmailTaken) {
			return nil, utils.WrapError(utils.KindConflict, utils.EMAIL_TAKEN, err)
		}
		return nil, lookupError(err)
	}
	return user, nil
}

// tooLong reports whether bcrypt would silently truncate password.
func tooLong(password string) bool {
	return len(password) > utils.MAX_PASSWORD_BYTES
}

func registrationError(err error) error {
	switch {
	case errors.Is(err, dbhelper.ErrUsernameTaken), errors.Is(err, dbhelper.ErrEmailTaken):
		return utils.WrapError(utils.KindConflict, utils.USER_ALREADY_EXISTS, err)
	default:
		return utils.WrapError(utils.KindInternal, utils.GENERIC_SIGNUP_ERROR, err)
	}
}

func lookupError(err error) error {
	if errors.Is(err, dbhelper.ErrUserNotFound) {
		return utils.WrapError(utils.KindNotFound, utils.USER_NOT_FOUND, err)
	}
	return utils.WrapError(utils.KindInternal, utils.INTERNAL_SERVER_ERROR, err)
}
