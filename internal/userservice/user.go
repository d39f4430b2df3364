package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sushihentaime/blogsphere/internal/blogservice"
	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/credential"
)

// ErrWrongPassword is returned by SignIn when the e-mail exists but the password does not match.
var ErrWrongPassword = errors.New("incorrect password")

// NewUserService wires the user service. limiter and images may be nil: sign-ins are then
// not throttled and profile photos are refused.
func NewUserService(m *DBModel, mb common.MessageProducer, credentials *credential.Store, limiter *SignInLimiter, images ImageStore, logger *slog.Logger) *UserService {
	return &UserService{
		m:           m,
		mb:          mb,
		credentials: credentials,
		limiter:     limiter,
		images:      images,
		logger:      logger,
	}
}

func (s *UserService) savePhoto(ctx context.Context, up *blogservice.Upload) (*blogservice.Image, bool, error) {
	if s.images == nil {
		return nil, false, common.NewValidationError("photo", "uploads are not supported")
	}

	img, created, err := s.images.SaveImage(ctx, up)
	if err != nil {
		var ve common.ValidationError
		if errors.As(err, &ve) {
			return nil, false, common.NewValidationError("photo", "must be a jpeg, png or webp image between 1KB and 2MB")
		}
		return nil, false, err
	}

	return img, created, nil
}

// SignUp creates a user, signs them in and publishes a user.created event.
//
// A profile photo is stored before the user row; if the row can not be written a photo
// stored by this call is released again.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*User, *credential.Pair, error) {
	u := &User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     normalizeEmail(in.Email),
	}

	v := common.NewValidator()
	validateName(v, u.FirstName, "first_name")
	validateName(v, u.LastName, "last_name")
	validateEmail(v, u.Email)
	validatePassword(v, in.Password, "password")
	if in.Photo != nil {
		if err := blogservice.ValidateUpload("photo", in.Photo); err != nil {
			v.AddError("photo", "must be a jpeg, png or webp image between 1KB and 2MB")
		}
	}
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	if err := u.Password.set(in.Password); err != nil {
		return nil, nil, err
	}

	var photo *blogservice.Image
	var created bool
	if in.Photo != nil {
		var err error
		photo, created, err = s.savePhoto(ctx, in.Photo)
		if err != nil {
			return nil, nil, err
		}
		u.ProfilePhotoID = &photo.ID
	}

	u.SignedInAt = time.Now().Truncate(time.Second)
	if err := s.m.insertUser(ctx, u); err != nil {
		if created {
			s.images.ReleaseImage(ctx, photo.ID)
		}
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, common.NewValidationError("email", "a user with this email address already exists")
		}
		return nil, nil, common.WrapStorage("sign up", err)
	}

	s.publishUserCreated(ctx, u)

	pair, err := s.credentials.IssuePair(u.ID, u.Version)
	if err != nil {
		return nil, nil, err
	}

	return u, pair, nil
}

// publishUserCreated announces the new user. The account exists either way, so a failure
// is only logged.
func (s *UserService) publishUserCreated(ctx context.Context, u *User) {
	msg, err := json.Marshal(UserCreatedEvent{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName})
	if err != nil {
		s.logger.Error("could not encode user.created event", "error", err)
		return
	}

	if err := s.mb.Publish(ctx, msg, common.UserCreatedKey, common.UserExchange); err != nil {
		s.logger.Warn("could not publish user.created event", "user_id", u.ID, "error", err)
	}
}

// SignIn checks the e-mail and password and starts a new refresh chain at version 0.
// Failed attempts count against the e-mail in the sign-in limiter.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*User, *credential.Pair, error) {
	email = normalizeEmail(email)

	v := common.NewValidator()
	validateEmail(v, email)
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("sign-in limiter unavailable", "error", err)
		} else if !ok {
			return nil, nil, common.ErrRateLimited
		}
	}

	u, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			s.recordFailure(ctx, email)
		}
		return nil, nil, err
	}

	ok, err := u.Password.matches(password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		s.recordFailure(ctx, email)
		return nil, nil, ErrWrongPassword
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("could not reset sign-in failures", "error", err)
		}
	}

	u.SignedInAt = time.Now().Truncate(time.Second)
	if err := s.m.signIn(ctx, u.ID, u.SignedInAt); err != nil {
		return nil, nil, common.WrapStorage("sign in", err)
	}
	u.Version = 0

	pair, err := s.credentials.IssuePair(u.ID, u.Version)
	if err != nil {
		return nil, nil, err
	}

	return u, pair, nil
}

func (s *UserService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}

	if err := s.limiter.Fail(ctx, email); err != nil {
		s.logger.Warn("could not record sign-in failure", "error", err)
	}
}

// Refresh rotates a refresh credential into a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*credential.Pair, error) {
	return s.credentials.Rotate(ctx, refreshToken)
}

// SignOut ends the user's refresh chain.
func (s *UserService) SignOut(ctx context.Context, userID int64) error {
	v := common.NewValidator()
	validateID(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return common.WrapStorage("sign out", s.m.revokeRefresh(ctx, userID))
}

// Authenticate returns the user an access credential was issued to.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.credentials.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	u, err := s.m.getUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return nil, credential.ErrInvalidCredential
		}
		return nil, err
	}

	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*User, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getUserByID(ctx, id)
}

// ChangePassword replaces the user's password. The old password must match and the new
// one must differ from it and equal its confirmation.
func (s *UserService) ChangePassword(ctx context.Context, u *User, in ChangePasswordInput) error {
	v := common.NewValidator()
	v.Check(in.OldPassword != "", "old_password", "must be provided")
	validatePassword(v, in.NewPassword, "new_password")
	v.Check(in.NewPassword == in.ConfirmPassword, "confirm_password", "does not match the new password")
	v.Check(in.NewPassword != in.OldPassword, "new_password", "must differ from the old password")
	if !v.Valid() {
		return v.ValidationError()
	}

	ok, err := u.Password.matches(in.OldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewValidationError("old_password", "is incorrect")
	}

	if err := u.Password.set(in.NewPassword); err != nil {
		return err
	}

	return common.WrapStorage("change password", s.m.updatePassword(ctx, u.ID, u.Password))
}

// UpdateProfile applies in to u. A replaced profile photo is released once nothing
// references it.
func (s *UserService) UpdateProfile(ctx context.Context, u *User, in UpdateProfileInput) (*User, error) {
	updated := *u

	v := common.NewValidator()
	if in.FirstName != nil {
		updated.FirstName = strings.TrimSpace(*in.FirstName)
		validateName(v, updated.FirstName, "first_name")
	}
	if in.LastName != nil {
		updated.LastName = strings.TrimSpace(*in.LastName)
		validateName(v, updated.LastName, "last_name")
	}
	if in.Email != nil {
		updated.Email = normalizeEmail(*in.Email)
		validateEmail(v, updated.Email)
	}
	if in.Bio != nil {
		updated.Bio = strings.TrimSpace(*in.Bio)
		validateBio(v, updated.Bio)
	}
	if in.Photo != nil {
		if err := blogservice.ValidateUpload("photo", in.Photo); err != nil {
			v.AddError("photo", "must be a jpeg, png or webp image between 1KB and 2MB")
		}
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var photo *blogservice.Image
	var created bool
	if in.Photo != nil {
		var err error
		photo, created, err = s.savePhoto(ctx, in.Photo)
		if err != nil {
			return nil, err
		}
		updated.ProfilePhotoID = &photo.ID
	}

	if err := s.m.updateProfile(ctx, &updated); err != nil {
		if created {
			s.images.ReleaseImage(ctx, photo.ID)
		}
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, common.NewValidationError("email", "a user with this email address already exists")
		}
		return nil, common.WrapStorage("update profile", err)
	}

	old := u.ProfilePhotoID
	if photo != nil && old != nil && *old != photo.ID {
		s.images.ReleaseImage(ctx, *old)
	}
	if s.images != nil {
		s.images.InvalidateProfiles()
	}

	return &updated, nil
}
