package userservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogsphere/internal/blogservice"
	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/credential"
)

const MaxBioLength = 50

type UserService struct {
	m           *DBModel
	mb          common.MessageProducer
	credentials *credential.Store
	limiter     *SignInLimiter
	images      ImageStore
	logger      *slog.Logger
}

// ImageStore stores and releases profile photos. The blog service implements it so
// photos and banners share one deduplicated image table, and drops cached blogs that
// embed a changed profile.
type ImageStore interface {
	SaveImage(ctx context.Context, up *blogservice.Upload) (*blogservice.Image, bool, error)
	ReleaseImage(ctx context.Context, id int64)
	InvalidateProfiles()
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Password       Password  `json:"-"`
	Bio            string    `json:"bio"`
	ProfilePhotoID *int64    `json:"profile_photo_id,omitempty"`
	NumBlogs       int       `json:"num_blogs"`
	Version        int       `json:"-"`
	SignedInAt     time.Time `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Photo     *blogservice.Upload
}

// UpdateProfileInput carries only the fields being changed.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Bio       *string
	Photo     *blogservice.Upload
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// UserCreatedEvent is published on common.UserCreatedKey after sign-up.
type UserCreatedEvent struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
