package users

import (
	"context"
	"errors"
	"strings"

	"github.com/vaikhari/vaikhari/backend/api/internal/models"
)

// Error kinds for the authentication flow. Handlers map these onto HTTP
// status codes; everything else coming out of the service is an internal
// error.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrUpsertFailed    = errors.New("user upsert failed")
	ErrInvalidRoles    = errors.New("roles required")
)

// Service encapsulates user-related business logic
type Service struct {
	repo       UserRepository
	rootAdmins []string
}

// NewService builds a user service. rootAdminEmails is the raw
// ROOT_ADMIN_EMAILS value; it is parsed once here.
func NewService(r UserRepository, rootAdminEmails string) *Service {
	return &Service{repo: r, rootAdmins: ParseRootAdminEmails(rootAdminEmails)}
}

// ParseRootAdminEmails splits the allow-list on whitespace and commas,
// lower-casing entries and dropping empties.
func ParseRootAdminEmails(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// UpsertFromClaims creates or refreshes a user from verified token claims and
// returns the stored document. Returns (nil, nil) when the claims carry no
// subject identifier.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	uid, _ := claims["uid"].(string)
	if uid == "" {
		uid, _ = claims["sub"].(string)
	}
	if uid == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	phone, _ := claims["phone_number"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	u := &models.User{
		UID:         uid,
		Email:       email,
		Phone:       phone,
		DisplayName: name,
		PhotoURL:    picture,
		MFAEnrolled: mfaFromClaims(claims),
	}
	return s.repo.Upsert(ctx, u)
}

// mfaFromClaims reports second-factor enrollment: a non-empty
// firebase.sign_in_second_factor value or the presence of a
// second_factor_identifier.
func mfaFromClaims(claims map[string]interface{}) bool {
	fb, _ := claims["firebase"].(map[string]interface{})
	if fb == nil {
		return false
	}
	switch v := fb["sign_in_second_factor"].(type) {
	case string:
		if v != "" {
			return true
		}
	case []interface{}:
		if len(v) > 0 {
			return true
		}
	}
	if id, ok := fb["second_factor_identifier"]; ok && id != nil {
		return true
	}
	return false
}

// Elevate returns the user with superadmin appended when the verified email
// is on the root-admin allow-list. The elevation is recomputed on every call
// and never persisted, so removing an address from the allow-list takes
// effect immediately.
func (s *Service) Elevate(u *models.User) *models.User {
	if u == nil || u.Email == "" {
		return u
	}
	email := strings.ToLower(u.Email)
	for _, admin := range s.rootAdmins {
		if admin == email {
			return u.WithRole(models.RoleSuperadmin)
		}
	}
	return u
}

func (s *Service) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	return s.repo.GetByUID(ctx, uid)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// AssignRoles overwrites a user's role set with the allow-listed subset of
// raw. Returns ErrInvalidRoles when nothing valid remains after filtering,
// and (nil, nil) when the user does not exist.
func (s *Service) AssignRoles(ctx context.Context, uid string, raw []string) (*models.User, error) {
	roles := models.NormalizeRoles(raw)
	if len(roles) == 0 {
		return nil, ErrInvalidRoles
	}
	return s.repo.SetRoles(ctx, uid, roles)
}
