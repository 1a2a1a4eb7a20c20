package gateway

import (
	"strings"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

var (
	errSessionRequired = apperr.New(apperr.SessionExpired, "session expired, please log in again")
	errAdminRequired   = apperr.New(apperr.AdminRequired, "administrator access required")
	errAccessDenied    = apperr.New(apperr.AccessDenied, "access denied")
	errOwnership       = apperr.New(apperr.OwnershipViolation, "you do not have access to this resource")
	errGuestEmail      = apperr.New(apperr.GuestEmailMismatch, "email does not match this resource")
)

// authorize applies the session, admin and group layers. Failures never say
// which requirement was missed beyond the code.
func authorize(ep Endpoint, user *authdomain.User) error {
	if !ep.needsSession() {
		return nil
	}
	if user == nil {
		return errSessionRequired
	}
	if ep.Access == Admin && !user.IsAdmin() {
		return errAdminRequired
	}
	if len(ep.Groups) > 0 && !user.IsAdmin() && !user.HasAnyGroup(ep.Groups...) {
		return errAccessDenied
	}
	return nil
}

// Owner identifies whose a resource is for the ownership gate.
type Owner struct {
	PartnerID uint
	Email     string
}

// CheckOwnership admits the owning partner, admins, or an anonymous caller
// presenting the owner's email as guestEmail.
func CheckOwnership(user *authdomain.User, owner Owner, guestEmail string) error {
	if user != nil {
		if user.IsAdmin() {
			return nil
		}
		if user.PartnerID != nil && *user.PartnerID == owner.PartnerID {
			return nil
		}
	}
	guestEmail = strings.TrimSpace(guestEmail)
	if guestEmail == "" {
		return errOwnership
	}
	if owner.Email != "" && strings.EqualFold(guestEmail, strings.TrimSpace(owner.Email)) {
		return nil
	}
	return errGuestEmail
}

// RequirePlatformAdmin admits only admins not bound to a storefront.
func RequirePlatformAdmin(c *Call) error {
	if c.User == nil || !c.User.IsAdmin() || c.User.TenantID != nil {
		return errAdminRequired
	}
	return nil
}
