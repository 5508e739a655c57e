package auth

import (
	"errors"
	"slices"

	"github.com/geocoder89/staroracle/internal/domain/user"
)

var ErrForbidden = errors.New("forbidden")

type Permission string

const (
	PermAccount  Permission = "account"
	PermResearch Permission = "research"
	PermAdmin    Permission = "admin"
)

// Admin satisfies research checks because it is listed, not because of
// any inheritance.
var rolePermissions = map[Permission][]user.Role{
	PermAccount:  {user.RoleObserver, user.RoleResearcher, user.RoleAdmin},
	PermResearch: {user.RoleResearcher, user.RoleAdmin},
	PermAdmin:    {user.RoleAdmin},
}

func AllowedRoles(p Permission) []user.Role {
	return slices.Clone(rolePermissions[p])
}

func Require(u user.User, allowed []user.Role) (user.User, error) {
	if !slices.Contains(allowed, u.Role) {
		return user.User{}, ErrForbidden
	}
	return u, nil
}

func RequirePermission(u user.User, p Permission) (user.User, error) {
	return Require(u, rolePermissions[p])
}
