package models

// TripPermission is a user's access level on a trip. Levels form a strict
// total order: view < edit < owner.
type TripPermission string

const (
	PermissionView  TripPermission = "view"
	PermissionEdit  TripPermission = "edit"
	PermissionOwner TripPermission = "owner"
)

var permissionRank = map[TripPermission]int{
	PermissionView:  1,
	PermissionEdit:  2,
	PermissionOwner: 3,
}

// PermissionRank returns the ordering rank of p, or 0 for unknown values.
func PermissionRank(p TripPermission) int {
	return permissionRank[p]
}

// PermissionSatisfies reports whether the actual permission meets or exceeds
// the required one.
func PermissionSatisfies(required, actual TripPermission) bool {
	return permissionRank[actual] >= permissionRank[required]
}

// ResolveTripPermission computes a user's effective permission on a trip:
// admins and the trip owner get owner, everyone else gets their share row's
// permission if one exists. The second return is false when the user has no
// access at all. trip.Shares must hold the trip's share rows (all of them or
// at least the caller's).
func ResolveTripPermission(trip *Trip, userID uint, role UserRole) (TripPermission, bool) {
	if role == RoleAdmin {
		return PermissionOwner, true
	}
	if trip.UserID == userID {
		return PermissionOwner, true
	}
	for i := range trip.Shares {
		if trip.Shares[i].UserID == userID {
			return trip.Shares[i].Permission, true
		}
	}
	return "", false
}
