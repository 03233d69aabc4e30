package pairing

import "errors"

// ErrUnknownPermission indicates a permission byte outside the defined set.
var ErrUnknownPermission = errors.New("pairing: unknown permission byte")

// Permission is a controller access level.
type Permission byte

const (
	// PermissionUser may control the accessory but not manage pairings.
	PermissionUser Permission = 0x00

	// PermissionAdmin may additionally add, remove and list pairings.
	PermissionAdmin Permission = 0x01
)

// PermissionFromByte decodes the canonical wire byte.
// Returns ErrUnknownPermission for any byte outside the defined set.
func PermissionFromByte(b byte) (Permission, error) {
	switch Permission(b) {
	case PermissionUser:
		return PermissionUser, nil
	case PermissionAdmin:
		return PermissionAdmin, nil
	default:
		return 0, ErrUnknownPermission
	}
}

// Byte returns the canonical wire encoding. Exact inverse of
// PermissionFromByte for the defined values.
func (p Permission) Byte() byte {
	return byte(p)
}

// String returns the permission name.
func (p Permission) String() string {
	switch p {
	case PermissionUser:
		return "USER"
	case PermissionAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}
