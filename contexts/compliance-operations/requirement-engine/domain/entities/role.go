package entities

import "strings"

// Role is the fixed enumeration of practitioner roles tracked by the engine.
type Role string

const (
	RoleIT Role = "IT" // instructor trainee
	RoleIP Role = "IP" // instructor provisional
	RoleIC Role = "IC" // instructor certified
	RoleAP Role = "AP" // authorized provider
)

func ParseRole(raw string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RoleIT):
		return RoleIT, true
	case string(RoleIP):
		return RoleIP, true
	case string(RoleIC):
		return RoleIC, true
	case string(RoleAP):
		return RoleAP, true
	default:
		return "", false
	}
}

func IsValidRole(role Role) bool {
	switch role {
	case RoleIT, RoleIP, RoleIC, RoleAP:
		return true
	default:
		return false
	}
}
