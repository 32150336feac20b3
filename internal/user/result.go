package user

import "github.com/voxaiomni/admin-core/internal/user/entity"

// Reason explains why a sign-in was rejected.
type Reason string

const (
	ReasonInvalidInput       Reason = "invalid_input"
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonStorageUnavailable Reason = "storage_unavailable"
)

// AuthResult is the outcome of one sign-in attempt. Role is set only when
// Success is true, Reason only when it is false.
type AuthResult struct {
	Success    bool
	Role       entity.Role
	Identifier string
	Reason     Reason
}

func accepted(identifier string, role entity.Role) AuthResult {
	return AuthResult{Success: true, Role: role, Identifier: identifier}
}

func rejected(identifier string, reason Reason) AuthResult {
	return AuthResult{Identifier: identifier, Reason: reason}
}

// Message is the user-facing text for the result.
func (r AuthResult) Message() string {
	if r.Success {
		if r.Role == entity.RoleClientAdmin {
			return "Sign in successful! (Client Admin)"
		}
		return "Sign in successful! (Super Admin)"
	}
	switch r.Reason {
	case ReasonInvalidInput:
		return "Invalid input."
	case ReasonStorageUnavailable:
		return "Sign in is temporarily unavailable."
	default:
		return "Invalid User ID or password."
	}
}

// Err maps a rejected result to its sentinel error; nil on success.
func (r AuthResult) Err() error {
	if r.Success {
		return nil
	}
	switch r.Reason {
	case ReasonInvalidInput:
		return ErrInvalidInput
	case ReasonStorageUnavailable:
		return ErrStorageUnavailable
	default:
		return ErrInvalidCredentials
	}
}
