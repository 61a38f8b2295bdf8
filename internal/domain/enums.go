package domain

import "strings"

// UserType is the category a principal belongs to.
type UserType string

const (
	UserTypeInternal        UserType = "internal"
	UserTypeBusinessPartner UserType = "bp"
)

// ParseUserType maps a backend or claim value onto exactly one UserType.
// Unrecognized or empty values resolve to the business-partner category,
// which has the narrowest visibility.
func ParseUserType(raw string) UserType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "internal", "staff", "employee":
		return UserTypeInternal
	default:
		return UserTypeBusinessPartner
	}
}

// Well-known role names. Roles are free text; these are the ones the portal
// gives meaning to.
const (
	RoleAdmin      = "Admin"
	RoleAccounting = "Accounting"
	RoleSSPAdmins  = "SSP_Admins"
)

// SessionStatus is the tri-state of a session resolution.
type SessionStatus string

const (
	SessionUnknown         SessionStatus = "unknown"
	SessionAuthenticated   SessionStatus = "authenticated"
	SessionUnauthenticated SessionStatus = "unauthenticated"
)

// ItemStatus represents the lifecycle of an intake item.
type ItemStatus string

const (
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusUploading ItemStatus = "uploading"
	ItemStatusUploaded  ItemStatus = "uploaded"
	ItemStatusError     ItemStatus = "error"
)

// Decision is the outcome of a route guard evaluation.
type Decision string

const (
	DecisionAllow                Decision = "allow"
	DecisionRedirectLogin        Decision = "redirect_login"
	DecisionRedirectUnauthorized Decision = "redirect_unauthorized"
	DecisionPending              Decision = "pending"
)

// CredentialKind selects how a credential is attached to backend requests.
type CredentialKind string

const (
	CredentialCookie CredentialKind = "cookie"
	CredentialBearer CredentialKind = "bearer"
)

// JournalStatus represents the lifecycle of a blob in the upload journal.
type JournalStatus string

const (
	JournalStatusStored     JournalStatus = "stored"
	JournalStatusRegistered JournalStatus = "registered"
	JournalStatusOrphaned   JournalStatus = "orphaned"
)
