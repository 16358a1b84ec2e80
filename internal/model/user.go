package model

import "time"

// Roles a user can hold. Admins manage offerings and may cancel any
// reservation; customers book seats for themselves.
const (
    RoleCustomer = "customer"
    RoleAdmin    = "admin"
)

// User represents an application user record as stored in the
// `users` table. PasswordHash never leaves the service layer; handlers
// render their own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  Phone        – contact phone number.
//  Country      – country of residence.
//  NationalID   – optional national identifier, unique when present.
//  Role         – customer or admin.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FirstName    string    // users.first_name
    LastName     string    // users.last_name
    Phone        string    // users.phone
    Country      string    // users.country
    NationalID   *string   // users.national_id (nullable)
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// Principal is the authenticated caller of a core operation.
type Principal struct {
    UserID uint64 `json:"user_id"`
    Role   string `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
