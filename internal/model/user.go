package model

import "time"

// User represents an account in the `users` table.  Accounts exist only
// for site administrators; visitors never log in.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "admin" or "user".
//  Active       – inactive accounts cannot authenticate.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    Active       bool      // users.active
    CreatedAt    time.Time // users.created_at
}

const (
    RoleAdmin = "admin"
    RoleUser  = "user"
)
