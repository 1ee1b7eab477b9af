package domain

// Roles carried in admin JWTs.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
