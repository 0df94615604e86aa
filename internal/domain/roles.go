package domain

type Role string

const (
	// Customer can browse and book services for themselves
	RoleCustomer Role = "CUSTOMER"
	// Provider can publish services and manage incoming bookings
	RoleProvider Role = "PROVIDER"
	// Admin users get higher level privileges like user management
	RoleAdmin Role = "ADMIN"
)

func IsValidRole(r string) bool {
	return r == string(RoleCustomer) || r == string(RoleProvider) || r == string(RoleAdmin)
}
