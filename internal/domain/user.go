package domain

// User role constants.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the minimal account view this core needs: admin identities for
// notification fan-out and buyer addresses for receipts.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
