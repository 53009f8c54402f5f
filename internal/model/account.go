package model

// Account represents a row in accounts.csv: a bank account owned by one of
// our clients. Accounts outside the bank are plain ids and have no row.
type Account struct {
	ID       int64
	ClientID int64
	IsDrop   bool // set once the owner has been used as a drop
}

// Client is the identity a drop is simulated for.
type Client struct {
	ID     int64
	Lat    float64
	Lon    float64
	City   string
	HomeIP string
}

// Role classifies how a drop gets rid of received money.
type Role string

const (
	RoleDistributor Role = "distributor"
	RolePurchaser   Role = "purchaser"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleDistributor || r == RolePurchaser
}
