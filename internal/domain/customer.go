package domain

type CustomerStatus string

const (
	CustomerPending  CustomerStatus = "Pending"
	CustomerApproved CustomerStatus = "Approved"
	CustomerRejected CustomerStatus = "Rejected"
	CustomerDeleted  CustomerStatus = "Deleted"
)

// Customer is a registered chat user. ExternalID is the transport's user id,
// Username the display handle used by the admin gate.
type Customer struct {
	ID           int64          `db:"id"`
	ExternalID   string         `db:"external_id"`
	Username     string         `db:"username"`
	FullName     string         `db:"full_name"`
	Phone        string         `db:"phone"`
	Email        string         `db:"email"`
	Region       string         `db:"region"`
	CustomerType string         `db:"customer_type"`
	Status       CustomerStatus `db:"status"`
	IsAdmin      bool           `db:"is_admin"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
}

func (c *Customer) Approved() bool { return c != nil && c.Status == CustomerApproved }
