package domain

import "time"

type Role string

const (
	RoleBuyer     Role = "buyer"
	RoleCommunity Role = "community"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleCommunity
}

type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Role      Role      `bson:"role" json:"role"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   string
	Role Role
}
