package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the aggregate root for the user domain.
// Password holds a bcrypt hash once persisted and never leaves the service
// boundary; handlers serialize users through explicit response types.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	UserID   int64              `bson:"userId"`
	Username string             `bson:"username"`
	Password string             `bson:"password,omitempty"`
	FullName FullName           `bson:"fullName"`
	Age      int                `bson:"age"`
	Email    string             `bson:"email"`
	IsActive bool               `bson:"isActive"`
	Hobbies  []string           `bson:"hobbies"`
	Address  Address            `bson:"address"`
	Orders   []Order            `bson:"orders"`
}

type FullName struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
}

type Address struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	Country string `bson:"country"`
}

// Order is embedded in User and has no identity of its own.
type Order struct {
	ProductName string  `bson:"productName"`
	Price       float64 `bson:"price"`
	Quantity    float64 `bson:"quantity"`
}

// LineTotal is price times quantity.
func (o Order) LineTotal() float64 {
	return o.Price * o.Quantity
}

// UserPatch carries the top-level fields of an update. Nil fields are left
// untouched; provided fields replace the stored value as a whole.
type UserPatch struct {
	Username *string   `bson:"username,omitempty"`
	Password *string   `bson:"password,omitempty"`
	FullName *FullName `bson:"fullName,omitempty"`
	Age      *int      `bson:"age,omitempty"`
	Email    *string   `bson:"email,omitempty"`
	IsActive *bool     `bson:"isActive,omitempty"`
	Hobbies  *[]string `bson:"hobbies,omitempty"`
	Address  *Address  `bson:"address,omitempty"`
	Orders   *[]Order  `bson:"orders,omitempty"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Password == nil && p.FullName == nil && p.Age == nil &&
		p.Email == nil && p.IsActive == nil && p.Hobbies == nil && p.Address == nil && p.Orders == nil
}
