package handlers

import "github.com/oksasatya/user-orders-service/internal/domain/entity"

// Request payloads. Pointers distinguish "missing" from a zero value so that
// required checks are about presence and JSON type, not emptiness.

type fullNameRequest struct {
	FirstName *string `json:"firstName" binding:"required"`
	LastName  *string `json:"lastName" binding:"required"`
}

type addressRequest struct {
	Street  *string `json:"street" binding:"required"`
	City    *string `json:"city" binding:"required"`
	Country *string `json:"country" binding:"required"`
}

type orderRequest struct {
	ProductName *string  `json:"productName" binding:"required"`
	Price       *float64 `json:"price" binding:"required,nonnegative"`
	Quantity    *float64 `json:"quantity" binding:"required"`
}

type createUserRequest struct {
	UserID   *int64           `json:"userId" binding:"required,positive"`
	Username *string          `json:"username" binding:"required"`
	Password *string          `json:"password" binding:"required"`
	FullName *fullNameRequest `json:"fullName" binding:"required"`
	Age      *int             `json:"age" binding:"required,positive"`
	Email    *string          `json:"email" binding:"required,email"`
	IsActive *bool            `json:"isActive" binding:"required"`
	Hobbies  []string         `json:"hobbies" binding:"required"`
	Address  *addressRequest  `json:"address" binding:"required"`
	Orders   []orderRequest   `json:"orders" binding:"omitempty,dive"`
}

// createUserEnvelope accepts {"user": {...}} as well as the bare object.
type createUserEnvelope struct {
	User *createUserRequest `json:"user"`
}

type updateUserRequest struct {
	UserID   *int64           `json:"userId" binding:"omitempty,positive"`
	Username *string          `json:"username"`
	Password *string          `json:"password"`
	FullName *fullNameRequest `json:"fullName"`
	Age      *int             `json:"age" binding:"omitempty,positive"`
	Email    *string          `json:"email" binding:"omitempty,email"`
	IsActive *bool            `json:"isActive"`
	Hobbies  *[]string        `json:"hobbies"`
	Address  *addressRequest  `json:"address"`
	Orders   *[]orderRequest  `json:"orders" binding:"omitempty,dive"`
}

func (r *fullNameRequest) toEntity() entity.FullName {
	return entity.FullName{FirstName: *r.FirstName, LastName: *r.LastName}
}

func (r *addressRequest) toEntity() entity.Address {
	return entity.Address{Street: *r.Street, City: *r.City, Country: *r.Country}
}

func (r *orderRequest) toEntity() entity.Order {
	return entity.Order{ProductName: *r.ProductName, Price: *r.Price, Quantity: *r.Quantity}
}

func (r *createUserRequest) toEntity() *entity.User {
	orders := make([]entity.Order, 0, len(r.Orders))
	for i := range r.Orders {
		orders = append(orders, r.Orders[i].toEntity())
	}
	return &entity.User{
		UserID:   *r.UserID,
		Username: *r.Username,
		Password: *r.Password,
		FullName: r.FullName.toEntity(),
		Age:      *r.Age,
		Email:    *r.Email,
		IsActive: *r.IsActive,
		Hobbies:  r.Hobbies,
		Address:  r.Address.toEntity(),
		Orders:   orders,
	}
}

func (r *updateUserRequest) toPatch() entity.UserPatch {
	p := entity.UserPatch{
		Username: r.Username,
		Password: r.Password,
		Age:      r.Age,
		Email:    r.Email,
		IsActive: r.IsActive,
		Hobbies:  r.Hobbies,
	}
	if r.FullName != nil {
		fn := r.FullName.toEntity()
		p.FullName = &fn
	}
	if r.Address != nil {
		a := r.Address.toEntity()
		p.Address = &a
	}
	if r.Orders != nil {
		orders := make([]entity.Order, 0, len(*r.Orders))
		for i := range *r.Orders {
			orders = append(orders, (*r.Orders)[i].toEntity())
		}
		p.Orders = &orders
	}
	return p
}

// Response shapes. None of them has a password field.

type fullNameResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type addressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type orderResponse struct {
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
}

type userResponse struct {
	UserID   int64            `json:"userId"`
	Username string           `json:"username"`
	FullName fullNameResponse `json:"fullName"`
	Age      int              `json:"age"`
	Email    string           `json:"email"`
	IsActive bool             `json:"isActive"`
	Hobbies  []string         `json:"hobbies"`
	Address  addressResponse  `json:"address"`
	Orders   []orderResponse  `json:"orders"`
}

type userListItem struct {
	Username string           `json:"username"`
	FullName fullNameResponse `json:"fullName"`
	Age      int              `json:"age"`
	Email    string           `json:"email"`
	Address  addressResponse  `json:"address"`
}

type ordersResponse struct {
	Orders []orderResponse `json:"orders"`
}

type totalPriceResponse struct {
	TotalPrice float64 `json:"totalPrice"`
}

func toOrders(in []entity.Order) []orderResponse {
	out := make([]orderResponse, 0, len(in))
	for _, o := range in {
		out = append(out, orderResponse{ProductName: o.ProductName, Price: o.Price, Quantity: o.Quantity})
	}
	return out
}

func toUserResponse(u *entity.User) userResponse {
	hobbies := u.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}
	return userResponse{
		UserID:   u.UserID,
		Username: u.Username,
		FullName: fullNameResponse(u.FullName),
		Age:      u.Age,
		Email:    u.Email,
		IsActive: u.IsActive,
		Hobbies:  hobbies,
		Address:  addressResponse(u.Address),
		Orders:   toOrders(u.Orders),
	}
}

func toListItem(u entity.User) userListItem {
	return userListItem{
		Username: u.Username,
		FullName: fullNameResponse(u.FullName),
		Age:      u.Age,
		Email:    u.Email,
		Address:  addressResponse(u.Address),
	}
}
