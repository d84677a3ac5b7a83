package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
)

func TestRoundPrice(t *testing.T) {
	cases := map[float64]float64{
		0:       0,
		35:      35,
		3.333:   3.33,
		2.5551:  2.56,
		19.999:  20,
		0.00499: 0,
	}
	for in, want := range cases {
		assert.InDelta(t, want, roundPrice(in), 1e-9, "round(%v)", in)
	}
}

func TestUserResponseHasNoPassword(t *testing.T) {
	u := &entity.User{UserID: 1, Username: "grace", Password: "hash"}
	b, err := json.Marshal(toUserResponse(u))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "password")
	assert.Equal(t, []any{}, m["hobbies"])
	assert.Equal(t, []any{}, m["orders"])
}

func TestToPatchOnlyCarriesProvidedFields(t *testing.T) {
	age := 31
	first, last := "Ada", "King"
	req := updateUserRequest{Age: &age, FullName: &fullNameRequest{FirstName: &first, LastName: &last}}

	p := req.toPatch()
	require.NotNil(t, p.Age)
	assert.Equal(t, 31, *p.Age)
	assert.Equal(t, &entity.FullName{FirstName: "Ada", LastName: "King"}, p.FullName)
	assert.Nil(t, p.Username)
	assert.Nil(t, p.Address)
	assert.Nil(t, p.Hobbies)
	assert.False(t, p.IsEmpty())
	assert.Nil(t, p.Orders)
	assert.True(t, (&updateUserRequest{}).toPatch().IsEmpty())

	name, price, qty := "pen", 2.0, 3.0
	withOrders := updateUserRequest{Orders: &[]orderRequest{{ProductName: &name, Price: &price, Quantity: &qty}}}
	p = withOrders.toPatch()
	require.NotNil(t, p.Orders)
	assert.Equal(t, []entity.Order{{ProductName: "pen", Price: 2, Quantity: 3}}, *p.Orders)
	assert.False(t, p.IsEmpty())

	cleared := (&updateUserRequest{Orders: &[]orderRequest{}}).toPatch()
	require.NotNil(t, cleared.Orders)
	assert.Empty(t, *cleared.Orders)
	assert.False(t, cleared.IsEmpty())
}
