package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Welcome(t *testing.T) {
	data := ToMap(NewEmailData("Ada Lovelace", "ada", "ada@example.com",
		WithCompany("Acme", "Acme Store", "https://acme.test/help"),
		WithTime(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)),
	))

	subject, text, html, err := Render(Welcome, data)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Acme Store, Ada Lovelace", subject)
	assert.Contains(t, text, `Your account "ada" was created on 01 March 2024, 10:30.`)
	assert.Contains(t, text, "https://acme.test/help")
	assert.Contains(t, html, "<strong>ada</strong>")
}

func TestRender_OrderConfirmation(t *testing.T) {
	data := ToMap(NewEmailData("", "ada", "ada@example.com", WithOrder("Pen", 2.5, 4, 10)))

	subject, text, html, err := Render(OrderConfirmation, data)
	require.NoError(t, err)
	assert.Equal(t, "Order received: Pen", subject)
	assert.Contains(t, text, "Hi ada,")
	assert.Contains(t, text, "4 x 2.50 = 10.00")
	assert.Contains(t, html, "<td>10.00</td>")
}

func TestRender_AllTemplatesParse(t *testing.T) {
	for _, name := range Names {
		_, _, _, err := Render(name, ToMap(NewEmailData("n", "u", "e@example.com")))
		assert.NoError(t, err, name)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "fallback", defaultFn("fallback", ""))
	assert.Equal(t, "fallback", defaultFn("fallback", nil))
	assert.Equal(t, "fallback", defaultFn("fallback", 0))
	assert.Equal(t, "x", defaultFn("fallback", "x"))
}
