package templates

import (
	"strings"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithCompany(name, appName, supportURL string) Option {
	return func(d *EmailData) {
		d.CompanyName = strings.TrimSpace(name)
		d.AppName = strings.TrimSpace(appName)
		d.SupportURL = strings.TrimSpace(supportURL)
	}
}

func WithOrder(productName string, price, quantity, lineTotal float64) Option {
	return func(d *EmailData) {
		d.ProductName = productName
		d.Price = price
		d.Quantity = quantity
		d.LineTotal = lineTotal
	}
}

// NewEmailData builds template data for a recipient.
func NewEmailData(name, username, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           strings.TrimSpace(name),
		Username:       username,
		Email:          email,
		RecipientEmail: email,
	}
	WithTime(time.Now())(&d)
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
