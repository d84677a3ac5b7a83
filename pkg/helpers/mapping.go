package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/user-orders-service/pkg/mailer"
	mailtpl "github.com/oksasatya/user-orders-service/pkg/mailer/templates"
)

// SubjectFor returns a fallback subject for jobs that carry no template subject.
func SubjectFor(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.Welcome:
		return "Welcome aboard"
	case mailtpl.OrderConfirmation:
		return "We received your order"
	default:
		return "Notification"
	}
}

// EnsureRecipientAndEmail copies the job recipient into the template data.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// NormalizeTemplate lower-cases the template name and maps legacy aliases.
func NormalizeTemplate(job *mailer.EmailJob) {
	name := strings.ToLower(strings.TrimSpace(job.Template))
	switch name {
	case "user_created", "welcome_email":
		name = mailtpl.Welcome
	case "order_created", "order_receipt":
		name = mailtpl.OrderConfirmation
	}
	job.Template = name
}
