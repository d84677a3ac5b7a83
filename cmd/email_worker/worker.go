package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-orders-service/pkg/helpers"
	"github.com/oksasatya/user-orders-service/pkg/mailer"
	mailtpl "github.com/oksasatya/user-orders-service/pkg/mailer/templates"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type outcome int

const (
	ack   outcome = iota
	drop          // nack without requeue: the message can never succeed
	retry         // nack with requeue: delivery failed, first attempt only
)

var errEmptyBody = errors.New("job has neither template nor body")

type worker struct {
	sender     Sender
	logger     *logrus.Logger
	timeout    time.Duration
	retryDelay time.Duration
}

// render resolves subject, text and html for the job.
func render(job *mailer.EmailJob) (subject, text, html string, err error) {
	helpers.EnsureRecipientAndEmail(job)
	helpers.NormalizeTemplate(job)

	subject, text, html = job.Subject, job.Text, job.HTML
	if job.Template != "" {
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return "", "", "", err
		}
	}
	if text == "" && html == "" {
		return "", "", "", errEmptyBody
	}
	if strings.TrimSpace(subject) == "" {
		subject = helpers.SubjectFor(job.Template)
	}
	return subject, text, html, nil
}

func (w *worker) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return drop
	}
	if strings.TrimSpace(job.To) == "" {
		w.logger.Warn("message without recipient")
		return drop
	}

	subject, text, html, err := render(&job)
	if err != nil {
		w.logger.WithError(err).WithField("template", job.Template).Warn("render failed")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		w.logger.WithError(err).WithField("template", job.Template).Error("send failed")
		return retry
	}
	w.logger.WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Info("email sent")
	return ack
}

// deliver handles one delivery. A send failure is requeued once after
// retryDelay; the redelivered copy is dropped if it fails again.
func (w *worker) deliver(ctx context.Context, body []byte, redelivered bool) outcome {
	o := w.handle(ctx, body)
	if o != retry {
		return o
	}
	if redelivered {
		w.logger.Warn("send failed on redelivery, dropping message")
		return drop
	}
	if w.retryDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
	return retry
}
