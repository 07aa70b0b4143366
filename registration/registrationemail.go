package registration

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	textTemplate "text/template"

	"github.com/International-Combat-Archery-Alliance/email"
)

//go:embed templates
var templates embed.FS

type confirmation struct {
	Name       string
	Kind       string
	Reference  string
	Sports     []SportEntry
	TotalFee   string
	AmountPaid string
	Paid       bool
}

func SendStudentConfirmationEmail(ctx context.Context, emailSender email.Sender, fromAddress string, s Student) error {
	return sendConfirmation(ctx, emailSender, fromAddress, s.Email, confirmation{
		Name:       fmt.Sprintf("%s %s", s.Details.FirstName, s.Details.LastName),
		Kind:       "student",
		Reference:  s.ID.String(),
		Sports:     s.Sports.Entries,
		TotalFee:   s.TotalFee.Display(),
		AmountPaid: formatMinor(s.Payment.AmountPaid, s.TotalFee.Currency().Code),
		Paid:       s.Paid(),
	})
}

func SendInstitutionConfirmationEmail(ctx context.Context, emailSender email.Sender, fromAddress string, i Institution) error {
	return sendConfirmation(ctx, emailSender, fromAddress, i.Email, confirmation{
		Name:       i.Details.Name,
		Kind:       "institution",
		Reference:  i.ID.String(),
		Sports:     i.Sports.Entries,
		TotalFee:   i.TotalFee.Display(),
		AmountPaid: formatMinor(i.Payment.AmountPaid, i.TotalFee.Currency().Code),
		Paid:       i.Paid(),
	})
}

func sendConfirmation(ctx context.Context, emailSender email.Sender, fromAddress string, to string, data confirmation) error {
	htmlBody, err := makeHtmlBody(data)
	if err != nil {
		return err
	}

	textOnlyBody, err := makeTextOnlyBody(data)
	if err != nil {
		return err
	}

	return emailSender.SendEmail(ctx, email.Email{
		FromAddress: fromAddress,
		ToAddresses: []string{to},
		Subject:     fmt.Sprintf("Sports festival registration received - %q", data.Name),
		HTMLBody:    htmlBody,
		TextBody:    textOnlyBody,
	})
}

func makeHtmlBody(data confirmation) (string, error) {
	tmpl, err := template.New("registration-confirmation.tmpl").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).ParseFS(templates, "templates/registration-confirmation.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func makeTextOnlyBody(data confirmation) (string, error) {
	tmpl, err := textTemplate.New("registration-confirmation-textonly.tmpl").Funcs(textTemplate.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).ParseFS(templates, "templates/registration-confirmation-textonly.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}
