package services

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strings"
	"time"

	"bookwell/internal/models"
)

// Fallback copy used when a tenant has no template configured
const (
	DefaultReminderSubject = "Reminder: your {service_name} appointment on {appointment_date}"
	DefaultReminderBody    = "Hi {client_name},\n\n" +
		"This is a friendly reminder of your {service_name} appointment with {staff_name} " +
		"on {appointment_date} at {appointment_time}.\n\n" +
		"See you soon,\n{business_name}"
)

const (
	reminderDateLayout = "Monday, January 2, 2006"
	reminderTimeLayout = "3:04 PM"
)

// TemplateData holds the values placeholders resolve to
type TemplateData struct {
	ClientName      string
	FirstName       string
	ServiceName     string
	AppointmentDate string
	AppointmentTime string
	StaffName       string
	BusinessName    string
	Hours           float64
}

// NewTemplateData builds placeholder values for a reminder firing at sendAt, with
// times shown in the tenant's zone
func NewTemplateData(details *models.AppointmentDetails, sendAt time.Time) TemplateData {
	local := details.StartTime.In(details.Location())
	return TemplateData{
		ClientName:      details.CustomerName(),
		FirstName:       strings.TrimSpace(details.CustomerFirstName),
		ServiceName:     details.ServiceName,
		AppointmentDate: local.Format(reminderDateLayout),
		AppointmentTime: local.Format(reminderTimeLayout),
		StaffName:       details.StaffName,
		BusinessName:    details.BusinessName,
		Hours:           details.StartTime.Sub(sendAt).Hours(),
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{?\s*([A-Za-z_]+)\s*\}?\}`)

// RenderTemplate replaces known placeholders, case-insensitively, in {name} or
// {{name}} form. Unknown placeholders are left as written.
func RenderTemplate(tmpl string, data TemplateData) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := data.lookup(strings.ToLower(name)); ok {
			return value
		}
		return match
	})
}

func (d TemplateData) lookup(name string) (string, bool) {
	switch name {
	case "client_name", "customer_name":
		return orDefault(d.ClientName, "Valued Client"), true
	case "first_name":
		return orDefault(d.FirstName, "Valued Client"), true
	case "service_name", "service":
		return orDefault(d.ServiceName, "your service"), true
	case "appointment_date", "date":
		return d.AppointmentDate, true
	case "appointment_time", "time":
		return d.AppointmentTime, true
	case "staff_name", "staff":
		return orDefault(d.StaffName, "our team"), true
	case "business_name", "company_name":
		return orDefault(d.BusinessName, "our business"), true
	case "hours":
		return fmt.Sprintf("%d", int64(math.Round(d.Hours))), true
	case "days":
		return fmt.Sprintf("%d", int64(math.Round(d.Hours/24))), true
	}
	return "", false
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

const reminderEmailLayout = `<!DOCTYPE html>
<html>
<head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="background-color: #f6f9fc; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; padding: 0;">
    <div style="max-width: 580px; margin: 0 auto; padding: 24px;">
        <div style="background: #ffffff; border: 1px solid #e1e9ee; border-radius: 8px; padding: 24px;">
            <h1 style="font-size: 20px; color: #32325d; margin: 0 0 16px 0;">{{.Business}}</h1>
            {{range .Paragraphs}}<p style="color: #525f7f; margin: 0 0 16px 0;">{{range $i, $line := .}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
            {{end}}
        </div>
    </div>
</body>
</html>
`

var reminderEmailTemplate = template.Must(template.New("reminder_email").Parse(reminderEmailLayout))

// RenderEmailHTML escapes a rendered plain-text body into the reminder email layout.
// Blank lines separate paragraphs.
func RenderEmailHTML(body string, data TemplateData) (string, error) {
	var paragraphs [][]string
	for _, block := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			paragraphs = append(paragraphs, strings.Split(block, "\n"))
		}
	}

	var buf bytes.Buffer
	err := reminderEmailTemplate.Execute(&buf, map[string]any{
		"Business":   orDefault(data.BusinessName, "our business"),
		"Paragraphs": paragraphs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render reminder email: %w", err)
	}
	return buf.String(), nil
}
