package templates

import (
	"fmt"
	"html"
	"strings"
)

// ReminderLine is one medicine listed in a reminder email
type ReminderLine struct {
	Name         string
	Dosage       string
	Instructions string
}

// ReminderSubject returns the subject line for a period's reminder
func ReminderSubject(period string) string {
	return fmt.Sprintf("Medication Reminder - %s dose", period)
}

// RenderMedicationReminderEmail generates the HTML body listing the doses due in period
func RenderMedicationReminderEmail(name, period string, lines []ReminderLine) string {
	var items strings.Builder
	for _, l := range lines {
		parts := []string{html.EscapeString(l.Name)}
		if l.Dosage != "" {
			parts = append(parts, html.EscapeString(l.Dosage))
		}
		if l.Instructions != "" {
			parts = append(parts, html.EscapeString(l.Instructions))
		}
		items.WriteString("        <li>")
		items.WriteString(strings.Join(parts, " - "))
		items.WriteString("</li>\n")
	}

	safeName := html.EscapeString(name)
	safePeriod := html.EscapeString(period)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Medication Reminder</title>
  <style type="text/css">
    body { font-family: Arial, Helvetica, sans-serif; margin: 0; padding: 0; background-color: #f7fafc; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #4a5568; padding: 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; }
    .content { padding: 30px; color: #2d3748; line-height: 1.6; font-size: 15px; }
    .footer { padding: 20px 30px; text-align: center; color: #718096; font-size: 12px; border-top: 1px solid #e2e8f0; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Medication Reminder</h1>
    </div>
    <div class="content">
      <p>Hello %s,</p>
      <p>It's time to take your %s medication:</p>
      <ul>
%s      </ul>
      <p>Please remember to mark these medications as taken in your Patient Dashboard.</p>
    </div>
    <div class="footer">
      <p>Best regards,<br>Patient Tracker Team</p>
    </div>
  </div>
</body>
</html>`, safeName, safePeriod, items.String())
}

// RenderMedicationReminderText is the plain-text alternative of the reminder email
func RenderMedicationReminderText(name, period string, lines []ReminderLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nIt's time to take your %s medication:\n", name, period)
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l.Name)
		if l.Dosage != "" {
			b.WriteString(" - " + l.Dosage)
		}
		if l.Instructions != "" {
			b.WriteString(" - " + l.Instructions)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPlease remember to mark these medications as taken in your Patient Dashboard.\n")
	return b.String()
}
