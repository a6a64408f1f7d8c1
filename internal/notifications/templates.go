package notifications

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/itechteam/formdesk/internal/domain/submission"
)

var funcs = template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"orNotProvided": func(v submission.Text) string {
		if v == "" {
			return "Not provided"
		}
		return string(v)
	},
}

var hireTmpl = template.Must(template.New("hire").Funcs(funcs).Parse(`You have received a new hire request.

Name: {{.R.Name}}
Email: {{.R.Email}}
Services Selected: {{join .R.Services}}
Service Type: {{.R.ServiceType}}
Business Type: {{.R.BusinessType}}
Project Description: {{.R.ProjectDescription}}
Budget (NGN): {{orNotProvided .R.BudgetNGN}}
Budget (USD): {{orNotProvided .R.BudgetUSD}}
Request received at: {{.At}}
`))

var businessTmpl = template.Must(template.New("business").Funcs(funcs).Parse(`You have received a new contact message from the Business Contact Us form.

Name: {{.R.Name}}
Email: {{.R.Email}}
Phone: {{.R.Phone}}
Business Category: {{.R.BusinessCategory}}
Selected Services: {{join .R.SelectedServices}}
Budget: {{.R.Budget}}
Description: {{.R.Description}}
Contact received at: {{.At}}
`))

var companyTmpl = template.Must(template.New("company").Funcs(funcs).Parse(`You have received a new contact message from the Company Contact Us form.

Name: {{.R.Name}}
Email: {{.R.Email}}
Phone: {{.R.Phone}}
Company Category: {{.R.CompanyCategory}}
Selected Services: {{join .R.SelectedServices}}
Budget: {{.R.Budget}}
Description: {{.R.Description}}
Contact received at: {{.At}}
`))

var mainTmpl = template.Must(template.New("main").Funcs(funcs).Parse(`You have received a new contact message from the Main Contact Us form.

Name: {{.R.Name}}
Email: {{.R.Email}}
Phone: {{.R.Phone}}
Description: {{.R.Description}}
Contact received at: {{.At}}
`))

const receivedAtLayout = "1/2/2006, 3:04:05 PM"

// Composer turns stored records into outgoing messages. Hire requests go
// back to the submitter; every contact form goes to Inbox.
type Composer struct {
	Inbox    string
	Location *time.Location
}

func (c Composer) HireRequest(r submission.HireRequest, at time.Time) (Message, error) {
	body, err := c.render(hireTmpl, r, at)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    string(submission.KindHireRequest),
		To:      r.Email,
		Subject: "New Hire Request: " + r.Name,
		Body:    body,
	}, nil
}

func (c Composer) BusinessContact(r submission.BusinessContact, at time.Time) (Message, error) {
	body, err := c.render(businessTmpl, r, at)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    string(submission.KindBusinessContact),
		To:      c.Inbox,
		Subject: "New Business Contact Us Message from " + r.Name,
		Body:    body,
	}, nil
}

func (c Composer) CompanyContact(r submission.CompanyContact, at time.Time) (Message, error) {
	body, err := c.render(companyTmpl, r, at)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    string(submission.KindCompanyContact),
		To:      c.Inbox,
		Subject: "New Company Contact Us Message from " + r.Name,
		Body:    body,
	}, nil
}

func (c Composer) MainContact(r submission.MainContact, at time.Time) (Message, error) {
	body, err := c.render(mainTmpl, r, at)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    string(submission.KindMainContact),
		To:      c.Inbox,
		Subject: "New Main Contact Us Message from " + r.Name,
		Body:    body,
	}, nil
}

func (c Composer) render(t *template.Template, record any, at time.Time) (string, error) {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}

	var buf bytes.Buffer
	err := t.Execute(&buf, struct {
		R  any
		At string
	}{R: record, At: at.In(loc).Format(receivedAtLayout)})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
