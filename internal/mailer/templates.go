package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Dealership identifies the business in every email.
type Dealership struct {
	Name    string
	Phone   string
	Website string
}

// Templates renders email bodies. It is safe for concurrent use.
type Templates struct {
	dealership Dealership
	html       *htmltemplate.Template
	text       *texttemplate.Template
}

var leadKindLabels = map[string]string{
	domain.LeadInquiry:   "Vehicle inquiry",
	domain.LeadFinancing: "Financing application",
	domain.LeadTradeIn:   "Trade-in appraisal",
	domain.LeadContact:   "Contact request",
}

func funcs() map[string]any {
	return map[string]any{
		"money":     FormatMoney,
		"leadLabel": LeadLabel,
		"add":       func(a, b int) int { return a + b },
	}
}

// NewTemplates parses the embedded templates.
func NewTemplates(d Dealership) (*Templates, error) {
	html, err := htmltemplate.New("html").Funcs(funcs()).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.New("text").Funcs(funcs()).ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Templates{dealership: d, html: html, text: text}, nil
}

type orderData struct {
	Dealership Dealership
	Order      *domain.Order
}

type leadData struct {
	Dealership Dealership
	Lead       *domain.Lead
	Vehicle    *domain.Vehicle
}

// OrderAdmin renders the new-order notification sent to the dealership.
func (t *Templates) OrderAdmin(o *domain.Order) (*Content, error) {
	subject := fmt.Sprintf("New order %s from %s (%s)", shortID(o.ID), o.Customer.FullName(), FormatMoney(o.TotalAmount))
	return t.render("order_admin", subject, orderData{Dealership: t.dealership, Order: o})
}

// OrderCustomer renders the confirmation sent to the buyer.
func (t *Templates) OrderCustomer(o *domain.Order) (*Content, error) {
	subject := fmt.Sprintf("Your %s order %s is confirmed", t.dealership.Name, shortID(o.ID))
	return t.render("order_customer", subject, orderData{Dealership: t.dealership, Order: o})
}

// LeadDealer renders the lead notification sent to the dealership. v is the
// vehicle the lead refers to and may be nil.
func (t *Templates) LeadDealer(l *domain.Lead, v *domain.Vehicle) (*Content, error) {
	subject := fmt.Sprintf("%s from %s", LeadLabel(l.Kind), l.Name)
	if v != nil {
		subject += " about the " + v.Title()
	}
	return t.render("lead_dealer", subject, leadData{Dealership: t.dealership, Lead: l, Vehicle: v})
}

// LeadAck renders the courtesy acknowledgement sent to the shopper.
func (t *Templates) LeadAck(l *domain.Lead, v *domain.Vehicle) (*Content, error) {
	subject := fmt.Sprintf("We received your %s", strings.ToLower(LeadLabel(l.Kind)))
	return t.render("lead_ack", subject, leadData{Dealership: t.dealership, Lead: l, Vehicle: v})
}

func (t *Templates) render(name, subject string, data any) (*Content, error) {
	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := t.text.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", name, err)
	}
	return &Content{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

// LeadLabel returns the human-readable name of a lead kind.
func LeadLabel(kind string) string {
	if label, ok := leadKindLabels[kind]; ok {
		return label
	}
	return "Lead"
}

// FormatMoney renders an amount in US dollars with thousands separators,
// e.g. $27,500.50.
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + b.String() + "." + frac
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
