package email

import (
	"bytes"
	"fmt"
	"html/template"

	"hvac-backend/internal/quoting"
)

// QuoteData feeds the "your quote" email.
type QuoteData struct {
	CompanyName string
	ClientName  string
	QuoteNumber string
	Items       []quoting.EmailItem
	Subtotal    string
	TaxRate     string
	TaxAmount   string
	Total       string
	ValidUntil  string
	ViewURL     string
	AcceptURL   string
	DeclineURL  string
}

// AcceptedData feeds the follow-up sent once a quote is accepted.
type AcceptedData struct {
	CompanyName string
	ClientName  string
	QuoteNumber string
	Total       string
	BookingURL  string
}

var (
	quoteTmpl = template.Must(template.New("quote").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>{{.CompanyName}}</h2>
<p>Bonjour {{.ClientName}},</p>
<p>Veuillez trouver ci-dessous votre devis n° <strong>{{.QuoteNumber}}</strong>.</p>
<table cellpadding="6" style="border-collapse:collapse;width:100%">
<tr style="background:#f3f4f6"><th align="left">Description</th><th align="right">Qté</th><th align="right">Prix unitaire</th><th align="right">Total</th></tr>
{{range .Items}}<tr><td>{{.Label}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.UnitPrice}} €</td><td align="right">{{.LineTotal}} €</td></tr>
{{end}}</table>
<p>Sous-total HTVA : {{.Subtotal}} €<br>TVA ({{.TaxRate}} %) : {{.TaxAmount}} €<br><strong>Total TVAC : {{.Total}} €</strong></p>
{{if .ValidUntil}}<p>Ce devis est valable jusqu'au {{.ValidUntil}}.</p>{{end}}
<p>
<a href="{{.AcceptURL}}" style="background:#16a34a;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Accepter le devis</a>
&nbsp;
<a href="{{.DeclineURL}}" style="background:#dc2626;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Refuser</a>
</p>
{{if .ViewURL}}<p><a href="{{.ViewURL}}">Voir le devis en ligne</a></p>{{end}}
</body></html>`))

	acceptedTmpl = template.Must(template.New("accepted").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>{{.CompanyName}}</h2>
<p>Bonjour {{.ClientName}},</p>
<p>Merci d'avoir accepté le devis n° <strong>{{.QuoteNumber}}</strong> ({{.Total}} € TVAC).</p>
{{if .BookingURL}}<p>Vous pouvez dès à présent réserver votre intervention :</p>
<p><a href="{{.BookingURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Prendre rendez-vous</a></p>
{{else}}<p>Nous vous contacterons rapidement pour planifier l'intervention.</p>{{end}}
</body></html>`))
)

// RenderQuote returns the subject and HTML body of the quote email.
func RenderQuote(d QuoteData) (string, string, error) {
	var buf bytes.Buffer
	if err := quoteTmpl.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render quote email: %w", err)
	}
	return fmt.Sprintf("Votre devis n° %s - %s", d.QuoteNumber, d.CompanyName), buf.String(), nil
}

func RenderAccepted(d AcceptedData) (string, string, error) {
	var buf bytes.Buffer
	if err := acceptedTmpl.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render accepted email: %w", err)
	}
	return fmt.Sprintf("Devis n° %s accepté - %s", d.QuoteNumber, d.CompanyName), buf.String(), nil
}

// QuoteSentSMS is the short text sent alongside the quote email.
func QuoteSentSMS(company, number, viewURL string) string {
	return fmt.Sprintf("%s : votre devis n° %s vous a été envoyé par e-mail. Consultez-le ici : %s", company, number, viewURL)
}
