package email

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

const ConfirmationSubject = "✅ Reserva Confirmada - Coworking"

type Confirmation struct {
	Name        string
	Email       string
	Description string
	Amount      decimal.Decimal
	Reference   string
	ContactURL  string
}

func (c Confirmation) FormattedAmount() string {
	return "R$ " + c.Amount.StringFixed(2)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; }
    .content { padding: 20px; background-color: #f9f9f9; }
    .details { background-color: white; padding: 15px; margin: 15px 0; border-left: 4px solid #4CAF50; }
    .footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>Pagamento Confirmado!</h1></div>
    <div class="content">
      <h2>Olá, {{if .Name}}{{.Name}}{{else}}Cliente{{end}}!</h2>
      <p>Recebemos o seu pagamento e a sua reserva no coworking está confirmada.</p>
      <div class="details">
        <h3>Detalhes da Reserva</h3>
        <p><strong>Descrição:</strong> {{.Description}}</p>
        <p><strong>Valor:</strong> {{.FormattedAmount}}</p>
        <p><strong>Referência:</strong> {{.Reference}}</p>
        <p><strong>Email:</strong> {{.Email}}</p>
      </div>
      <p>Em breve enviaremos as instruções de acesso ao espaço.</p>
      {{if .ContactURL}}<p>Dúvidas? <a href="{{.ContactURL}}">Fale com a gente</a>.</p>{{end}}
      <p>Obrigado por escolher nosso coworking!</p>
    </div>
    <div class="footer">
      <p>Este é um email automático, não responda.</p>
      <p>Coworking - Espaços colaborativos</p>
    </div>
  </div>
</body>
</html>
`))

func RenderConfirmation(c Confirmation) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
