package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var resetPasswordTmpl = template.Must(template.ParseFS(templateFS, "templates/reset_password.html"))

// ResetPasswordSubject é o assunto do e-mail de recuperação.
const ResetPasswordSubject = "Recuperación de contraseña"

// ResetPasswordLink monta o link do frontend: <frontendURL>/auth/reset-password?token=...&email=...
func ResetPasswordLink(frontendURL, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(frontendURL, "/") + "/auth/reset-password?" + q.Encode()
}

// ResetPasswordMessage monta o e-mail de recuperação com o link e a validade do token.
func ResetPasswordMessage(to, frontendURL, token string, ttl time.Duration) (Message, error) {
	link := ResetPasswordLink(frontendURL, token, to)
	hours := int(ttl / time.Hour)

	var buf bytes.Buffer
	err := resetPasswordTmpl.Execute(&buf, struct {
		Link           string
		ExpiresInHours int
	}{Link: link, ExpiresInHours: hours})
	if err != nil {
		return Message{}, fmt.Errorf("render reset password email: %w", err)
	}

	text := fmt.Sprintf("Hemos recibido una solicitud para restablecer la contraseña de tu cuenta.\n\n"+
		"Abre el siguiente enlace para continuar:\n%s\n\n"+
		"Este enlace expirará en %d horas. Si no solicitaste este cambio, ignora este correo.\n", link, hours)

	return Message{To: to, Subject: ResetPasswordSubject, HTML: buf.String(), Text: text}, nil
}
