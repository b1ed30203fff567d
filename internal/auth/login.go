package auth

import (
	"html/template"
	"net/http"

	"github.com/amercogo/MojKutakAdmin/internal/config"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="bs">
<head>
<meta charset="utf-8">
<title>Prijava</title>
</head>
<body>
<form method="post" action="{{.Action}}">
<label>Email <input type="email" name="email" required></label>
<label>Lozinka <input type="password" name="password" required></label>
<button type="submit">Prijavi se</button>
</form>
</body>
</html>
`))

func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, config.CTypeHTML)
	err := loginTemplate.Execute(w, struct{ Action string }{Action: r.URL.Path})
	if err != nil {
		authLogger.Error().Err(err).Msg("Error rendering login page")
	}
}
