package handlers

import "html/template"

// playerPage is the HTML5 player rendered for /watch links in player mode.
var playerTemplate = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ .Title }}</title>
  <style>
    body { background-color: #0d1117; color: #c9d1d9; text-align: center; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", "Noto Sans", Helvetica, Arial, sans-serif; margin: 0; padding: 20px; }
    .container { max-width: 850px; margin: auto; }
    video { width: 100%; border-radius: 12px; box-shadow: 0 8px 24px rgba(0, 0, 0, 0.5); outline: none; margin-top: 20px; }
    h1 { font-size: 1.6rem; margin-top: 25px; font-weight: 600; }
    .footer { margin-top: 30px; font-size: 0.9rem; color: #8b949e; }
    a { color: #58a6ff; text-decoration: none; }
    a:hover { text-decoration: underline; }
  </style>
</head>
<body>
  <div class="container">
    <video controls autoplay playsinline>
      <source src="{{ .StreamURL }}" type="{{ .MIMEType }}">
      Your browser does not support the video tag.
    </video>
    <h1>{{ .Title }}</h1>
    <div class="footer">Powered by <a href="https://t.me/{{ .BotUsername }}" target="_blank">@{{ .BotUsername }}</a></div>
  </div>
</body>
</html>
`))

type playerData struct {
	Title       string
	StreamURL   string
	MIMEType    string
	BotUsername string
}
