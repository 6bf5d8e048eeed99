package notify

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// field is one labelled row of a submission summary.
type field struct {
	Label string
	Value string
}

type mailData struct {
	Company   string
	Greeting  string
	Heading   string
	Intro     string
	Fields    []field
	Message   string
	Signature string
}

const htmlLayout = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; background-color: #F1F5F9; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="background-color: #F1F5F9;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" style="margin: 0 auto; background-color: #FFFFFF; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="padding: 28px 40px; background-color: #0F3B5F; color: #FFFFFF; font-size: 22px; font-weight: 700;">{{.Company}}</td>
                    </tr>
                    <tr>
                        <td style="padding: 36px 40px 28px;">
                            {{if .Greeting}}<p style="margin: 0 0 16px; font-size: 16px; color: #0D1A2D;">{{.Greeting}}</p>{{end}}
                            <h2 style="margin: 0 0 12px; font-size: 24px; color: #0D1A2D;">{{.Heading}}</h2>
                            <p style="margin: 0 0 28px; font-size: 15px; line-height: 1.6; color: #475569;">{{.Intro}}</p>
                            <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="margin: 0 0 24px; border-collapse: collapse;">
                                {{range .Fields}}<tr>
                                    <td style="padding: 8px 12px; width: 40%; font-size: 14px; font-weight: 600; color: #334155; border-bottom: 1px solid #E2E8F0;">{{.Label}}</td>
                                    <td style="padding: 8px 12px; font-size: 14px; color: #0D1A2D; border-bottom: 1px solid #E2E8F0;">{{.Value}}</td>
                                </tr>{{end}}
                            </table>
                            {{if .Message}}<div style="padding: 16px 20px; background-color: #F8FAFC; border-left: 4px solid #0F3B5F; border-radius: 6px; font-size: 14px; line-height: 1.6; color: #334155; white-space: pre-wrap;">{{.Message}}</div>{{end}}
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 24px 40px; background-color: #F8FAFC; font-size: 13px; color: #64748B;">{{.Signature}}</td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

const textLayout = `{{if .Greeting}}{{.Greeting}}

{{end}}{{.Heading}}

{{.Intro}}

{{range .Fields}}{{.Label}}: {{.Value}}
{{end}}{{if .Message}}
{{.Message}}
{{end}}
{{.Signature}}
`

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlLayout))
	textTmpl = texttemplate.Must(texttemplate.New("text").Parse(textLayout))
)

// render produces the HTML and plain text bodies for data. Rows with an
// empty value are dropped.
func render(data mailData) (htmlBody, textBody string, err error) {
	kept := data.Fields[:0:0]
	for _, f := range data.Fields {
		if strings.TrimSpace(f.Value) != "" {
			kept = append(kept, f)
		}
	}
	data.Fields = kept

	var hb, tb bytes.Buffer
	if err := htmlTmpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := textTmpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
