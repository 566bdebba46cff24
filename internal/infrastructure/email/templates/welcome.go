// Package templates provides email template components
package templates

import (
	"bytes"
	"html/template"
	"log"

	"github.com/speakaboutai/micdrop-go/internal/domain/content"
)

// ToolsWelcomeProps carries everything the post-capture email needs.
type ToolsWelcomeProps struct {
	VisitorName string
	TalkTitle   string
	SpeakerName string
	PageURL     string
	Gpts        []content.CustomGPT
	Downloads   []content.Download
}

var toolsWelcomeTemplate = template.Must(template.New("toolsWelcome").Parse(`
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">Hi {{.Greeting}},</p>
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">Thanks for attending <strong>{{.TalkTitle}}</strong>. Here is everything {{.SpeakerName}} shared, in one place.</p>
{{if .Gpts}}
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: bold; margin: 0; margin-bottom: 8px;">Custom GPTs</p>
<ul style="font-family: Helvetica, sans-serif; font-size: 16px; margin: 0; margin-bottom: 16px; padding-left: 20px;">
{{range .Gpts}}  <li style="margin-bottom: 8px;"><a href="{{.URL}}" target="_blank" style="color: #0867ec;">{{.Name}}</a>{{if .Description}} &ndash; {{.Description}}{{end}}</li>
{{end}}</ul>
{{end}}
{{if .Downloads}}
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: bold; margin: 0; margin-bottom: 8px;">Downloads</p>
<ul style="font-family: Helvetica, sans-serif; font-size: 16px; margin: 0; margin-bottom: 16px; padding-left: 20px;">
{{range .Downloads}}  <li style="margin-bottom: 8px;"><a href="{{.FileURL}}" target="_blank" style="color: #0867ec;">{{.Title}}</a>{{if .Description}} &ndash; {{.Description}}{{end}}</li>
{{end}}</ul>
{{end}}
<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: 100%;" width="100%">
  <tbody>
    <tr>
      <td align="left" style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; padding-bottom: 16px;" valign="top">
        <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: auto;">
          <tbody>
            <tr>
              <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; border-radius: 4px; text-align: center; background-color: #0867ec;" valign="top" align="center" bgcolor="#0867ec">
                <a href="{{.PageURL}}" target="_blank" style="border: solid 2px #0867ec; border-radius: 4px; box-sizing: border-box; cursor: pointer; display: inline-block; font-size: 16px; font-weight: bold; margin: 0; padding: 12px 24px; text-decoration: none; background-color: #0867ec; border-color: #0867ec; color: #ffffff;">Revisit the talk page</a>
              </td>
            </tr>
          </tbody>
        </table>
      </td>
    </tr>
  </tbody>
</table>
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0;">{{.SpeakerName}}</p>`))

type toolsWelcomeData struct {
	Greeting    string
	TalkTitle   string
	SpeakerName string
	PageURL     string
	Gpts        []content.CustomGPT
	Downloads   []content.Download
}

// GetToolsWelcomeContent renders the body of the post-capture email.
func GetToolsWelcomeContent(props ToolsWelcomeProps) string {
	greeting := props.VisitorName
	if greeting == "" {
		greeting = "there"
	}

	data := toolsWelcomeData{
		Greeting:    greeting,
		TalkTitle:   props.TalkTitle,
		SpeakerName: props.SpeakerName,
		PageURL:     props.PageURL,
		Gpts:        props.Gpts,
		Downloads:   props.Downloads,
	}

	var buf bytes.Buffer
	if err := toolsWelcomeTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing tools welcome template: %v", err)
		return "<p>Your talk resources are ready.</p>"
	}

	return buf.String()
}
