package notify

import "html/template"

const layout = `{{define "layout"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">TurfEase</h1>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">{{template "body" .}}</div>
  <div style="background: #333; padding: 20px; text-align: center;">
    <p style="color: #999; margin: 0; font-size: 12px;">This is an automated email from TurfEase. Please do not reply.</p>
  </div>
</div>{{end}}`

var templates = map[string]*template.Template{
	"code": template.Must(template.Must(template.New("code").Parse(layout)).Parse(`{{define "body"}}
    <h2 style="color: #333;">{{if .Reissue}}New Verification OTP{{else}}Email Verification{{end}}</h2>
    <p>Hi {{.Name}},</p>
    <p>{{if .Reissue}}You requested a new verification code.{{else}}Thank you for registering with TurfEase.{{end}} Use the code below to verify your email address:</p>
    <div style="background: white; padding: 20px; text-align: center; border-radius: 10px;">
      <h1 style="color: #667eea; font-size: 32px; margin: 0; letter-spacing: 5px;">{{.Code}}</h1>
    </div>
    <p>This code expires in {{.Minutes}} minutes.</p>
    <p>If you did not create an account, please ignore this email.</p>
{{end}}`)),

	"approved": template.Must(template.Must(template.New("approved").Parse(layout)).Parse(`{{define "body"}}
    <h2 style="color: #10b981;">Account Approved!</h2>
    <p>Hi {{.Name}},</p>
    <p>Your turf owner account{{if .BusinessName}} for <strong>{{.BusinessName}}</strong>{{end}} has been approved. You can now log in and start listing your turfs.</p>
    {{if .Notes}}<p><strong>Notes from admin:</strong> {{.Notes}}</p>{{end}}
{{end}}`)),

	"rejected": template.Must(template.Must(template.New("rejected").Parse(layout)).Parse(`{{define "body"}}
    <h2 style="color: #ef4444;">Account Application Update</h2>
    <p>Hi {{.Name}},</p>
    <p>We reviewed your turf owner application{{if .BusinessName}} for <strong>{{.BusinessName}}</strong>{{end}} and are unable to approve it at this time.</p>
    {{if .Notes}}<p><strong>Reason:</strong> {{.Notes}}</p>{{end}}
    <p>If you have questions, reply to our support team.</p>
{{end}}`)),

	"reset": template.Must(template.Must(template.New("reset").Parse(layout)).Parse(`{{define "body"}}
    <h2 style="color: #333;">Password Reset</h2>
    <p>Hi {{.Name}},</p>
    <p>You requested a password reset. Click the link below to choose a new password:</p>
    <p><a href="{{.Link}}" style="color: #667eea;">Reset your password</a></p>
    <p>This link expires in {{.Minutes}} minutes. If you did not request a reset, ignore this email.</p>
{{end}}`)),
}
