package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
)

const waitlistSubject = "Welcome to Novi AI Waitlist! 🚀"

// SendWaitlistConfirmation 发送候补名单确认邮件。name 可为空。
func SendWaitlistConfirmation(ctx context.Context, m Mailer, to string, name string) error {
	return m.SendHTML(ctx, waitlistSubject, to, waitlistHTML(to, name))
}

func waitlistHTML(to string, name string) string {
	greeting := "<p>Hi there,</p>"
	if strings.TrimSpace(name) != "" {
		greeting = fmt.Sprintf("<p>Hi %s,</p>", html.EscapeString(strings.TrimSpace(name)))
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome to Novi AI</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .container { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); border-radius: 12px; padding: 40px; color: white; }
    .logo { font-size: 32px; font-weight: bold; margin-bottom: 20px; text-align: center; }
    .content { background: white; color: #333; padding: 30px; border-radius: 8px; margin-top: 20px; }
    .content h2 { color: #667eea; margin-top: 0; }
    .highlight { background: #f7f7f7; padding: 15px; border-radius: 6px; margin: 15px 0; }
    .footer { text-align: center; margin-top: 20px; font-size: 12px; color: rgba(255, 255, 255, 0.8); }
  </style>
</head>
<body>
  <div class="container">
    <div class="logo">✨ NOVI AI</div>
    <div class="content">
      <h2>Welcome to the Future of AI! 🎉</h2>
`)
	b.WriteString("      " + greeting + "\n")
	b.WriteString(`      <p>Thank you for joining the Novi AI waitlist! We're thrilled to have you on board as we build the next generation of AI task orchestration.</p>
      <div class="highlight">
        <strong>What's Next?</strong>
        <ul>
          <li>🔔 You'll be among the first to know when we launch</li>
          <li>🎁 Exclusive early access and special perks</li>
          <li>📰 Regular updates on our progress</li>
          <li>💡 Opportunities to shape the product with your feedback</li>
        </ul>
      </div>
      <p>We're working hard to create an amazing experience that will revolutionize how you work with AI. Stay tuned for updates!</p>
      <p style="margin-top: 30px;">Best regards,<br><strong>The Novi AI Team</strong></p>
    </div>
    <div class="footer">
`)
	b.WriteString(fmt.Sprintf("      <p>This email was sent to %s because you joined our waitlist.</p>\n", html.EscapeString(to)))
	b.WriteString(fmt.Sprintf("      <p>© %d Novi AI. All rights reserved.</p>\n", time.Now().Year()))
	b.WriteString(`    </div>
  </div>
</body>
</html>
`)
	return b.String()
}
