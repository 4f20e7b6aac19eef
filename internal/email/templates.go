// Copyright (c) 2026 CandidHQ. All rights reserved.

package email

import "fmt"

const layout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto; padding: 24px;">
%s
<p style="color: #888; font-size: 12px; margin-top: 32px;">
This is an automated message from Intake. Please do not reply.
</p>
</body>
</html>`

func welcomeBody(firstName, username, password, verificationURL string) string {
	content := fmt.Sprintf(`
<h2>Welcome, %s</h2>
<p>Your application has been received and your account is ready. Your login details are:</p>
<table style="border-collapse: collapse; margin: 16px 0;">
<tr><td style="padding: 4px 16px 4px 0;"><strong>Username</strong></td><td>%s</td></tr>
<tr><td style="padding: 4px 16px 4px 0;"><strong>Password</strong></td><td>%s</td></tr>
</table>
<p>Please change your password after your first login.</p>
<p>To activate your account, verify your email address:</p>
<p><a href="%s" style="display: inline-block; background: #0f3460; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Verify Email</a></p>`,
		firstName, username, password, verificationURL)
	return fmt.Sprintf(layout, content)
}

func verificationBody(firstName, verificationURL string) string {
	content := fmt.Sprintf(`
<h2>Hi %s</h2>
<p>Please confirm your email address to finish setting up your account:</p>
<p><a href="%s" style="display: inline-block; background: #0f3460; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Verify Email</a></p>
<p>If you did not create an account, you can ignore this message.</p>`,
		firstName, verificationURL)
	return fmt.Sprintf(layout, content)
}
