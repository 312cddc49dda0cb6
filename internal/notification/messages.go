package notification

import "fmt"

const otpLifetimeText = "15 minutes"

func EmailVerificationOTP(to, otp string) Message {
	return Message{
		To:      to,
		Subject: "CUSAT Notice Board - Email Verification OTP",
		Body:    fmt.Sprintf("Your OTP for email verification is: %s. This OTP will expire in %s.", otp, otpLifetimeText),
	}
}

func PasswordResetOTP(to, otp string) Message {
	return Message{
		To:      to,
		Subject: "CUSAT Notice Board - Password Reset OTP",
		Body:    fmt.Sprintf("Your OTP for password reset is: %s. This OTP will expire in %s.", otp, otpLifetimeText),
	}
}

// FacultyPendingApproval tells the admin mailbox a faculty member is waiting.
func FacultyPendingApproval(adminEmail, facultyName, facultyEmail string) Message {
	return Message{
		To:      adminEmail,
		Subject: "New Faculty Registration - CUSAT Notice Board",
		Body: fmt.Sprintf("A new faculty member has verified their email:\n\nName: %s\nEmail: %s\n\n"+
			"Please review their account in the admin dashboard.", facultyName, facultyEmail),
	}
}
