package booking

import "strings"

// MaskEmail keeps the first character of the local part and the domain:
// jane@example.com -> j***@example.com.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskPhone keeps the last three digits and stars the rest:
// 9876543210 -> *******210. Formatting characters are dropped.
func MaskPhone(phone string) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) <= 3 {
		return string(digits)
	}
	return strings.Repeat("*", len(digits)-3) + string(digits[len(digits)-3:])
}

// Public returns the anonymous view of b: contact details masked, address,
// notes and reasons removed.
func Public(b Booking) Booking {
	return Booking{
		ID:          b.ID,
		Name:        b.Name,
		Email:       MaskEmail(b.Email),
		Phone:       MaskPhone(b.Phone),
		Date:        b.Date,
		Time:        b.Time,
		Service:     b.Service,
		EmailStatus: b.EmailStatus,
		CreatedAt:   b.CreatedAt,
	}
}
