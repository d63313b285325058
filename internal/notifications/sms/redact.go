package sms

// visibleDigits is how many trailing characters of a number stay readable.
const visibleDigits = 4

// RedactPhone masks a phone number for safe logging by replacing everything
// but the leading "+" and the last four characters with asterisks. For
// example, "+46701234567" becomes "+***4567".
//
// Numbers of four characters or fewer are masked entirely to prevent
// accidental PII exposure in logs.
func RedactPhone(number string) string {
	if number == "" {
		return ""
	}

	prefix := ""
	rest := number
	if rest[0] == '+' {
		prefix = "+"
		rest = rest[1:]
	}

	if len(rest) <= visibleDigits {
		return prefix + "***"
	}

	return prefix + "***" + rest[len(rest)-visibleDigits:]
}
