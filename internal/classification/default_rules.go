package classification

// nameEnd stops a payer name at the end of its sentence or clause, or before
// words that start payment details (via UPI, on 12 Oct, Ref 1234).
const nameEnd = `(?:\s+(?:via|on|using|through|ref|to|upi)\b|[,!;|\n]|\.(?:\s|$)|$)`

// DefaultRules returns the built-in rules for UPI payment notifications.
func DefaultRules() Rules {
	return Rules{
		// Anything that looks like a failed, pending or promotional event.
		RejectKeywords: []string{
			"failed",
			"failure",
			"request",
			"declined",
			"refund",
			"cashback",
			"otp",
			"one time password",
		},
		CreditKeywords: []string{
			"received",
			"credited",
			"sent you",
			"paid you",
		},
		// Matches: ₹100, Rs. 100, Rs 500, INR 1,000.00, Rupees: 50
		AmountPattern: `(?:₹|\brs\.?|\brup(?:ees?)?|\binr)\s*[:\-]?\s*([\d,]+(?:\.\d{1,2})?)`,
		PayerAnchors: []PayerAnchor{
			{Name: "received from", Pattern: `received from\s+(.+?)` + nameEnd},
			{Name: "paid you", Pattern: `^(.+?)\s+paid you`},
			{Name: "from", Pattern: `\bfrom\s+(.+?)` + nameEnd},
		},
	}
}
