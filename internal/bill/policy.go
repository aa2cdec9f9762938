package bill

// DefaultLookAhead is how many future occurrences a recurring draft without
// an end date expands to.
const DefaultLookAhead = 12

const DefaultPaymentPrefix = "Payment: "

const DefaultUpcomingWindowDays = 7

// Policy holds the tunables of series generation and payment.
type Policy struct {
	// LookAhead caps generated recurrences beyond the root. Generation stops
	// at the end date or the cap, whichever comes first. Zero or less means
	// no cap when an end date is set and DefaultLookAhead otherwise.
	LookAhead int
	// PaymentPrefix starts the description of payment transactions.
	PaymentPrefix string
	// UpcomingWindowDays bounds the upcoming bucket of dashboard summaries.
	UpcomingWindowDays int
}

func DefaultPolicy() Policy {
	return Policy{
		LookAhead:          DefaultLookAhead,
		PaymentPrefix:      DefaultPaymentPrefix,
		UpcomingWindowDays: DefaultUpcomingWindowDays,
	}
}

func (p Policy) withDefaults() Policy {
	if p.PaymentPrefix == "" {
		p.PaymentPrefix = DefaultPaymentPrefix
	}

	if p.UpcomingWindowDays <= 0 {
		p.UpcomingWindowDays = DefaultUpcomingWindowDays
	}

	return p
}
