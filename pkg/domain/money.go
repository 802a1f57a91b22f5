package domain

// Cents is an exact currency amount in minor units. JSON carries it as a
// decimal literal with two fraction digits so no float ever touches money.
type Cents int64

// ParseCents parses "500", "500.5" or "500.25" into cents.
func ParseCents(s string) (Cents, error) {
	n, err := parseFixed(s)
	return Cents(n), err
}

// IsPositive reports whether c > 0.
func (c Cents) IsPositive() bool { return c > 0 }

func (c Cents) String() string { return formatFixed(int64(c)) }

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(formatFixed(int64(c))), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	n, err := unmarshalFixed(data)
	if err != nil {
		return err
	}
	*c = Cents(n)
	return nil
}

// SumCents adds amounts exactly.
func SumCents(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
