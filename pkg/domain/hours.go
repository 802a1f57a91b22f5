package domain

// Hours is a duration of reported work in hundredths of an hour.
type Hours int64

// HoursPerDay is the most a single time log may report.
const HoursPerDay Hours = 24 * 100

// ParseHours parses "8", "7.5" or "7.25".
func ParseHours(s string) (Hours, error) {
	n, err := parseFixed(s)
	return Hours(n), err
}

// WholeHours builds an Hours value from an integral hour count.
func WholeHours(h int64) Hours { return Hours(h * 100) }

func (h Hours) String() string { return formatFixed(int64(h)) }

func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(formatFixed(int64(h))), nil
}

func (h *Hours) UnmarshalJSON(data []byte) error {
	n, err := unmarshalFixed(data)
	if err != nil {
		return err
	}
	*h = Hours(n)
	return nil
}
