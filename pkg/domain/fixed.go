package domain

import (
	"bytes"
	"strconv"
	"strings"

	dErrors "contractpay/pkg/domain-errors"
)

// fixedScale is the number of fraction digits carried by Cents and Hours.
const fixedScale = 2

// parseFixed parses a plain decimal literal ("12", "-3.5", "0.25") into an
// integer scaled by 10^fixedScale. Exponents and more than two fraction digits
// are rejected rather than rounded.
func parseFixed(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "empty decimal value")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid decimal value")
	}
	if hasDot && frac == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid decimal value")
	}
	if len(frac) > fixedScale {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "at most two decimal places are allowed")
	}
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid decimal value")
			}
		}
	}
	frac += strings.Repeat("0", fixedScale-len(frac))
	if whole == "" {
		whole = "0"
	}
	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "decimal value out of range")
	}
	if neg {
		n = -n
	}
	return n, nil
}

// formatFixed renders a scaled integer with exactly two fraction digits.
func formatFixed(n int64) string {
	sign := ""
	u := uint64(n)
	if n < 0 {
		sign = "-"
		u = uint64(-n)
	}
	whole := u / 100
	frac := u % 100
	fs := strconv.FormatUint(frac, 10)
	if frac < 10 {
		fs = "0" + fs
	}
	return sign + strconv.FormatUint(whole, 10) + "." + fs
}

// unmarshalFixed accepts a JSON number or a JSON string holding a decimal.
func unmarshalFixed(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	return parseFixed(string(data))
}
