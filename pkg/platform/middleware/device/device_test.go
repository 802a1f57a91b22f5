package device

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type LabelSuite struct {
	suite.Suite
}

func TestLabelSuite(t *testing.T) {
	suite.Run(t, new(LabelSuite))
}

func (s *LabelSuite) TestLabel() {
	s.Run("empty user agent returns unknown device", func() {
		s.Equal("Unknown Device", Label("  "))
	})

	s.Run("chrome on desktop mac", func() {
		ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		s.Equal("Chrome on macOS", Label(ua))
	})

	s.Run("safari on iphone names the device", func() {
		ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
		label := Label(ua)
		s.Contains(label, " on ")
		s.Contains(label, "iPhone")
	})

	s.Run("firefox on linux", func() {
		ua := "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
		label := Label(ua)
		s.Contains(label, "Firefox")
		s.Contains(label, "Linux")
	})

	s.Run("unrecognised agent still yields a label", func() {
		s.NotEmpty(Label("payroll-cli/1.0"))
	})
}
