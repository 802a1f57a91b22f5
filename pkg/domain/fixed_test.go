package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "contractpay/pkg/domain-errors"
)

func TestParseCents(t *testing.T) {
	cases := map[string]Cents{
		"500":    50000,
		"500.5":  50050,
		"500.25": 50025,
		"0.01":   1,
		".75":    75,
		"-12.40": -1240,
	}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseCentsRejectsInexactInput(t *testing.T) {
	for _, in := range []string{"", "1.234", "1e3", "abc", "1.", ".", "--1", "1,50"} {
		_, err := ParseCents(in)
		require.Error(t, err, in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), in)
	}
}

func TestCentsJSON(t *testing.T) {
	var body struct {
		Amount Cents `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 700}`), &body))
	assert.Equal(t, Cents(70000), body.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "0.10"}`), &body))
	assert.Equal(t, Cents(10), body.Amount)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 0.10}`, string(out))

	assert.Equal(t, "-0.05", Cents(-5).String())
}

func TestSumCentsIsExact(t *testing.T) {
	// 0.1 + 0.2 is the classic float trap.
	assert.Equal(t, Cents(30), SumCents(10, 20))
	assert.Equal(t, "0.30", SumCents(10, 20).String())
}

func TestHoursJSON(t *testing.T) {
	var h Hours
	require.NoError(t, json.Unmarshal([]byte(`7.5`), &h))
	assert.Equal(t, Hours(750), h)
	assert.Equal(t, WholeHours(8), Hours(800))

	out, err := json.Marshal(WholeHours(8))
	require.NoError(t, err)
	assert.Equal(t, "8.00", string(out))
}

func TestParseIDs(t *testing.T) {
	_, err := ParseContractID("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseContractID("00000000-0000-0000-0000-000000000000")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	id, err := ParseTimeLogID(" 550e8400-e29b-41d4-a716-446655440000 ")
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
}
