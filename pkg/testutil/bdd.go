package testutil

import "testing"

// Given, When and Then name the steps of a scenario test. Each step is a
// subtest, so a failing step is reported by its sentence.
func Given(t *testing.T, situation string, step func(t *testing.T)) bool {
	t.Helper()
	return t.Run("given "+situation, step)
}

func When(t *testing.T, action string, step func(t *testing.T)) bool {
	t.Helper()
	return t.Run("when "+action, step)
}

func Then(t *testing.T, outcome string, step func(t *testing.T)) bool {
	t.Helper()
	return t.Run("then "+outcome, step)
}
