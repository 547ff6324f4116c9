package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("CHO_TEST_VALUE", "  console ")
	assert.Equal(t, "console", Get("CHO_TEST_VALUE", "json"))

	t.Setenv("CHO_TEST_VALUE", "   ")
	assert.Equal(t, "json", Get("CHO_TEST_VALUE", "json"))
}

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("CHO_TEST_A", "")
	t.Setenv("CHO_TEST_B", "8080")
	t.Setenv("CHO_TEST_C", "9090")
	assert.Equal(t, "8080", First("CHO_TEST_A", "CHO_TEST_B", "CHO_TEST_C"))
	assert.Equal(t, "", First("CHO_TEST_MISSING"))
}
