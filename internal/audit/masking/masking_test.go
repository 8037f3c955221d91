package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskContact(t *testing.T) {
	assert.Equal(t, "", MaskContact("  "))
	assert.Equal(t, "****", MaskContact("1234"))
	assert.Equal(t, "****5678", MaskContact("+62 812 5678"))
}

func TestMaskJSONOnlyTouchesContactFields(t *testing.T) {
	out := MaskJSON(map[string]any{
		"customer_id": int64(7),
		"phone":       "0812345678",
		"name":        "Budi",
		"":            "dropped",
		"contact":     map[string]any{"Email": "budi@example.com"},
	})

	assert.Equal(t, int64(7), out["customer_id"])
	assert.Equal(t, "****5678", out["phone"])
	assert.Equal(t, "Budi", out["name"])
	assert.NotContains(t, out, "")
	assert.Equal(t, map[string]any{"Email": "****.com"}, out["contact"])
	assert.Nil(t, MaskJSON(nil))
}
