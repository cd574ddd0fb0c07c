package conversationsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeLimit kiểm tra clamp limit về khoảng [1, 100], giá trị không parse
// được thì dùng default
func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		def      int64
		expected int64
	}{
		{"rỗng dùng default", "", 20, 20},
		{"không parse được dùng default", "abc", 20, 20},
		{"số 0 clamp về 1", "0", 20, 1},
		{"số âm clamp về 1", "-5", 20, 1},
		{"quá lớn clamp về 100", "500", 20, 100},
		{"trong khoảng giữ nguyên", "50", 20, 50},
		{"default messages", "", 50, 50},
		{"biên dưới", "1", 20, 1},
		{"biên trên", "100", 20, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeLimit(tc.raw, tc.def))
		})
	}
}
