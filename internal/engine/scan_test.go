package engine

import (
	"testing"

	"github.com/danmuck/manholectl/internal/testutil/testlog"
)

func TestPendingClassification(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		src  string
		want bool
	}{
		{"complete expression", "101\n", false},
		{"complete call", "fmt.Println(\"hi\")\n", false},
		{"open brace", "if x > 1 {\n", true},
		{"open paren", "fmt.Println(\n", true},
		{"open bracket", "[]int{\n", true},
		{"nested open", "func f() {\n\tif true {\n", true},
		{"balanced block", "if x > 1 {\n\ty := 2\n\t_ = y\n}\n", false},
		{"raw string open", "s := `abc\n", true},
		{"raw string closed", "s := `abc`\n", false},
		{"block comment open", "/* note\n", true},
		{"block comment closed", "/* note */ 1\n", false},
		{"line comment hides brace", "// {\n", false},
		{"string hides brace", "s := \"{\"\n", false},
		{"char hides brace", "c := '{'\n", false},
		{"escaped quote", "s := \"a\\\"{\"\n", false},
		{"unterminated string stops at newline", "s := \"abc\n", false},
		{"extra closer is not open", ")(\n", false},
	}
	for _, tc := range cases {
		if got := Pending(tc.src); got != tc.want {
			t.Fatalf("%s: Pending(%q)=%v want %v", tc.name, tc.src, got, tc.want)
		}
	}
}
