package keys

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCombine_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same arguments give the same key", prop.ForAll(
		func(s string, n int64, b bool) bool {
			return Combine(s, n, b) == Combine(s, n, b) &&
				Combine([]any{s, n}, map[string]bool{s: b}) == Combine([]any{s, n}, map[string]bool{s: b})
		},
		gen.AnyString(),
		gen.Int64(),
		gen.Bool(),
	))

	properties.Property("short primitives stay literal, long ones are digested", prop.ForAll(
		func(s string, n int) bool {
			got := Combine(s, n)
			if len(s)+1+len(literal(n)) <= MaxLiteralLen {
				return strings.HasPrefix(got, s+"|")
			}
			return got == Digest(s, n) && len(got) == 64
		},
		gen.AlphaString(),
		gen.Int(),
	))

	properties.Property("structured arguments are always digested", prop.ForAll(
		func(xs []int) bool {
			return len(Combine(xs)) == 64
		},
		gen.SliceOf(gen.Int()),
	))

	properties.TestingRun(t)
}
