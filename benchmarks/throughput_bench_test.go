// Package benchmarks provides performance benchmarks for definition
// compilation.
package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/comalice/hybridx/internal/core"
)

func BenchmarkCompileBytes(b *testing.B) {
	for _, n := range []int{2, 10, 100} {
		b.Run(fmt.Sprintf("milestones=%d", n), func(b *testing.B) {
			data := GenDefinitionYAML(n, 6)
			c := core.NewCompiler(core.WithPeriod(Period))
			ctx := context.Background()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := c.CompileBytes(ctx, data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDescribe(b *testing.B) {
	a := mustCompile(b, GenChainConfig(100, 6))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := core.Describe(a); err != nil {
			b.Fatal(err)
		}
	}
}
