package kernels

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/sbl8/lifestep/internal/testgrid"
)

var benchSizes = []int{64, 256, 1024}

func BenchmarkPartialSumsScalar(b *testing.B) { benchPartial(b, ModeScalar) }
func BenchmarkPartialSumsPacked(b *testing.B) { benchPartial(b, ModePacked) }

func benchPartial(b *testing.B, mode Mode) {
	for _, n := range benchSizes {
		g := testgrid.Random(rand.New(rand.NewSource(1)), n, n, 0.3)
		p := newPartial(g)
		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			b.SetBytes(int64(n * n))
			for i := 0; i < b.N; i++ {
				PartialSums(g, p, All(0, n), mode)
			}
		})
	}
}

func BenchmarkStepReference(b *testing.B)  { benchStepper(b, "reference") }
func BenchmarkStepSequential(b *testing.B) { benchStepper(b, "sequential") }
func BenchmarkStepPacked(b *testing.B)     { benchStepper(b, "packed") }

func benchStepper(b *testing.B, name string) {
	step := GetStepper(name)
	for _, n := range benchSizes {
		g := testgrid.Random(rand.New(rand.NewSource(1)), n, n, 0.3)
		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			b.SetBytes(int64(n * n))
			for i := 0; i < b.N; i++ {
				if err := step(g); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
