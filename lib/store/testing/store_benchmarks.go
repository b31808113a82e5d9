package testing

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// RunIStoreBenchmarks runs all benchmarks for an IStore implementation
func RunIStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory)
		})

		b.Run("SetLargeValue", func(b *testing.B) {
			benchmarkSetLargeValue(b, factory)
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory)
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory)
		})

		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSet(b *testing.B, factory StoreFactory) {
	s := factory()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.Set(fmt.Sprintf("test-key-%d", counter), fmt.Sprintf("test-value-%d", counter))
			counter++
		}
	})
}

func benchmarkSetLargeValue(b *testing.B, factory StoreFactory) {
	s := factory()
	value := strings.Repeat("v", 100*1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.Set(fmt.Sprintf("test-key-%d", counter%100), value)
			counter++
		}
	})
}

func benchmarkGet(b *testing.B, factory StoreFactory) {
	s := factory()

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		s.Set(fmt.Sprintf("test-key-%d", i), fmt.Sprintf("test-value-%d", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			s.Get(fmt.Sprintf("test-key-%d", counter%numKeys))
			counter++
		}
	})
}

func benchmarkDelete(b *testing.B, factory StoreFactory) {
	s := factory()

	for i := 0; i < b.N; i++ {
		s.Set(fmt.Sprintf("test-key-%d", i), "value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Delete(fmt.Sprintf("test-key-%d", i))
	}
}

func benchmarkSaveLoad(b *testing.B, factory StoreFactory) {
	src := factory()
	dst := factory()

	for i := 0; i < 10_000; i++ {
		src.Set(fmt.Sprintf("test-key-%d", i), fmt.Sprintf("test-value-%d", i))
	}

	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if _, err := src.Save(&buf); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
		if _, err := dst.Load(&buf); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}

func benchmarkMixedUsage(b *testing.B, factory StoreFactory) {
	s := factory()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%1000)
			switch counter % 10 {
			case 0, 1, 2:
				s.Set(key, "value")
			case 3:
				s.Delete(key)
			default:
				s.Get(key)
			}
			counter++
		}
	})
}
