package ring_buffer

import "testing"

func TestRingBuffer_Add(t *testing.T) {
	t.Run("fill ring buffer with digits until it loops, and test that it works", func(t *testing.T) {
		ringBuffer := New(10)

		for i := 0; i < 20; i++ {
			ringBuffer.Add([]int16{int16(i)})
		}

		expected := []int16{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
		actual := ringBuffer.Read()

		if len(actual) != len(expected) {
			t.Fatalf("expected %d samples, got %d", len(expected), len(actual))
		}

		for i := 0; i < 10; i++ {
			if expected[i] != actual[i] {
				t.Errorf("expected %d, got %d", expected[i], actual[i])
			}
		}
	})

	t.Run("partially filled buffer only returns what was written", func(t *testing.T) {
		ringBuffer := New(10)
		ringBuffer.Add([]int16{7, 8, 9})

		actual := ringBuffer.Read()
		expected := []int16{7, 8, 9}

		if len(actual) != len(expected) {
			t.Fatalf("expected %d samples, got %d", len(expected), len(actual))
		}

		for i := range expected {
			if expected[i] != actual[i] {
				t.Errorf("expected %d, got %d", expected[i], actual[i])
			}
		}
	})

	t.Run("a single add larger than the buffer keeps the tail", func(t *testing.T) {
		ringBuffer := New(3)
		ringBuffer.Add([]int16{1, 2, 3, 4, 5})

		actual := ringBuffer.Read()
		expected := []int16{3, 4, 5}

		for i := range expected {
			if expected[i] != actual[i] {
				t.Errorf("expected %d, got %d", expected[i], actual[i])
			}
		}
	})
}

func TestRingBuffer_Clear(t *testing.T) {
	t.Run("clear empties the buffer", func(t *testing.T) {
		ringBuffer := New(4)
		ringBuffer.Add([]int16{1, 2, 3})
		ringBuffer.Clear()

		if got := len(ringBuffer.Read()); got != 0 {
			t.Errorf("expected empty buffer, got %d samples", got)
		}
	})
}
