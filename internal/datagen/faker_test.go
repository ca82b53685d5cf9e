//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerFirstName(t *testing.T) {
	f := NewFaker()
	name := f.FirstName()
	if name == "" {
		t.Error("FirstName returned empty string")
	}
}

func TestFakerLastName(t *testing.T) {
	f := NewFaker()
	name := f.LastName()
	if name == "" {
		t.Error("LastName returned empty string")
	}
}

func TestFakerPhone(t *testing.T) {
	f := NewFaker()
	phone := f.Phone()
	if phone == "" {
		t.Error("Phone returned empty string")
	}
}

func TestFakerStreet(t *testing.T) {
	f := NewFaker()
	street := f.Street()
	if street == "" {
		t.Error("Street returned empty string")
	}
}

func TestFakerCity(t *testing.T) {
	f := NewFaker()
	city := f.City()
	if city == "" {
		t.Error("City returned empty string")
	}
}

func TestFakerState(t *testing.T) {
	f := NewFaker()
	state := f.State()
	if state == "" {
		t.Error("State returned empty string")
	}
	if len(state) != 2 {
		t.Errorf("State abbreviation should be 2 chars, got %d", len(state))
	}
}

func TestFakerZip(t *testing.T) {
	f := NewFaker()
	zip := f.Zip()
	if zip == "" {
		t.Error("Zip returned empty string")
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFaker()
	price := f.Price(10.0, 100.0)
	if price < 10.0 || price > 100.0 {
		t.Errorf("Price %f not in range [10, 100]", price)
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	d := f.DateRange(start, end)
	if d.Before(start) || d.After(end) {
		t.Errorf("DateRange %v not in range [%v, %v]", d, start, end)
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(5, 10)
		if v < 5 || v > 10 {
			t.Errorf("Int %d not in range [5, 10]", v)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(1.5, 3.5)
		if v < 1.5 || v > 3.5 {
			t.Errorf("Float64 %f not in range [1.5, 3.5]", v)
		}
	}
}

func TestFakerBool(t *testing.T) {
	f := NewFaker()
	trueCount := 0
	falseCount := 0

	for i := 0; i < 100; i++ {
		if f.Bool() {
			trueCount++
		} else {
			falseCount++
		}
	}

	// Should have a mix of true and false
	if trueCount == 0 || falseCount == 0 {
		t.Error("Bool should produce both true and false values")
	}
}

func TestFakerNullableString(t *testing.T) {
	f := NewFaker()

	// Test with 0% null probability
	for i := 0; i < 10; i++ {
		s := f.NullableString("test", 0.0)
		if s != "test" {
			t.Error("NullableString with 0% probability should always return string")
		}
	}

	// Test with 100% null probability
	for i := 0; i < 10; i++ {
		s := f.NullableString("test", 1.0)
		if s != "" {
			t.Error("NullableString with 100% probability should always return empty")
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 100; i++ {
		chosen := Choose(f, items)
		found := false
		for _, item := range items {
			if item == chosen {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned item not in slice: %s", chosen)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	var items []string

	chosen := Choose(f, items)
	if chosen != "" {
		t.Errorf("Choose on empty slice should return zero value, got: %s", chosen)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}
	weights := []int{1, 2, 7} // c should be chosen ~70% of the time

	counts := make(map[string]int)
	iterations := 1000

	for i := 0; i < iterations; i++ {
		chosen := ChooseWeighted(f, items, weights)
		counts[chosen]++
	}

	// c should be most common
	if counts["c"] < counts["a"] || counts["c"] < counts["b"] {
		t.Errorf("Weighted choice distribution unexpected: %v", counts)
	}
}

func TestChooseWeightedEmpty(t *testing.T) {
	f := NewFaker()
	var items []string
	var weights []int

	chosen := ChooseWeighted(f, items, weights)
	if chosen != "" {
		t.Errorf("ChooseWeighted on empty slices should return zero value, got: %s", chosen)
	}
}

// Benchmarks
func BenchmarkFakerInt(b *testing.B) {
	f := NewFaker()
	for i := 0; i < b.N; i++ {
		f.Int(0, 1000)
	}
}

func BenchmarkChoose(b *testing.B) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < b.N; i++ {
		Choose(f, items)
	}
}

func BenchmarkChooseWeighted(b *testing.B) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}
	weights := []int{1, 2, 3, 4, 5}
	for i := 0; i < b.N; i++ {
		ChooseWeighted(f, items, weights)
	}
}
