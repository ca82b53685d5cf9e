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
	"fmt"
	"strings"
)

// Size is a preset describing how large a generated dataset should be.
// Brand and category catalogs are fixed lists, so they do not scale.
type Size struct {
	// Name is the preset name.
	Name string

	// Stores is the number of stores.
	Stores int

	// StaffPerStore is the number of staff members at each store.
	StaffPerStore int

	// Customers is the number of customers.
	Customers int

	// Products is the number of products in the catalog.
	Products int

	// Orders is the number of orders.
	Orders int
}

var sizes = map[string]Size{
	"small": {
		Name:          "small",
		Stores:        3,
		StaffPerStore: 3,
		Customers:     150,
		Products:      60,
		Orders:        300,
	},
	"medium": {
		Name:          "medium",
		Stores:        6,
		StaffPerStore: 4,
		Customers:     2000,
		Products:      300,
		Orders:        8000,
	},
	"large": {
		Name:          "large",
		Stores:        12,
		StaffPerStore: 5,
		Customers:     25000,
		Products:      1200,
		Orders:        100000,
	},
}

// SizeFor returns the size preset with the given name.
func SizeFor(name string) (Size, error) {
	s, ok := sizes[strings.ToLower(name)]
	if !ok {
		return Size{}, fmt.Errorf("unknown size: %s (available: %s)",
			name, strings.Join(SizeNames(), ", "))
	}
	return s, nil
}

// SizeNames returns the available preset names from smallest to largest.
func SizeNames() []string {
	return []string{"small", "medium", "large"}
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
