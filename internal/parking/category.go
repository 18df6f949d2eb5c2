package parking

import (
	"fmt"
	"strings"
)

// Category is a slot class; every slot and vehicle belongs to exactly one.
type Category string

const (
	Regular     Category = "regular"
	Electric    Category = "electric"
	Handicapped Category = "handicapped"
)

// Categories lists every category in reporting order.
var Categories = []Category{Regular, Electric, Handicapped}

// DefaultCapacities is the slot count per category of a standard facility.
var DefaultCapacities = map[Category]int{
	Regular:     30,
	Electric:    20,
	Handicapped: 10,
}

func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	switch c {
	case Regular, Electric, Handicapped:
		return true
	}
	return false
}

// ParseCategory resolves a free-form category name such as "Electric " into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}
