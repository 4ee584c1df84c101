package domain

import "strings"

// Category a parcel belongs to (clothing, electronics, ...).
// Types are seeded once at bootstrap and only referenced by parcels afterwards.
type ParcelType struct {
	ID   int64
	Name string
}

func NewParcelType(name string) (ParcelType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ParcelType{}, invalid("parcel type name", "must not be empty")
	}
	return ParcelType{Name: name}, nil
}
