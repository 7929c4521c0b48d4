package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Load is a freight posting (a "truck" in the mobile client)
type Load struct {
	ID                  string         `json:"id"`
	CurrentLocation     string         `json:"currentLocation"`
	DestinationLocation string         `json:"destinationLocation"`
	Weight              float64        `json:"weight"`
	Dimensions          Dimensions     `json:"dimensions"`
	ContactDetails      ContactDetails `json:"contactDetails"`
	ReceiptURL          *string        `json:"receiptUrl,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           *time.Time     `json:"updatedAt,omitempty"`
	DeletedAt           *time.Time     `json:"deletedAt,omitempty"`
}

type Dimensions struct {
	Length float64 `json:"length"`
}

type ContactDetails struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// LoadFields are the writable fields of a load, already validated.
type LoadFields struct {
	CurrentLocation     string         `json:"currentLocation"`
	DestinationLocation string         `json:"destinationLocation"`
	Weight              float64        `json:"weight"`
	Dimensions          Dimensions     `json:"dimensions"`
	ContactDetails      ContactDetails `json:"contactDetails"`
}

// Patch turns the full field set into a patch touching every column.
func (f LoadFields) Patch() LoadPatch {
	return LoadPatch{
		CurrentLocation:     &f.CurrentLocation,
		DestinationLocation: &f.DestinationLocation,
		Weight:              &f.Weight,
		Length:              &f.Dimensions.Length,
		Phone:               &f.ContactDetails.Phone,
		Email:               &f.ContactDetails.Email,
	}
}

// LoadPatch is a partial update. Pointers allow partial updates.
type LoadPatch struct {
	CurrentLocation     *string  `json:"currentLocation,omitempty"`
	DestinationLocation *string  `json:"destinationLocation,omitempty"`
	Weight              *float64 `json:"weight,omitempty"`
	Length              *float64 `json:"length,omitempty"`
	Phone               *string  `json:"phone,omitempty"`
	Email               *string  `json:"email,omitempty"`
}

// Validate rejects non-finite numbers in the patch.
func (p LoadPatch) Validate() error {
	if p.Weight != nil && !finite(*p.Weight) {
		return &ValidationError{Field: "weight", Reason: "must be a number"}
	}
	if p.Length != nil && !finite(*p.Length) {
		return &ValidationError{Field: "length", Reason: "must be a number"}
	}
	return nil
}

// LoadDraft is the raw text of the load form, exactly as typed.
type LoadDraft struct {
	CurrentLocation     string `json:"currentLocation"`
	DestinationLocation string `json:"destinationLocation"`
	Weight              string `json:"weight"`
	Length              string `json:"length"`
	Phone               string `json:"phone"`
	Email               string `json:"email"`
}

// DraftFromLoad pre-fills a draft for editing an existing load.
func DraftFromLoad(l *Load) LoadDraft {
	if l == nil {
		return LoadDraft{}
	}
	return LoadDraft{
		CurrentLocation:     l.CurrentLocation,
		DestinationLocation: l.DestinationLocation,
		Weight:              strconv.FormatFloat(l.Weight, 'f', -1, 64),
		Length:              strconv.FormatFloat(l.Dimensions.Length, 'f', -1, 64),
		Phone:               l.ContactDetails.Phone,
		Email:               l.ContactDetails.Email,
	}
}

// Fields parses the numeric inputs. Address strings are kept verbatim.
func (d LoadDraft) Fields() (LoadFields, error) {
	weight, err := parseNumber("weight", d.Weight)
	if err != nil {
		return LoadFields{}, err
	}
	length, err := parseNumber("length", d.Length)
	if err != nil {
		return LoadFields{}, err
	}
	return LoadFields{
		CurrentLocation:     d.CurrentLocation,
		DestinationLocation: d.DestinationLocation,
		Weight:              weight,
		Dimensions:          Dimensions{Length: length},
		ContactDetails: ContactDetails{
			Phone: d.Phone,
			Email: d.Email,
		},
	}, nil
}

func parseNumber(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !finite(v) {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
