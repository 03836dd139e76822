package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type ProfileAPI interface {
	UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (model.UserProfile, error)
}

// blank treats empty, whitespace and the legacy "n/a" placeholder alike.
func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "n/a")
}

// MissingFields lists the required profile fields that are still blank, by
// their JSON names.
func MissingFields(p model.UserProfile) []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"email", p.Email},
		{"phone", p.Phone},
		{"gender", p.Gender},
		{"dob", p.DOB},
		{"address.city", p.Address.City},
		{"address.state", p.Address.State},
		{"address.country", p.Address.Country},
		{"address.zip", p.Address.Zip},
		{"address.address_village", p.Address.AddressVillage},
	}
	var missing []string
	for _, f := range required {
		if blank(f.value) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsComplete reports whether checkout may proceed for p.
func IsComplete(p model.UserProfile) bool {
	return len(MissingFields(p)) == 0
}

type FormField int

// Focus priority order.
const (
	FieldPersonalAddress FormField = iota
	FieldAddressVillage
	FieldCity
	FieldState
	FieldZip
	FieldCountry
	FieldLandmark
)

func (f FormField) String() string {
	switch f {
	case FieldPersonalAddress:
		return "personal_address"
	case FieldAddressVillage:
		return "address_village"
	case FieldCity:
		return "city"
	case FieldState:
		return "state"
	case FieldZip:
		return "zip"
	case FieldCountry:
		return "country"
	case FieldLandmark:
		return "landmark"
	default:
		return "unknown"
	}
}

// AddressForm backs the profile completion modal.
type AddressForm struct {
	PersonalAddress string
	AddressVillage  string
	City            string
	State           string
	Zip             string
	Country         string
	Landmark        string
}

func NewAddressForm(a model.Address) AddressForm {
	return AddressForm{
		PersonalAddress: a.PersonalAddress,
		AddressVillage:  a.AddressVillage,
		City:            a.City,
		State:           a.State,
		Zip:             a.Zip,
		Country:         a.Country,
		Landmark:        a.Landmark,
	}
}

// Value returns the form's value for field.
func (field FormField) Value(f AddressForm) string {
	switch field {
	case FieldPersonalAddress:
		return f.PersonalAddress
	case FieldAddressVillage:
		return f.AddressVillage
	case FieldCity:
		return f.City
	case FieldState:
		return f.State
	case FieldZip:
		return f.Zip
	case FieldCountry:
		return f.Country
	case FieldLandmark:
		return f.Landmark
	}
	return ""
}

func (field FormField) Set(f *AddressForm, v string) {
	switch field {
	case FieldPersonalAddress:
		f.PersonalAddress = v
	case FieldAddressVillage:
		f.AddressVillage = v
	case FieldCity:
		f.City = v
	case FieldState:
		f.State = v
	case FieldZip:
		f.Zip = v
	case FieldCountry:
		f.Country = v
	case FieldLandmark:
		f.Landmark = v
	}
}

// FocusField returns the first blank field in priority order, or the first
// field when everything is filled.
func (f AddressForm) FocusField() FormField {
	for field := FieldPersonalAddress; field <= FieldLandmark; field++ {
		if blank(field.Value(f)) {
			return field
		}
	}
	return FieldPersonalAddress
}

func (f AddressForm) address() model.Address {
	trim := strings.TrimSpace
	return model.Address{
		PersonalAddress: trim(f.PersonalAddress),
		AddressVillage:  trim(f.AddressVillage),
		City:            trim(f.City),
		State:           trim(f.State),
		Zip:             trim(f.Zip),
		Country:         trim(f.Country),
		Landmark:        trim(f.Landmark),
	}
}

// Gate decides when the profile completion modal opens and submits it. The
// auto-open fires at most once per page visit; Reset starts a new visit.
type Gate struct {
	api     ProfileAPI
	session *Session

	mu        sync.Mutex
	triggered bool
	open      bool
}

func NewGate(api ProfileAPI, session *Session) *Gate {
	return &Gate{api: api, session: session}
}

// ShouldPrompt evaluates the session profile and returns true the first time
// in this visit that a signed-in customer's profile is found incomplete.
func (g *Gate) ShouldPrompt() bool {
	if !g.session.Authenticated() {
		return false
	}
	profile, _ := g.session.Profile()
	if IsComplete(profile) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.triggered {
		return false
	}
	g.triggered = true
	g.open = true
	return true
}

// Reopen opens the modal regardless of the once-per-visit flag.
func (g *Gate) Reopen() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.triggered = true
	g.open = true
}

func (g *Gate) Dismiss() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = false
}

func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.triggered = false
	g.open = false
}

// Form returns the modal form pre-filled from the current profile.
func (g *Gate) Form() AddressForm {
	profile, _ := g.session.Profile()
	return NewAddressForm(profile.Address)
}

// Submit sends the filled-in address fields as a partial profile update and
// re-evaluates completeness against the profile the backend returns.
func (g *Gate) Submit(ctx context.Context, form AddressForm) (bool, error) {
	addr := form.address()
	updated, err := g.api.UpdateProfile(ctx, dto.UpdateProfileRequest{Address: &addr})
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	g.session.SetProfile(updated)

	complete := IsComplete(updated)
	if complete {
		g.Dismiss()
	}
	return complete, nil
}
