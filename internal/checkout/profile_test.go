package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/client"
	"github.com/flicky/go-storefront/internal/model"
)

const identityJSON = `"first_name":"Asha","last_name":"Rao","email":"a@example.com",` +
	`"phone":"99","gender":"f","dob":"1990-01-01"`

func TestIsComplete_AddressShapes(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"valid json string", `"{\"city\":\"Pune\",\"state\":\"MH\",\"country\":\"IN\",\"zip\":\"411001\",\"address_village\":\"X\"}"`, true},
		{"invalid json string", `"{city:"`, false},
		{"object", `{"city":"Pune","state":"MH","country":"IN","zip":411001,"address_village":"X"}`, true},
		{"absent", ``, false},
		{"null", `null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "{" + identityJSON
			if tt.address != "" {
				raw += `,"address":` + tt.address
			}
			raw += "}"

			var p model.UserProfile
			require.NoError(t, json.Unmarshal([]byte(raw), &p))
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, IsComplete(p))
			})
		})
	}
}

func TestIsComplete_EmptyState(t *testing.T) {
	raw := `{` + identityJSON + `,"address":"{\"city\":\"Pune\",\"state\":\"\",\"country\":\"IN\",\"zip\":\"411001\",\"address_village\":\"X\"}"}`
	var p model.UserProfile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.False(t, IsComplete(p))
	assert.Equal(t, []string{"address.state"}, MissingFields(p))
}

func TestIsComplete_NASentinel(t *testing.T) {
	p := completeProfile()
	assert.True(t, IsComplete(p))

	p.Phone = " N/A "
	assert.False(t, IsComplete(p))
	assert.Equal(t, []string{"phone"}, MissingFields(p))
}

func TestAddressForm_FocusField(t *testing.T) {
	tests := []struct {
		form AddressForm
		want FormField
	}{
		{AddressForm{}, FieldPersonalAddress},
		{AddressForm{PersonalAddress: "1 Main"}, FieldAddressVillage},
		{AddressForm{PersonalAddress: "1 Main", AddressVillage: "V", City: "n/a"}, FieldCity},
		{AddressForm{PersonalAddress: "1", AddressVillage: "V", City: "C", State: "S", Zip: "Z"}, FieldCountry},
		{AddressForm{PersonalAddress: "1", AddressVillage: "V", City: "C", State: "S", Zip: "Z", Country: "IN"}, FieldLandmark},
		{AddressForm{PersonalAddress: "1", AddressVillage: "V", City: "C", State: "S", Zip: "Z", Country: "IN", Landmark: "L"}, FieldPersonalAddress},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.form.FocusField())
		})
	}
}

func TestGate_PromptsOncePerVisit(t *testing.T) {
	session := NewSession()
	p := completeProfile()
	p.Address.State = ""
	session.SignIn("tok", p)
	gate := NewGate(newMockBackend(), session)

	assert.True(t, gate.ShouldPrompt())
	assert.True(t, gate.IsOpen())
	gate.Dismiss()
	assert.False(t, gate.ShouldPrompt(), "re-render must not reopen")

	gate.Reset()
	assert.True(t, gate.ShouldPrompt(), "new visit prompts again")
}

func TestGate_NoPromptWhenSignedOutOrComplete(t *testing.T) {
	session := NewSession()
	gate := NewGate(newMockBackend(), session)
	assert.False(t, gate.ShouldPrompt())

	session.SignIn("tok", completeProfile())
	assert.False(t, gate.ShouldPrompt())
}

func TestGate_Submit(t *testing.T) {
	session := NewSession()
	p := completeProfile()
	p.Address.State = ""
	session.SignIn("tok", p)

	backend := newMockBackend()
	backend.profile = p
	gate := NewGate(backend, session)
	require.True(t, gate.ShouldPrompt())

	form := gate.Form()
	assert.Equal(t, "Pune", form.City)
	assert.Equal(t, FieldState, form.FocusField())
	form.State = "MH"

	complete, err := gate.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.False(t, gate.IsOpen())

	got, _ := session.Profile()
	assert.Equal(t, "MH", got.Address.State)
	require.Len(t, backend.profileReq, 1)
	assert.Nil(t, backend.profileReq[0].FirstName, "only address fields are sent")
}

func TestGate_Submit_SessionExpired(t *testing.T) {
	session := NewSession()
	session.SignIn("tok", model.UserProfile{})
	backend := newMockBackend()
	backend.profileErr = fmt.Errorf("update profile: %w", client.ErrUnauthenticated)
	gate := NewGate(backend, session)

	_, err := gate.Submit(context.Background(), AddressForm{City: "Pune"})
	require.Error(t, err)
	assert.Equal(t, RouteLogin, RedirectFor(err))
}

func TestFormField_SetValue(t *testing.T) {
	var form AddressForm
	for field := FieldPersonalAddress; field <= FieldLandmark; field++ {
		field.Set(&form, field.String())
	}
	for field := FieldPersonalAddress; field <= FieldLandmark; field++ {
		assert.Equal(t, field.String(), field.Value(form))
	}
	assert.Equal(t, "city", form.City)
	assert.Equal(t, "", FormField(99).Value(form))
}
