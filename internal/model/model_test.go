package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile_UnmarshalJSON(t *testing.T) {
	id := uuid.New()

	t.Run("well typed", func(t *testing.T) {
		var p UserProfile
		raw := `{"id":"` + id.String() + `","first_name":"Asha","last_name":"Rao","email":"a@example.com",` +
			`"phone":"9876543210","gender":"female","dob":"2000-01-01","address":{"city":"Pune"}}`
		require.NoError(t, json.Unmarshal([]byte(raw), &p))
		assert.Equal(t, UserProfile{
			ID: id, FirstName: "Asha", LastName: "Rao", Email: "a@example.com",
			Phone: "9876543210", Gender: "female", DOB: "2000-01-01", Address: Address{City: "Pune"},
		}, p)
	})

	t.Run("numeric fields", func(t *testing.T) {
		var p UserProfile
		require.NoError(t, json.Unmarshal([]byte(`{"first_name":"Asha","phone":9876543210,"dob":20000101}`), &p))
		assert.Equal(t, "9876543210", p.Phone)
		assert.Equal(t, "20000101", p.DOB)
		assert.Equal(t, "Asha", p.FirstName)
	})

	t.Run("mistyped fields stay empty", func(t *testing.T) {
		var p UserProfile
		raw := `{"id":42,"first_name":{"x":1},"last_name":["Rao"],"phone":null,"email":"a@example.com","address":"nope"}`
		require.NoError(t, json.Unmarshal([]byte(raw), &p))
		assert.Equal(t, uuid.Nil, p.ID)
		assert.Empty(t, p.FirstName)
		assert.Empty(t, p.LastName)
		assert.Empty(t, p.Phone)
		assert.Equal(t, "a@example.com", p.Email)
		assert.Equal(t, Address{}, p.Address)
	})

	t.Run("nested in a response", func(t *testing.T) {
		var resp struct {
			User UserProfile `json:"user"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"user":{"phone":9876543210,"gender":true}}`), &resp))
		assert.Equal(t, "9876543210", resp.User.Phone)
		assert.Equal(t, "true", resp.User.Gender)
	})

	t.Run("not an object", func(t *testing.T) {
		var p UserProfile
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &p))
	})
}
