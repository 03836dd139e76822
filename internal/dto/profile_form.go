package dto

import "github.com/flicky/go-storefront/internal/model"

// FormFields flattens the request into multipart form values. Only provided
// fields are emitted.
func (r UpdateProfileRequest) FormFields() map[string]string {
	out := make(map[string]string)
	put := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	put("first_name", r.FirstName)
	put("last_name", r.LastName)
	put("phone", r.Phone)
	put("gender", r.Gender)
	put("dob", r.DOB)

	if a := r.Address; a != nil {
		for key, v := range map[string]string{
			"city":             a.City,
			"state":            a.State,
			"country":          a.Country,
			"zip":              a.Zip,
			"address_village":  a.AddressVillage,
			"landmark":         a.Landmark,
			"personal_address": a.PersonalAddress,
			"shoping_address":  a.ShopingAddress,
			"billing_address":  a.BillingAddress,
		} {
			if v != "" {
				out[key] = v
			}
		}
	}
	return out
}

// ParseProfileForm is the inverse of FormFields. lookup reports whether a key
// was present in the submitted form.
func ParseProfileForm(lookup func(key string) (string, bool)) UpdateProfileRequest {
	opt := func(key string) *string {
		if v, ok := lookup(key); ok {
			return &v
		}
		return nil
	}
	val := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	req := UpdateProfileRequest{
		FirstName: opt("first_name"),
		LastName:  opt("last_name"),
		Phone:     opt("phone"),
		Gender:    opt("gender"),
		DOB:       opt("dob"),
	}
	addr := model.Address{
		City:            val("city"),
		State:           val("state"),
		Country:         val("country"),
		Zip:             val("zip"),
		AddressVillage:  val("address_village"),
		Landmark:        val("landmark"),
		PersonalAddress: val("personal_address"),
		ShopingAddress:  val("shoping_address"),
		BillingAddress:  val("billing_address"),
	}
	if addr != (model.Address{}) {
		req.Address = &addr
	}
	return req
}
