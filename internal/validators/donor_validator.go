package validators

type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Address   string  `json:"address" validate:"omitempty,max=255"`
	BloodType string  `json:"blood_type" validate:"required,blood_type"`
}

type AvailabilityUpdateRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type NearbyDonorsQuery struct {
	Latitude  float64 `form:"lat" validate:"min=-90,max=90"`
	Longitude float64 `form:"lng" validate:"min=-180,max=180"`
	RadiusM   float64 `form:"radius" validate:"omitempty,min=1"`
	BloodType string  `form:"blood_type" validate:"omitempty,blood_type"`
	Limit     int     `form:"limit" validate:"omitempty,min=1"`
}

func ValidateLocationUpdate(req *LocationUpdateRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateAvailabilityUpdate(req *AvailabilityUpdateRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateNearbyDonorsQuery(q *NearbyDonorsQuery) ValidationErrors {
	return ValidateStruct(q)
}
