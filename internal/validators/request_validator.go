package validators

type CreateBloodRequestRequest struct {
	DonorID   string  `json:"donor_id" validate:"required,object_id"`
	BloodType string  `json:"blood_type" validate:"required,blood_type"`
	Urgency   string  `json:"urgency" validate:"required,urgency"`
	Message   string  `json:"message" validate:"omitempty,max=500"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Address   string  `json:"address" validate:"omitempty,max=255"`
}

type UpdateRequestStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=accepted rejected cancelled completed"`
	Message string `json:"message" validate:"omitempty,max=500"`
}

type NearbyRequestsQuery struct {
	Latitude  float64 `form:"lat" validate:"min=-90,max=90"`
	Longitude float64 `form:"lng" validate:"min=-180,max=180"`
	RadiusM   float64 `form:"radius" validate:"omitempty,min=1"`
	BloodType string  `form:"blood_type" validate:"omitempty,blood_type"`
	Urgency   string  `form:"urgency" validate:"omitempty,urgency"`
}

func ValidateCreateBloodRequest(req *CreateBloodRequestRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateUpdateRequestStatus(req *UpdateRequestStatusRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateNearbyRequestsQuery(q *NearbyRequestsQuery) ValidationErrors {
	return ValidateStruct(q)
}
