package models

type BloodType string

const (
	BloodTypeAPositive  BloodType = "A+"
	BloodTypeANegative  BloodType = "A-"
	BloodTypeBPositive  BloodType = "B+"
	BloodTypeBNegative  BloodType = "B-"
	BloodTypeABPositive BloodType = "AB+"
	BloodTypeABNegative BloodType = "AB-"
	BloodTypeOPositive  BloodType = "O+"
	BloodTypeONegative  BloodType = "O-"
)

var AllBloodTypes = []BloodType{
	BloodTypeAPositive, BloodTypeANegative,
	BloodTypeBPositive, BloodTypeBNegative,
	BloodTypeABPositive, BloodTypeABNegative,
	BloodTypeOPositive, BloodTypeONegative,
}

func IsValidBloodType(bt BloodType) bool {
	for _, valid := range AllBloodTypes {
		if bt == valid {
			return true
		}
	}
	return false
}

// Matches reports whether a donor of type bt can serve a request for
// requested. Matching is exact equality; ABO/Rh cross-compatibility
// (O- as universal donor etc.) is intentionally not applied.
func (bt BloodType) Matches(requested BloodType) bool {
	return bt == requested
}
