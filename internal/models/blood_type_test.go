package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloodTypeMatchesExactOnly(t *testing.T) {
	// Matching is exact equality across all eight types, no donor-recipient
	// medical compatibility.
	for _, donor := range AllBloodTypes {
		for _, requested := range AllBloodTypes {
			got := donor.Matches(requested)
			assert.Equal(t, donor == requested, got, "donor %s vs requested %s", donor, requested)
		}
	}
}

func TestUniversalDonorDoesNotMatchOthers(t *testing.T) {
	// O- is medically a universal donor but this engine matches literally.
	assert.False(t, BloodTypeONegative.Matches(BloodTypeAPositive))
	assert.False(t, BloodTypeONegative.Matches(BloodTypeABNegative))
	assert.True(t, BloodTypeONegative.Matches(BloodTypeONegative))
}

func TestIsValidBloodType(t *testing.T) {
	for _, bt := range AllBloodTypes {
		assert.True(t, IsValidBloodType(bt))
	}
	assert.False(t, IsValidBloodType(BloodType("C+")))
	assert.False(t, IsValidBloodType(BloodType("o+")))
	assert.False(t, IsValidBloodType(BloodType("")))
	assert.False(t, IsValidBloodType(BloodType("A")))
}
