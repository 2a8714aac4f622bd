package domain

import dErrors "solidarlink/pkg/domainerrors"

// CaseCategory classifies the kind of assistance a case asks for.
// The set is closed; unknown values are rejected at parse time.
type CaseCategory string

// Supported case categories.
const (
	CaseCategoryFood      CaseCategory = "FOOD"
	CaseCategoryMedical   CaseCategory = "MEDICAL"
	CaseCategoryShelter   CaseCategory = "SHELTER"
	CaseCategoryClothing  CaseCategory = "CLOTHING"
	CaseCategoryEducation CaseCategory = "EDUCATION"
	CaseCategoryOther     CaseCategory = "OTHER"
)

var validCaseCategories = map[CaseCategory]bool{
	CaseCategoryFood:      true,
	CaseCategoryMedical:   true,
	CaseCategoryShelter:   true,
	CaseCategoryClothing:  true,
	CaseCategoryEducation: true,
	CaseCategoryOther:     true,
}

// ParseCaseCategory constructs a CaseCategory from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseCaseCategory(s string) (CaseCategory, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category cannot be empty")
	}
	c := CaseCategory(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	return c, nil
}

// IsValid checks if the category is one of the supported enum values.
func (c CaseCategory) IsValid() bool {
	return validCaseCategories[c]
}

// String returns the string representation of the category.
func (c CaseCategory) String() string {
	return string(c)
}
