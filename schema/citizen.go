package schema

const (
	CitizenCollection  = "citizen"
	HospitalCollection = "hospital"
	VaccineCollection  = "vaccinationsData"
)

// Citizen is a registered person together with the vaccinations they received.
// The order of Vaccinations is the registration order, the first element is
// the one reported.
type Citizen struct {
	FirstName        string        `json:"firstName" bson:"firstName" yaml:"firstName"`
	LastName         string        `json:"lastName" bson:"lastName" yaml:"lastName"`
	Age              int           `json:"age" bson:"age" yaml:"age"`
	Gender           string        `json:"gender" bson:"gender" yaml:"gender"`
	PhoneNo          string        `json:"phoneNo" bson:"phoneNo" yaml:"phoneNo"`
	LastHospitalCode int           `json:"lastHospitalCode" bson:"lastHospitalCode" yaml:"lastHospitalCode"`
	Vaccinations     []Vaccination `json:"vaccinations" bson:"vaccinations" yaml:"vaccinations"`
}

// Vaccination - a single vaccination event. Date is kept as it was
// registered, e.g. "Mon Jan 05 2021".
type Vaccination struct {
	Code int    `json:"code" bson:"code" yaml:"code"`
	Date string `json:"date" bson:"date" yaml:"date"`
}

// Hospital - hospital reference data
type Hospital struct {
	HospitalCode int    `json:"hospitalCode" bson:"hospitalCode" yaml:"hospitalCode"`
	Name         string `json:"name" bson:"name" yaml:"name"`
}

// VaccineDefinition - vaccine reference data
type VaccineDefinition struct {
	Code int    `json:"code" bson:"code" yaml:"code"`
	Name string `json:"name" bson:"name" yaml:"name"`
}
