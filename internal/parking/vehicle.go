package parking

type Vehicle struct {
	LicensePlate string
	Category     Category
}

func NewVehicle(licensePlate string, category Category) Vehicle {
	return Vehicle{
		LicensePlate: licensePlate,
		Category:     category,
	}
}
