package ingredients

type Unit string

const (
	UnitGram     Unit = "g"
	UnitKilogram Unit = "kg"
	UnitMl       Unit = "ml"
	UnitLiter    Unit = "l"
	UnitPcs      Unit = "pcs"
)

type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit Unit   `json:"measurement_unit"`
}
