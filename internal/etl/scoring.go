package etl

// Fixed weights of the simulation scoring rule. There is no partial credit.
const (
	CorrectWeight   = 4.07
	IncorrectWeight = -1.0175
	BlankWeight     = 0.0
)

// Score computes the total score of a fact group.
func Score(correct, incorrect, blank int) float64 {
	return float64(correct)*CorrectWeight +
		float64(incorrect)*IncorrectWeight +
		float64(blank)*BlankWeight
}
