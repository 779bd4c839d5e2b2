package experiment

// DiscountedReturns returns the discounted return following each time
// step of an episode with the given rewards. The return at t is
// Σ_{i≥0} discount^i * rewards[t+i].
func DiscountedReturns(rewards []float64, discount float64) []float64 {
	returns := make([]float64, len(rewards))

	var g float64
	for t := len(rewards) - 1; t >= 0; t-- {
		g = rewards[t] + discount*g
		returns[t] = g
	}
	return returns
}
