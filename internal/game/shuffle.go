package game

// Shuffle permutes items in place with the Fisher-Yates algorithm:
// from the last index down to 1, swap i with a uniform j in [0, i].
func Shuffle[T any](items []T, rng RNG) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
