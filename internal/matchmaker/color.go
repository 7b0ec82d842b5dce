package matchmaker

// ResolveColors returns the color for side a, or false when both sides
// demand the same fixed color. coin is consulted only when both are random.
func ResolveColors(a, b ColorChoice, coin func() bool) (Color, bool) {
	switch {
	case a == ChoiceRandom && b == ChoiceRandom:
		if coin() {
			return White, true
		}
		return Black, true
	case a == ChoiceRandom:
		return Color(b).Opposite(), true
	case b == ChoiceRandom:
		return Color(a), true
	case a == b:
		return "", false
	default:
		return Color(a), true
	}
}
