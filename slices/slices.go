package slices

func Map[T, V any](s []T, f func(T) V) []V {
	result := make([]V, len(s))
	for i, v := range s {
		result[i] = f(v)
	}
	return result
}

func Filter[T any](s []T, keep func(T) bool) []T {
	result := []T{}
	for _, v := range s {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result
}
