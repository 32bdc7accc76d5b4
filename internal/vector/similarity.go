package vector

// InnerProduct returns the dot product of a and b, or 0 when their lengths differ.
// Embeddings are L2-normalised, so this is their cosine similarity.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i, v := range a {
		dot += float64(v) * float64(b[i])
	}
	return dot
}
