package validate

// DefaultCases are the literal sentences every validation run exercises.
// They cover short padded inputs, punctuation, a long sentence, unicode,
// and code-flavored text, so a pooling or masking defect in the candidate
// artifact shows up against at least one of them.
var DefaultCases = []string{
	"This is a test sentence.",
	"Machine learning is fascinating.",
	"The quick brown fox jumps over the lazy dog.",
	"Sentence embeddings place semantically similar text close together on the unit hypersphere.",
	"On-device inference keeps user data on the phone instead of a server.",
	"Short.",
	"Das ist ein kurzer deutscher Satz.",
	"func main() { fmt.Println(\"hello\") }",
}
