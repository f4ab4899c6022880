package uid

// StringID is satisfied by any ID generator producing a string identifier.
// UUID and ObjectIDGenerator both implement it.
type StringID interface {
	Generate() string
}
