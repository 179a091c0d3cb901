package frame

// Source is anything that can provide frames over time: a replay
// directory, a mock scene, or a platform camera bridge.
type Source interface {
	Next() (*Frame, error)
}
