package engine

import "sync/atomic"

// View is a borrowed string read from runtime memory. It stays readable
// only until the next call into the runtime.
type View struct {
	data []byte
	gen  uint64
	cur  *atomic.Uint64
}

// Bytes returns the borrowed bytes, or ErrViewInvalidated if any engine
// call happened since the view was taken. The slice must not be retained.
func (v View) Bytes() ([]byte, error) {
	if v.cur == nil || v.cur.Load() != v.gen {
		return nil, ErrViewInvalidated
	}
	return v.data, nil
}

// String copies the view into an owned string.
func (v View) String() (string, error) {
	b, err := v.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Len returns the length of the view at the time it was taken.
func (v View) Len() int {
	return len(v.data)
}
