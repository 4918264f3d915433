package sessionstate

// Navigator is the host application's view of its current location.
type Navigator interface {
	// Location returns the current route path.
	Location() string
	// HardRedirect performs a full navigation to path, discarding in-app state.
	HardRedirect(path string)
}
