// Package registry provides a generic, thread-safe name registry that
// rejects duplicate registrations instead of silently overwriting.
//
//	units := registry.New[string, *machine.Unit]()
//	if err := units.Register("gripper", g); err != nil {
//	    // errors.Is(err, registry.ErrDuplicateKey)
//	}
//
// Keys are kept in registration order, which Keys and Range follow.
package registry
