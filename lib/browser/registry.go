package browser

import "sync"

// ProfileRegistry tracks the user data directories currently bound to a
// live persistent context. Chromium corrupts a profile that two browser
// processes open at once, so a directory may be reserved at most once at a
// time.
//
// The zero value is not usable, build instances with NewProfileRegistry.
// One shared instance guards the whole process by default; tests inject
// their own through PersistentOptions.
type ProfileRegistry struct {
	mu   sync.Mutex
	dirs map[string]struct{}
}

func NewProfileRegistry() *ProfileRegistry {
	return &ProfileRegistry{dirs: map[string]struct{}{}}
}

var sharedProfiles = NewProfileRegistry()

// SharedProfiles returns the process-wide registry used by persistent
// managers that were not given one.
func SharedProfiles() *ProfileRegistry {
	return sharedProfiles
}

// InUse reports whether dir is currently reserved.
func (r *ProfileRegistry) InUse(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.dirs[dir]
	return ok
}

// Reserve claims dir and reports whether the claim succeeded. The check and
// the insert happen under one lock so two racing launches cannot both win.
func (r *ProfileRegistry) Reserve(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.dirs[dir]; taken {
		return false
	}
	r.dirs[dir] = struct{}{}
	return true
}

// Release frees dir. Releasing a directory that is not reserved is a no-op,
// the explicit close path and the disconnect callback may both get here.
func (r *ProfileRegistry) Release(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dirs, dir)
}
