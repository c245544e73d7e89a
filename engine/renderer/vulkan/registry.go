package vulkan

// registry maps the opaque handles handed to the renderer to native objects.
// All registries of a backend share one counter so a handle is never reused.
type registry[T any] struct {
	next    *uint64
	objects map[uint64]T
}

func newRegistry[T any](next *uint64) *registry[T] {
	return &registry[T]{next: next, objects: make(map[uint64]T)}
}

func (r *registry[T]) add(obj T) uint64 {
	*r.next++
	r.objects[*r.next] = obj
	return *r.next
}

// get returns the zero value, a null native handle, for unknown handles.
func (r *registry[T]) get(h uint64) T {
	return r.objects[h]
}

func (r *registry[T]) remove(h uint64) (T, bool) {
	obj, ok := r.objects[h]
	delete(r.objects, h)
	return obj, ok
}

func (r *registry[T]) len() int {
	return len(r.objects)
}
