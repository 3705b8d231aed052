package device

// Arena tracks allocations so a kernel wrapper can release everything it
// acquired with a single deferred call, whichever statement returned early.
//
//	arena := device.NewArena(rt)
//	defer func() {
//		if rerr := device.Check(arena.Release()); err == nil {
//			err = rerr
//		}
//	}()
type Arena struct {
	rt   Runtime
	ptrs []Ptr
}

func NewArena(rt Runtime) *Arena {
	return &Arena{rt: rt}
}

// Alloc allocates count values and records the pointer on success.
func (a *Arena) Alloc(ptr *Ptr, count int) Status {
	var p Ptr
	if s := a.rt.Malloc(&p, count); s != Success {
		return s
	}
	a.ptrs = append(a.ptrs, p)
	*ptr = p
	return Success
}

// Len reports the number of live allocations.
func (a *Arena) Len() int {
	return len(a.ptrs)
}

// Release frees every recorded allocation in reverse order. All frees are
// attempted; the first failure is returned.
func (a *Arena) Release() Status {
	first := Success
	for i := len(a.ptrs) - 1; i >= 0; i-- {
		if s := a.rt.Free(a.ptrs[i]); s != Success && first == Success {
			first = s
		}
	}
	a.ptrs = a.ptrs[:0]
	return first
}
