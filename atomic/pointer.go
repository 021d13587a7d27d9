package atomic

// Pointer is an atomic *T with element-stride arithmetic. FetchAdd(n)
// advances the stored pointer by n*unsafe.Sizeof(T) bytes. As with
// unsafe.Add, the result must stay within the allocation the pointer
// refers to.
type Pointer[T any] struct {
	Value[*T]
}

// NewPointer returns a Pointer holding p.
func NewPointer[T any](p *T) *Pointer[T] {
	x := new(Pointer[T])
	x.slot = p
	return x
}

// FetchAdd advances by n elements and returns the previous pointer.
func (p *Pointer[T]) FetchAdd(n int) *T { return p.FetchAddExplicit(n, SeqCst) }

// FetchAddExplicit is FetchAdd with order o.
func (p *Pointer[T]) FetchAddExplicit(n int, o MemoryOrder) *T {
	l, c := p.env()
	return fetchPtr(l, c, n, o)
}

// FetchSub moves back by n elements and returns the previous pointer.
func (p *Pointer[T]) FetchSub(n int) *T { return p.FetchAddExplicit(-n, SeqCst) }

// FetchSubExplicit is FetchSub with order o.
func (p *Pointer[T]) FetchSubExplicit(n int, o MemoryOrder) *T { return p.FetchAddExplicit(-n, o) }

// Inc advances by one element and returns the new pointer.
func (p *Pointer[T]) Inc() *T { return advance(p.FetchAdd(1), 1) }

// Dec moves back by one element and returns the new pointer.
func (p *Pointer[T]) Dec() *T { return advance(p.FetchSub(1), -1) }

// PostInc advances by one element and returns the previous pointer.
func (p *Pointer[T]) PostInc() *T { return p.FetchAdd(1) }

// PostDec moves back by one element and returns the previous pointer.
func (p *Pointer[T]) PostDec() *T { return p.FetchSub(1) }
