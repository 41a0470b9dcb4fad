package blake3

import "golang.org/x/sync/errgroup"

// Join abstracts over running two independent subtree-hashing operations
// either on the calling goroutine or fanned out across goroutines. The
// standalone hashing functions and Hasher.Update use SerialJoin
// internally; UpdateParallel opts into ParallelJoin. Neither
// implementation may reorder its two results, and both must run operA and
// operB to completion before returning (subtree hashing is independent,
// so no ordering is observable in the result, but the pair must come back
// together).
type Join interface {
	join(operA, operB func())
}

// SerialJoin executes the left side then the right side on the calling
// goroutine. No suspension occurs. This is what Sum, SumKeyed, DeriveKey,
// and Hasher.Update use.
type SerialJoin struct{}

func (SerialJoin) join(operA, operB func()) {
	operA()
	operB()
}

// ParallelJoin runs the left and right sides concurrently, blocking the
// calling goroutine until both complete (a fork/join barrier). It is built
// on golang.org/x/sync/errgroup, the idiomatic replacement for a hand-rolled
// sync.WaitGroup when two tasks need to be awaited together; neither
// operA nor operB here can fail, so the errgroup's error return is always
// nil, but it is still the natural vehicle for "run these two, wait for
// both."
type ParallelJoin struct{}

func (ParallelJoin) join(operA, operB func()) {
	var g errgroup.Group
	g.Go(func() error {
		operA()
		return nil
	})
	g.Go(func() error {
		operB()
		return nil
	})
	_ = g.Wait()
}
