package stream

import (
	"sync"

	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/step"
)

// rtcSampleCap mirrors router.DetectRTCOffset's own sample size; capping
// the placement-ref scan here too avoids walking every candidate on a
// huge file just to throw away everything past the first 50.
const rtcSampleCap = 50

// detectRTC gathers up to rtcSampleCap building-element placement refs
// in true scanner order (not phase-split order, so the result does not
// depend on how phase 1/phase 2 happen to partition the file) and runs
// router.DetectRTCOffset on them.
func detectRTC(idx *step.EntityIndex, dec *step.Decoder, unitScale, threshold float64) (RTCOffset, bool) {
	var refs []uint32
	for _, id := range idx.IDsInOrder() {
		if len(refs) >= rtcSampleCap {
			break
		}
		t, ok := idx.TypeName(id)
		if !ok || !(simpleElementTypes[t] || complexElementTypes[t]) {
			continue
		}
		e, err := dec.DecodeByID(id)
		if err != nil {
			continue
		}
		if ref, ok := e.RefAt(5); ok {
			refs = append(refs, ref)
		}
	}
	return router.DetectRTCOffset(refs, dec, unitScale, threshold)
}

// runBounded runs fn(0..n-1) across at most workers concurrent
// goroutines, the same buffered-channel-semaphore idiom the router uses
// for its own BRep batch triangulation.
func runBounded(n, workers int, fn func(i int)) {
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
