package stream

import (
	"github.com/google/uuid"

	"github.com/arx-os/ifcgeom/internal/collab"
	"github.com/arx-os/ifcgeom/internal/converter"
	"github.com/arx-os/ifcgeom/internal/step"
)

// RunInstanced is the alternative output mode: instead of one
// world-space mesh per element, it groups elements by geometry content
// hash and returns one shared mesh per group with a placed instance per
// element. Void subtraction is skipped — carving a host's openings
// makes its mesh unique and would defeat the sharing this mode exists
// for.
func (d *Driver) RunInstanced(idx *step.EntityIndex, dec *step.Decoder) (*Result, *converter.InstancedSet, error) {
	runID := uuid.New().String()

	simpleIDs, complexIDs := classifyCandidates(idx)

	rtcOffset, hasRTC := detectRTC(idx, dec, d.Router.UnitScale, d.Options.RTCThreshold)
	if hasRTC {
		d.Router.SetRTCOffset(rtcOffset)
	}

	styleResolver := d.Options.StyleResolver
	if styleResolver == nil {
		styleResolver = collab.NullStyleResolver{}
	}
	styleIdx, err := styleResolver.Resolve(idx, dec)
	if err != nil {
		styleIdx = collab.NewStyleIndex()
	}

	d.Router.RunBRepBatchPreprocess(idx, dec, d.Options.workers())

	set := converter.NewInstancedSet()
	payload := CompletionPayload{TotalCandidates: len(simpleIDs) + len(complexIDs)}

	candidates := append(append([]uint32{}, simpleIDs...), complexIDs...)
	for _, id := range candidates {
		eg, err := d.Router.ProcessElementInstanced(id, dec)
		if err != nil {
			payload.ProcessFailed++
			continue
		}
		if eg.Mesh.Empty() {
			payload.EmptyMesh++
			continue
		}

		color := [4]float32{1, 1, 1, 1}
		if itemRef, ok := firstBodyItemRef(id, dec); ok {
			if c, ok := styleIdx.ColorForItems([]uint32{itemRef}); ok {
				color = c
			}
		}
		set.Add(eg, id, color)
	}

	res := &Result{
		RunID:      runID,
		Preamble:   Preamble{RTC: rtcOffset, HasRTC: hasRTC},
		Completion: payload,
	}
	return res, set, nil
}
