package hdlc

// Add collects the information of a valid frame. It returns the joined
// information once a frame without the segmentation bit arrives. Invalid
// frames discard any partial segments.
func (a *SegmentAssembler) Add(frame *Frame) ([]byte, bool) {
	if !frame.IsValid() {
		a.Reset()
		return nil, false
	}

	a.information = append(a.information, frame.Information()...)
	a.segments++
	if frame.IsSegmented() {
		return nil, false
	}

	information := a.information
	a.information = nil
	a.segments = 0
	if len(information) == 0 {
		return nil, false
	}
	return information, true
}

// Pending returns the number of segments waiting for the final frame.
func (a *SegmentAssembler) Pending() int {
	return a.segments
}

func (a *SegmentAssembler) Reset() {
	a.information = nil
	a.segments = 0
}
