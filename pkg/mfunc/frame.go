package mfunc

import "github.com/raymyers/ralph-ra/pkg/reg"

const stackAlignment = 16 // ARM64 requires 16-byte stack alignment

// frameLayout assigns spill slots in the local area of the stack frame
type frameLayout struct {
	slots map[reg.VReg]int64 // spilled register -> slot offset
	top   int64              // end of the highest slot
}

func newFrameLayout() frameLayout {
	return frameLayout{slots: make(map[reg.VReg]int64)}
}

// allocate reserves a size-byte slot aligned to its own size
func (fl *frameLayout) allocate(v reg.VReg, size int64) int64 {
	if ofs, ok := fl.slots[v]; ok {
		return ofs
	}
	ofs := alignUp(fl.top, size)
	fl.slots[v] = ofs
	fl.top = ofs + size
	return ofs
}

// size returns the aligned size of the spill area
func (fl *frameLayout) size() int64 {
	return alignUp(fl.top, stackAlignment)
}

func alignUp(n, align int64) int64 {
	if align <= 0 || n%align == 0 {
		return n
	}
	return ((n / align) + 1) * align
}

// StackSlot returns the spill slot offset of v, if it was spilled
func (f *Function) StackSlot(v reg.VReg) (int64, bool) {
	ofs, ok := f.frame.slots[v]
	return ofs, ok
}

// FrameSize returns the 16-byte aligned size of the spill area
func (f *Function) FrameSize() int64 {
	return f.frame.size()
}
