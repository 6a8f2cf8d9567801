package probe

// WildcardOriginator is the requester id that any prober may receive replies
// for. Using it avoids allocating a unique requester id per session.
const WildcardOriginator uint8 = 0xFF

const (
	maxObjectEntryID = 1<<13 - 1

	requestOriginatorShift = 13
	requestTargetShift     = 21

	replyStartBit        = 1 << 0
	replyEndBit          = 1 << 1
	replyToggleBit       = 1 << 2
	replyEntryShift      = 3
	replyOriginatorShift = 16
	replyResponderShift  = 24
	replyValueShift      = 32
)

// FingerprintRequest asks a node for the value of its configuration hash
// object entry.
type FingerprintRequest struct {
	ObjectEntryID uint16
	Originator    uint8
	Target        uint8
}

// Encode packs the request into a frame payload: entry id in bits [0,13),
// originator in [13,21), target node in [21,29).
func (r FingerprintRequest) Encode() uint64 {
	var data uint64
	data |= uint64(r.ObjectEntryID) & maxObjectEntryID
	data |= uint64(r.Originator) << requestOriginatorShift
	data |= uint64(r.Target) << requestTargetShift

	return data
}

func DecodeRequest(data uint64) FingerprintRequest {
	return FingerprintRequest{
		ObjectEntryID: uint16(data & maxObjectEntryID),
		Originator:    uint8(data >> requestOriginatorShift),
		Target:        uint8(data >> requestTargetShift),
	}
}

// Fragment is one half of a node fingerprint carried by a reply frame.
// Start marks the low half, End marks the high half.
type Fragment struct {
	Start         bool
	End           bool
	Toggle        bool
	ObjectEntryID uint16
	Originator    uint8
	Responder     uint8
	Value         uint32
}

func DecodeFragment(data uint64) Fragment {
	return Fragment{
		Start:         data&replyStartBit != 0,
		End:           data&replyEndBit != 0,
		Toggle:        data&replyToggleBit != 0,
		ObjectEntryID: uint16(data>>replyEntryShift) & maxObjectEntryID,
		Originator:    uint8(data >> replyOriginatorShift),
		Responder:     uint8(data >> replyResponderShift),
		Value:         uint32(data >> replyValueShift),
	}
}

func (f Fragment) Encode() uint64 {
	var data uint64

	if f.Start {
		data |= replyStartBit
	}

	if f.End {
		data |= replyEndBit
	}

	if f.Toggle {
		data |= replyToggleBit
	}

	data |= (uint64(f.ObjectEntryID) & maxObjectEntryID) << replyEntryShift
	data |= uint64(f.Originator) << replyOriginatorShift
	data |= uint64(f.Responder) << replyResponderShift
	data |= uint64(f.Value) << replyValueShift

	return data
}

// SplitFingerprint returns the two fragments a node sends in reply to a
// fingerprint request from originator.
func SplitFingerprint(hash uint64, responder, originator uint8) (Fragment, Fragment) {
	low := Fragment{
		Start:      true,
		Originator: originator,
		Responder:  responder,
		Value:      uint32(hash),
	}

	high := Fragment{
		End:        true,
		Toggle:     true,
		Originator: originator,
		Responder:  responder,
		Value:      uint32(hash >> 32),
	}

	return low, high
}

type correlationKey struct {
	originator uint8
	responder  uint8
}

func (f Fragment) key() correlationKey {
	return correlationKey{originator: f.Originator, responder: f.Responder}
}
