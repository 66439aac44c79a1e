package riak

// Values stored through the client may implement these interfaces to have
// their key, vector clock and user metadata carried along.
//
// Put reads them: the key is used when none is given, the vclock when none
// is set explicitly, and the metadata is merged over the request's. Get and
// Put write them back from the response. For writes to be visible the
// setters need a pointer receiver: either T is a pointer type, or *T
// implements the interface.

// KeyBinder carries the key of a value.
type KeyBinder interface {
	RiakKey() string
	SetRiakKey(key string)
}

// VClockBinder carries the vector clock of the version a value was read from.
type VClockBinder interface {
	RiakVClock() []byte
	SetRiakVClock(vclock []byte)
}

// MetadataBinder carries the user metadata of a value.
type MetadataBinder interface {
	RiakMetadata() map[string]string
	SetRiakMetadata(meta map[string]string)
}

// binderOf returns v or &v as an I.
func binderOf[I any, T any](v *T) (I, bool) {
	if b, ok := any(*v).(I); ok {
		return b, true
	}
	b, ok := any(v).(I)
	return b, ok
}

// bindEntry writes the key, vclock and metadata of e into e.Data.
// Nothing is written when no value was found.
func bindEntry[T any](e *Entry[T]) {
	if !e.Found {
		return
	}
	if b, ok := binderOf[KeyBinder](&e.Data); ok {
		b.SetRiakKey(e.Key)
	}
	if b, ok := binderOf[VClockBinder](&e.Data); ok {
		b.SetRiakVClock(e.Headers.VClock)
	}
	if e.Headers.Metadata != nil {
		if b, ok := binderOf[MetadataBinder](&e.Data); ok {
			b.SetRiakMetadata(e.Headers.Metadata)
		}
	}
}
