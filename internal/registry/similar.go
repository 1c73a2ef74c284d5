package registry

import "mixshare/internal/sharecode"

// Decoder turns a share code into the ShareInfo it references.
// *sharecode.Codec implements it.
type Decoder interface {
	Decode(code string) (sharecode.ShareInfo, error)
}

// identify decodes rec's share code. ok is false when the code does not
// decode; such a record is never similar to anything.
func identify(dec Decoder, rec FileRecord) (id sharecode.Identity, ok bool) {
	info, err := dec.Decode(rec.ShareCode)
	if err != nil {
		return sharecode.Identity{}, false
	}
	return info.Identity(), true
}

// Similar reports whether a and b reference the same blob. Names, sizes,
// categories and the textual form of the codes are ignored: a long code and
// a short code for the same blob are similar.
func Similar(dec Decoder, a, b FileRecord) bool {
	ida, ok := identify(dec, a)
	if !ok {
		return false
	}
	idb, ok := identify(dec, b)
	return ok && ida == idb
}
