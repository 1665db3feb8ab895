package badger

import (
	"encoding/binary"

	"github.com/poiesic/qamatch/core"
)

// Key prefixes for different data types.
// Every record key is prefix:id with the ID in BigEndian so iteration
// follows ID order.
const (
	questionPrefix         = "qst"
	questionTextPrefix     = "qstx"
	questionIDSeq          = "qstseq"
	answerPrefix           = "ans"
	answerTextPrefix       = "ansx"
	answerQuestionPrefix   = "ansq"
	answerIDSeq            = "ansseq"
	reviewPrefix           = "rev"
	reviewIDSeq            = "revseq"
	memoryPrefix           = "mem"
	memoryIDSeq            = "memseq"
	feedbackPrefix         = "fbk"
	feedbackQuestionPrefix = "fbkq"
	feedbackIDSeq          = "fbkseq"
	manifestKey            = "manifest"
)

// makePrefix returns prefix followed by the separator.
func makePrefix(prefix string) []byte {
	return []byte(prefix + ":")
}

// makeKey generates a key for a record by ID.
// Format: prefix:id
func makeKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+1+8)
	offset := copy(buf, prefix+":")
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCompositeKey generates a key for a two-ID index.
// Format: prefix:first:second
func makeCompositeKey(prefix string, first, second core.ID) []byte {
	buf := make([]byte, len(prefix)+1+16)
	offset := copy(buf, prefix+":")
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(first))
	binary.BigEndian.PutUint64(buf[offset+8:], uint64(second))
	return buf
}

// compositeSecond extracts the trailing ID of a composite key.
func compositeSecond(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeTextKey generates a key for a normalized-text lookup.
// Format: prefix:IDFromContent(normalized)
func makeTextKey(prefix, normalized string) []byte {
	return makeKey(prefix, core.IDFromContent(normalized))
}
