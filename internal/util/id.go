package util

import (
	"crypto/rand"
	"encoding/hex"
)

// Entity identifiers are a short type tag joined by an underscore to
// 128 bits of hex-encoded randomness: usr_ for users, prj_ projects,
// brd_ boards, lst_ lists, crd_ cards, cmt_ comments, lbl_ labels,
// chk_ checklist items, att_ attachments, tme_ time entries.
const idEntropyBytes = 16

// NewID returns a fresh identifier carrying the given type tag. With
// an empty tag it returns the bare hex token, used for lock tokens.
func NewID(prefix string) string {
	var buf [idEntropyBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	token := hex.EncodeToString(buf[:])
	if prefix == "" {
		return token
	}
	return prefix + "_" + token
}
