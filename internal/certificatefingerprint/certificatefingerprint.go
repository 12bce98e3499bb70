package certificatefingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Fingerprint formats the SHA-256 digest of a DER-encoded
// certificate as colon-separated hex pairs ("AB:CD:...").
func Fingerprint(rawCertificate []byte) string {
	digest := sha256.Sum256(rawCertificate)

	return strings.Join(lo.Map(digest[:], func(piece byte, _ int) string {
		return fmt.Sprintf("%02X", piece)
	}), ":")
}
