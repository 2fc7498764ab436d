package series

import (
	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint hashes the encoded series, so any change to name, times or values
// changes the result.
func Fingerprint(s *Series) (uint64, error) {
	data, err := Marshal(s)
	if err != nil {
		return 0, err
	}
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
