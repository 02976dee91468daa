package fx

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// sampleTarget is roughly how many pixels contribute to a buffer hash.
// Sampling keeps key computation cheap on large images; two buffers that
// differ only between sample points may collide, which trades a stale
// cache hit for never hashing megapixels per lookup.
const sampleTarget = 4096

// hashBuffer fingerprints a buffer from its dimensions and a strided
// sample of its pixels.
func hashBuffer(buf *Buffer) uint64 {
	h := fnv.New64a()
	var dims [8]byte
	putUint32(dims[0:4], uint32(buf.Width()))
	putUint32(dims[4:8], uint32(buf.Height()))
	h.Write(dims[:])

	data := buf.Data()
	pixels := len(data) / 4
	stride := pixels / sampleTarget
	if stride < 1 {
		stride = 1
	}
	for p := 0; p < pixels; p += stride {
		h.Write(data[p*4 : p*4+4])
	}
	return h.Sum64()
}

// putUint32 writes v into b in big-endian order.
func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// serializeSettings renders settings deterministically (sorted keys).
func serializeSettings(s Settings) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(s[k], 'g', -1, 64))
	}
	return sb.String()
}

// operationKey builds the operation-cache key for a single effect
// application: sampled pixel hash + effect + serialized settings.
func operationKey(buf *Buffer, effectID string, s Settings) string {
	return strconv.FormatUint(hashBuffer(buf), 16) + "|" + effectID + "|" + serializeSettings(s)
}

// previewKey builds the preview-cache key: image fingerprint + effect.
func previewKey(buf *Buffer, effectID string) string {
	return strconv.FormatUint(hashBuffer(buf), 16) + "|" + effectID
}

// layerKey builds the operation-cache key for a whole-layer result.
func layerKey(layerID string, ops []Operation) string {
	var sb strings.Builder
	sb.WriteString(layerID)
	for _, op := range ops {
		sb.WriteByte('|')
		sb.WriteString(op.EffectID)
		sb.WriteByte(':')
		sb.WriteString(serializeSettings(op.Settings))
	}
	return sb.String()
}
