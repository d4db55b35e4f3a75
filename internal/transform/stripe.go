package transform

import "github.com/grailbio/seqcore/internal/bitio"

// Split partitions data into k interleaved sub-streams: sub-stream j
// receives the bytes at positions i*k+j. Stripe wraps the whole
// compressed stream (spec.md §4.D): each sub-stream is independently
// entropy-coded by the caller after Split returns.
func Split(data []byte, k int) [][]byte {
	subs := make([][]byte, k)
	lens := make([]int, k)
	for i := range data {
		lens[i%k]++
	}
	for j := range subs {
		subs[j] = make([]byte, 0, lens[j])
	}
	for i, b := range data {
		j := i % k
		subs[j] = append(subs[j], b)
	}
	return subs
}

// Merge reverses Split: element i of the output comes from sub-stream
// i%k at position i/k.
func Merge(subs [][]byte) []byte {
	k := len(subs)
	total := 0
	for _, s := range subs {
		total += len(s)
	}
	out := make([]byte, total)
	idx := make([]int, k)
	for i := 0; i < total; i++ {
		j := i % k
		out[i] = subs[j][idx[j]]
		idx[j]++
	}
	return out
}

// PutStripeHeader appends the stripe prefix (K, clen_1, ..., clen_K) to
// buf.
func PutStripeHeader(buf []byte, clens []int) []byte {
	buf = append(buf, byte(len(clens)))
	for _, l := range clens {
		buf = bitio.PutUint7(buf, uint64(l))
	}
	return buf
}

// GetStripeHeader reads the stripe prefix from the front of buf.
func GetStripeHeader(buf []byte) (clens []int, consumed int, err error) {
	if len(buf) < 1 {
		return nil, 0, ErrMalformed
	}
	k := int(buf[0])
	pos := 1
	clens = make([]int, k)
	for j := 0; j < k; j++ {
		v, n, err := bitio.GetUint7(buf[pos:])
		if err != nil {
			return nil, 0, err
		}
		clens[j] = int(v)
		pos += n
	}
	return clens, pos, nil
}
