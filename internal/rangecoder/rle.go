package rangecoder

// Run-length range coding: each run is a (symbol, length) pair. The
// symbol uses the same literal order-0/1 model as the plain path. The
// length is length-1, emitted as repeated 2-bit "parts" from a
// 258-entry part-model table (256 per-symbol contexts plus two
// continuation contexts, spec.md §4.E): a part of 3 means "add 3 and
// read another part from a continuation context", any other part (0-2)
// terminates the run. The two continuation contexts alternate on
// successive overflow parts; spec.md names both but does not pin down
// the alternation order, so this is this implementation's choice.
const (
	contContextA = 256
	contContextB = 257
)

func encodeRunLength(enc *Encoder, partModels *[258]*ByteModel, symCtx int, length int) {
	r := length - 1
	ctx := symCtx
	useB := false
	for {
		if partModels[ctx] == nil {
			partModels[ctx] = NewByteModel(4)
		}
		var part byte
		if r >= 3 {
			part = 3
		} else {
			part = byte(r)
		}
		partModels[ctx].EncodeSymbol(enc, part)
		if part != 3 {
			return
		}
		r -= 3
		if useB {
			ctx = contContextB
		} else {
			ctx = contContextA
		}
		useB = !useB
	}
}

func decodeRunLength(dec *Decoder, partModels *[258]*ByteModel, symCtx int) int {
	r := 0
	ctx := symCtx
	useB := false
	for {
		if partModels[ctx] == nil {
			partModels[ctx] = NewByteModel(4)
		}
		part := partModels[ctx].DecodeSymbol(dec)
		r += int(part)
		if part != 3 {
			return r + 1
		}
		if useB {
			ctx = contContextB
		} else {
			ctx = contContextA
		}
		useB = !useB
	}
}

func encodeRLE(data []byte, order1 bool) []byte {
	enc := NewEncoder()
	var litModels [256]*ByteModel
	var partModels [258]*ByteModel
	ctx := byte(0)
	i := 0
	for i < len(data) {
		sym := data[i]
		j := i + 1
		for j < len(data) && data[j] == sym {
			j++
		}
		if litModels[ctx] == nil {
			litModels[ctx] = NewByteModel(256)
		}
		litModels[ctx].EncodeSymbol(enc, sym)
		encodeRunLength(enc, &partModels, int(sym), j-i)
		if order1 {
			ctx = sym
		}
		i = j
	}
	return enc.Finish()
}

func decodeRLE(buf []byte, order1 bool, n int) []byte {
	dec := NewDecoder(buf)
	out := make([]byte, 0, n)
	var litModels [256]*ByteModel
	var partModels [258]*ByteModel
	ctx := byte(0)
	for len(out) < n {
		if litModels[ctx] == nil {
			litModels[ctx] = NewByteModel(256)
		}
		sym := litModels[ctx].DecodeSymbol(dec)
		runLen := decodeRunLength(dec, &partModels, int(sym))
		for k := 0; k < runLen; k++ {
			out = append(out, sym)
		}
		if order1 {
			ctx = sym
		}
	}
	return out
}
