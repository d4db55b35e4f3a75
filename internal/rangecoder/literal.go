package rangecoder

// encodeLiteral range-codes data symbol-by-symbol with an adaptive
// order-0 (single shared model) or order-1 (256 per-context models,
// context = previous byte) ByteModel.
func encodeLiteral(data []byte, order1 bool) []byte {
	enc := NewEncoder()
	if !order1 {
		model := NewByteModel(256)
		for _, b := range data {
			model.EncodeSymbol(enc, b)
		}
		return enc.Finish()
	}
	var models [256]*ByteModel
	ctx := byte(0)
	for _, b := range data {
		if models[ctx] == nil {
			models[ctx] = NewByteModel(256)
		}
		models[ctx].EncodeSymbol(enc, b)
		ctx = b
	}
	return enc.Finish()
}

func decodeLiteral(buf []byte, order1 bool, n int) []byte {
	dec := NewDecoder(buf)
	out := make([]byte, 0, n)
	if !order1 {
		model := NewByteModel(256)
		for i := 0; i < n; i++ {
			out = append(out, model.DecodeSymbol(dec))
		}
		return out
	}
	var models [256]*ByteModel
	ctx := byte(0)
	for i := 0; i < n; i++ {
		if models[ctx] == nil {
			models[ctx] = NewByteModel(256)
		}
		b := models[ctx].DecodeSymbol(dec)
		out = append(out, b)
		ctx = b
	}
	return out
}
