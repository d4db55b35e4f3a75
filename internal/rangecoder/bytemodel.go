package rangecoder

// maxFreq bounds a ByteModel's total before it halves every frequency.
// Not pinned down by spec.md beyond "if total > MAX_FREQ renormalize";
// 1<<15 keeps range-coder division operands comfortably within a
// uint32 alongside topValue.
const maxFreq = 1 << 15

// ByteModel is the adaptive per-byte probability model spec.md §9
// describes: a flat array of (symbol, freq) slots, updated after every
// encode/decode by bumping the slot's frequency and then swapping it one
// place toward the front whenever it overtakes its neighbor. This keeps
// the table roughly frequency-sorted without ever fully re-sorting it.
type ByteModel struct {
	nsym   int
	symbol []byte
	freq   []uint32
	index  [256]int // symbol value -> current slot
	total  uint32
}

// NewByteModel returns a model over nsym symbols (0..nsym-1), each
// initially equiprobable.
func NewByteModel(nsym int) *ByteModel {
	m := &ByteModel{
		nsym:   nsym,
		symbol: make([]byte, nsym),
		freq:   make([]uint32, nsym),
	}
	for i := 0; i < nsym; i++ {
		m.symbol[i] = byte(i)
		m.freq[i] = 1
		m.index[i] = i
	}
	m.total = uint32(nsym)
	return m
}

// EncodeSymbol encodes value through enc and adapts the model.
func (m *ByteModel) EncodeSymbol(enc *Encoder, value byte) {
	slot := m.index[value]
	var cum uint32
	for i := 0; i < slot; i++ {
		cum += m.freq[i]
	}
	enc.Encode(cum, m.freq[slot], m.total)
	m.update(slot)
}

// DecodeSymbol decodes the next symbol from dec and adapts the model.
func (m *ByteModel) DecodeSymbol(dec *Decoder) byte {
	target := dec.GetFreq(m.total)
	var cum uint32
	slot := 0
	for cum+m.freq[slot] <= target {
		cum += m.freq[slot]
		slot++
	}
	dec.Decode(cum, m.freq[slot])
	value := m.symbol[slot]
	m.update(slot)
	return value
}

func (m *ByteModel) update(slot int) {
	m.freq[slot] += 16
	m.total += 16
	if m.total > maxFreq {
		var total uint32
		for i := range m.freq {
			m.freq[i] = (m.freq[i] + 1) / 2
			total += m.freq[i]
		}
		m.total = total
	}
	if slot > 0 && m.freq[slot] > m.freq[slot-1] {
		m.freq[slot], m.freq[slot-1] = m.freq[slot-1], m.freq[slot]
		m.symbol[slot], m.symbol[slot-1] = m.symbol[slot-1], m.symbol[slot]
		m.index[m.symbol[slot]] = slot
		m.index[m.symbol[slot-1]] = slot - 1
	}
}
