package dlde

// NewTelegramReader creates a reader that waits for the start of a readout.
func NewTelegramReader() *TelegramReader {
	return &TelegramReader{buffer: make([]byte, 0, 1024), lastByte: '\n'}
}

// Read adds chunk to the reader and returns every readout completed by it. A
// readout runs from a '/' at the start of a line to the end of the line that
// holds the '!'.
func (r *TelegramReader) Read(chunk []byte) [][]byte {
	var telegrams [][]byte

	for _, b := range chunk {
		atLineStart := r.lastByte == '\n'
		r.lastByte = b

		if b == StartCharacter && atLineStart && !r.endSeen {
			// a new readout replaces an unfinished one
			r.buffer = append(r.buffer[:0], b)
			r.inTelegram = true
			continue
		}
		if !r.inTelegram {
			continue
		}

		r.buffer = append(r.buffer, b)
		switch {
		case b == EndCharacter:
			r.endSeen = true
		case b == '\n' && r.endSeen:
			telegrams = append(telegrams, append([]byte(nil), r.buffer...))
			r.Reset()
		case len(r.buffer) > MaxTelegramSize:
			r.Reset()
		}
	}
	return telegrams
}

// Reset drops any partial readout.
func (r *TelegramReader) Reset() {
	r.buffer = r.buffer[:0]
	r.inTelegram = false
	r.endSeen = false
}

// Buffered returns the size of the partial readout.
func (r *TelegramReader) Buffered() int {
	return len(r.buffer)
}
