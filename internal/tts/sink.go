package tts

import "sync"

// MemorySink retains the PCM of the current utterance so transports can hand
// it to the client (e.g. an audio fetch endpoint). Reset drops everything,
// which is also how barge-in feels instant.
type MemorySink struct {
	mu  sync.Mutex
	buf []byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) WritePCM(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	m.mu.Lock()
	m.buf = append(m.buf, pcm...)
	m.mu.Unlock()
}

func (m *MemorySink) FlushTail() {}

func (m *MemorySink) Reset() {
	m.mu.Lock()
	m.buf = nil
	m.mu.Unlock()
}

// Bytes returns a copy of the buffered PCM.
func (m *MemorySink) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}
